package control

import "net/http"

// statusError is a request-level failure that is not a camera error. It
// carries the HTTP status the API should answer with.
type statusError struct {
	code int
	msg  string
}

func (e statusError) Error() string   { return e.msg }
func (e statusError) StatusCode() int { return e.code }

func badRequest(msg string) error   { return statusError{code: http.StatusBadRequest, msg: msg} }
func conflict(msg string) error     { return statusError{code: http.StatusConflict, msg: msg} }
func notAvailable(msg string) error { return statusError{code: http.StatusNotFound, msg: msg} }

func isStatus(err error, code int) bool {
	se, ok := err.(statusError)
	return ok && se.code == code
}

// IsBadRequest reports whether err rejects the request body or parameters.
func IsBadRequest(err error) bool { return isStatus(err, http.StatusBadRequest) }

// IsConflict reports whether err rejects a stream operation in the current state.
func IsConflict(err error) bool { return isStatus(err, http.StatusConflict) }

// IsNotAvailable reports whether err means no frame or stream exists yet.
func IsNotAvailable(err error) bool { return isStatus(err, http.StatusNotFound) }
