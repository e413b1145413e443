package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mantacam/internal/camera"
	"mantacam/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForKind maps camera error kinds to HTTP status codes.
func statusForKind(k camera.ErrorKind) int {
	switch k {
	case camera.KindNotFound, camera.KindBadHandle:
		return http.StatusNotFound
	case camera.KindBadParameter, camera.KindInvalidValue, camera.KindWrongType:
		return http.StatusBadRequest
	case camera.KindInvalidAccess:
		return http.StatusForbidden
	case camera.KindDeviceNotOpen, camera.KindInvalidCall:
		return http.StatusConflict
	case camera.KindTimeout:
		return http.StatusGatewayTimeout
	case camera.KindApiNotStarted, camera.KindNoTransportLayer, camera.KindResourceExhausted:
		return http.StatusServiceUnavailable
	case camera.KindNotImplemented, camera.KindNotSupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code and writes the JSON error body.
func writeError(w http.ResponseWriter, err error) int {
	var ce *camera.Error
	var he HTTPError
	status := http.StatusInternalServerError
	kind := ""
	switch {
	case errors.As(err, &ce):
		status = statusForKind(ce.Kind)
		kind = ce.Kind.String()
	case errors.As(err, &he):
		status = he.StatusCode()
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSONErrorKind(w, status, err.Error(), kind)
	return status
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSONErrorKind(w, status, msg, "")
}

func writeJSONErrorKind(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Kind: kind, Code: status})
}
