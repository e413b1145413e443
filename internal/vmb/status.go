package vmb

import "strconv"

// Status is the raw result code returned by every vendor SDK call.
// Values match VmbErrorType from the Vimba C API.
type Status int32

const (
	StatusSuccess        Status = 0
	StatusInternalFault  Status = -1
	StatusApiNotStarted  Status = -2
	StatusNotFound       Status = -3
	StatusBadHandle      Status = -4
	StatusDeviceNotOpen  Status = -5
	StatusInvalidAccess  Status = -6
	StatusBadParameter   Status = -7
	StatusStructSize     Status = -8
	StatusMoreData       Status = -9
	StatusWrongType      Status = -10
	StatusInvalidValue   Status = -11
	StatusTimeout        Status = -12
	StatusOther          Status = -13
	StatusResources      Status = -14
	StatusInvalidCall    Status = -15
	StatusNoTL           Status = -16
	StatusNotImplemented Status = -17
	StatusNotSupported   Status = -18
	StatusIncomplete     Status = -19
)

var statusNames = map[Status]string{
	StatusSuccess:        "VmbErrorSuccess",
	StatusInternalFault:  "VmbErrorInternalFault",
	StatusApiNotStarted:  "VmbErrorApiNotStarted",
	StatusNotFound:       "VmbErrorNotFound",
	StatusBadHandle:      "VmbErrorBadHandle",
	StatusDeviceNotOpen:  "VmbErrorDeviceNotOpen",
	StatusInvalidAccess:  "VmbErrorInvalidAccess",
	StatusBadParameter:   "VmbErrorBadParameter",
	StatusStructSize:     "VmbErrorStructSize",
	StatusMoreData:       "VmbErrorMoreData",
	StatusWrongType:      "VmbErrorWrongType",
	StatusInvalidValue:   "VmbErrorInvalidValue",
	StatusTimeout:        "VmbErrorTimeout",
	StatusOther:          "VmbErrorOther",
	StatusResources:      "VmbErrorResources",
	StatusInvalidCall:    "VmbErrorInvalidCall",
	StatusNoTL:           "VmbErrorNoTL",
	StatusNotImplemented: "VmbErrorNotImplemented",
	StatusNotSupported:   "VmbErrorNotSupported",
	StatusIncomplete:     "VmbErrorIncomplete",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "VmbError(" + strconv.Itoa(int(s)) + ")"
}

// OK reports whether the call succeeded.
func (s Status) OK() bool { return s == StatusSuccess }
