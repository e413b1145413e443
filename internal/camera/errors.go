package camera

import (
	"errors"
	"fmt"

	"mantacam/internal/vmb"
)

// ErrorKind classifies every failure surfaced by this package.
type ErrorKind int

const (
	KindSuccess ErrorKind = iota
	KindInternalFault
	KindApiNotStarted
	KindNotFound
	KindBadHandle
	KindDeviceNotOpen
	KindInvalidAccess
	KindBadParameter
	KindStructSizeMismatch
	KindMoreData
	KindWrongType
	KindInvalidValue
	KindTimeout
	KindOther
	KindResourceExhausted
	KindInvalidCall
	KindNoTransportLayer
	KindNotImplemented
	KindNotSupported
	KindIncomplete
)

var kindNames = [...]string{
	KindSuccess:            "success",
	KindInternalFault:      "internal_fault",
	KindApiNotStarted:      "api_not_started",
	KindNotFound:           "not_found",
	KindBadHandle:          "bad_handle",
	KindDeviceNotOpen:      "device_not_open",
	KindInvalidAccess:      "invalid_access",
	KindBadParameter:       "bad_parameter",
	KindStructSizeMismatch: "struct_size_mismatch",
	KindMoreData:           "more_data",
	KindWrongType:          "wrong_type",
	KindInvalidValue:       "invalid_value",
	KindTimeout:            "timeout",
	KindOther:              "other",
	KindResourceExhausted:  "resource_exhausted",
	KindInvalidCall:        "invalid_call",
	KindNoTransportLayer:   "no_transport_layer",
	KindNotImplemented:     "not_implemented",
	KindNotSupported:       "not_supported",
	KindIncomplete:         "incomplete",
}

// Kinds lists every ErrorKind in declaration order.
func Kinds() []ErrorKind {
	out := make([]ErrorKind, len(kindNames))
	for i := range kindNames {
		out[i] = ErrorKind(i)
	}
	return out
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var statusKinds = map[vmb.Status]ErrorKind{
	vmb.StatusSuccess:        KindSuccess,
	vmb.StatusInternalFault:  KindInternalFault,
	vmb.StatusApiNotStarted:  KindApiNotStarted,
	vmb.StatusNotFound:       KindNotFound,
	vmb.StatusBadHandle:      KindBadHandle,
	vmb.StatusDeviceNotOpen:  KindDeviceNotOpen,
	vmb.StatusInvalidAccess:  KindInvalidAccess,
	vmb.StatusBadParameter:   KindBadParameter,
	vmb.StatusStructSize:     KindStructSizeMismatch,
	vmb.StatusMoreData:       KindMoreData,
	vmb.StatusWrongType:      KindWrongType,
	vmb.StatusInvalidValue:   KindInvalidValue,
	vmb.StatusTimeout:        KindTimeout,
	vmb.StatusOther:          KindOther,
	vmb.StatusResources:      KindResourceExhausted,
	vmb.StatusInvalidCall:    KindInvalidCall,
	vmb.StatusNoTL:           KindNoTransportLayer,
	vmb.StatusNotImplemented: KindNotImplemented,
	vmb.StatusNotSupported:   KindNotSupported,
	vmb.StatusIncomplete:     KindIncomplete,
}

// KindForStatus maps a driver status to its ErrorKind. Codes the driver
// should never produce map to KindOther.
func KindForStatus(st vmb.Status) ErrorKind {
	if k, ok := statusKinds[st]; ok {
		return k
	}
	return KindOther
}

// Error is the only error type returned by this package.
type Error struct {
	Op   string
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return "camera: " + e.Op + ": " + e.Kind.String() + ": " + e.Msg
	}
	return "camera: " + e.Op + ": " + e.Kind.String()
}

// Is matches another *Error of the same kind, so errors.Is(err,
// &Error{Kind: KindTimeout}) works regardless of Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// newError reports a failure detected in this package without asking the
// driver.
func newError(op string, kind ErrorKind, format string, args ...any) error {
	sdkErrorsTotal.WithLabelValues(kind.String(), "api").Inc()
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// translate turns a driver status into nil or an *Error. Every driver call in
// this package goes through it.
func translate(op string, st vmb.Status) error {
	if st.OK() {
		return nil
	}
	kind := KindForStatus(st)
	sdkErrorsTotal.WithLabelValues(kind.String(), "sdk").Inc()
	if kind == KindOther && st != vmb.StatusOther {
		return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf("unknown status %d", int32(st))}
	}
	return &Error{Op: op, Kind: kind}
}

// KindOf returns the ErrorKind carried by err: KindSuccess for nil and
// KindOther for errors not produced by this package.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k ErrorKind) bool { return err != nil && KindOf(err) == k }

func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsInvalidAccess(err error) bool { return IsKind(err, KindInvalidAccess) }
func IsInvalidCall(err error) bool   { return IsKind(err, KindInvalidCall) }
func IsTimeout(err error) bool       { return IsKind(err, KindTimeout) }
func IsWrongType(err error) bool     { return IsKind(err, KindWrongType) }
