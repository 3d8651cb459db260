package native

import (
	"fmt"
)

type ExceptionType int

const (
	ExceptionTypeUnknown = ExceptionType(iota)
	ExceptionTypeCameraDisconnected
	ExceptionTypeBackend
	ExceptionTypeInvalidValue
	ExceptionTypeWrongAPICallSequence
	ExceptionTypeNotImplemented
	ExceptionTypeDeviceInRecoveryMode
	ExceptionTypeIO
)

func (t ExceptionType) String() string {
	switch t {
	case ExceptionTypeUnknown:
		return "unknown"
	case ExceptionTypeCameraDisconnected:
		return "camera_disconnected"
	case ExceptionTypeBackend:
		return "backend"
	case ExceptionTypeInvalidValue:
		return "invalid_value"
	case ExceptionTypeWrongAPICallSequence:
		return "wrong_api_call_sequence"
	case ExceptionTypeNotImplemented:
		return "not_implemented"
	case ExceptionTypeDeviceInRecoveryMode:
		return "device_in_recovery_mode"
	case ExceptionTypeIO:
		return "io"
	default:
		return fmt.Sprintf("unknown_exception_type_%d", int(t))
	}
}

// Error is the structured error object a native primitive may yield.
type Error struct {
	Message  string
	Function string
	Args     string
	Type     ExceptionType
}

func (e *Error) String() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s): %s [%s]", e.Function, e.Args, e.Message, e.Type)
}
