package action

import (
	"fmt"

	"github.com/MrtnvM/render-engine/value"
)

// ErrCode enumerates the executor-facing error kinds from spec §7.
type ErrCode int

const (
	InvalidOperation ErrCode = iota
	InvalidValueType
	BackendError
)

// Error is the error type Execute returns for executor-level failures.
type Error struct {
	Code    ErrCode
	Message string
	Details value.Object
}

func (e *Error) Error() string { return e.Message }

func invalidOperation(format string, args ...interface{}) *Error {
	return &Error{Code: InvalidOperation, Message: fmt.Sprintf(format, args...)}
}

func invalidValueType(expected, got, path string) *Error {
	return &Error{Code: InvalidValueType, Message: fmt.Sprintf("expected %s, got %s at %s", expected, got, path)}
}

func backendErrorFrom(details value.Object) *Error {
	return &Error{Code: BackendError, Message: "api.request failed with no onError handler", Details: details}
}
