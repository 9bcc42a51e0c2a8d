// Package storage defines the Backend contract shared by every storage
// backend (memory, user-preferences, file, session, remote) and the error
// kinds the store surfaces when a backend I/O call fails.
package storage

import (
	"context"
	"fmt"

	"github.com/MrtnvM/render-engine/value"
)

// Backend is the common interface implemented by every storage backend.
type Backend interface {
	// Load returns the full keyPath -> value map currently persisted.
	Load(ctx context.Context) (map[string]value.Value, error)
	// Save overwrites the persisted state with data.
	Save(ctx context.Context, data map[string]value.Value) error
	// Clear removes all persisted state.
	Clear(ctx context.Context) error
	// SupportsConcurrentAccess reports whether multiple stores may safely
	// share this backend instance without external serialization.
	SupportsConcurrentAccess() bool
}

// ChangePusher is an optional capability a Backend may additionally
// implement to receive the precise Change just committed (its ordered
// Patches, op kinds, oldValue/newValue and transactionId) instead of the
// coarse full-snapshot Save. Stores prefer PushChange over Save whenever the
// backend implements it; Save remains the contract every backend must
// support for the initial/forced full-overwrite case (e.g. ReplaceAll
// falling back on a backend with no incremental path).
type ChangePusher interface {
	PushChange(ctx context.Context, change value.Change) error
}

// ErrCode enumerates the BackendError kinds from spec §7.
type ErrCode int

const (
	// Transport indicates a network-level failure talking to a remote backend.
	Transport ErrCode = iota
	// HTTP indicates a non-2xx response; Status carries the code.
	HTTP
	// Timeout indicates the operation exceeded its configured timeout.
	Timeout
	// Decode indicates the response or on-disk payload failed to parse.
	Decode
)

// Error is the error type returned by storage backends.
type Error struct {
	Code    ErrCode
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsTimeout reports whether err is a timeout BackendError.
func IsTimeout(err error) bool {
	se, ok := err.(*Error)
	return ok && se.Code == Timeout
}

// IsHTTP reports whether err is an HTTP BackendError and returns its status.
func IsHTTP(err error) (int, bool) {
	se, ok := err.(*Error)
	if !ok || se.Code != HTTP {
		return 0, false
	}
	return se.Status, true
}

// TransportError wraps a network-level failure.
func TransportError(format string, args ...interface{}) *Error {
	return &Error{Code: Transport, Message: fmt.Sprintf(format, args...)}
}

// DecodeError wraps a payload decode failure.
func DecodeError(format string, args ...interface{}) *Error {
	return &Error{Code: Decode, Message: fmt.Sprintf(format, args...)}
}

// TimeoutError wraps an operation that exceeded its deadline.
func TimeoutError(format string, args ...interface{}) *Error {
	return &Error{Code: Timeout, Message: fmt.Sprintf(format, args...)}
}

// HTTPError wraps a non-2xx response.
func HTTPError(status int, format string, args ...interface{}) *Error {
	return &Error{Code: HTTP, Status: status, Message: fmt.Sprintf(format, args...)}
}
