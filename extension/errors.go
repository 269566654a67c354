package extension

import (
	"errors"
	"fmt"
)

// ErrInvalidSession means the session id is unknown to the payment
// processor; re-exchanging it will not help.
var ErrInvalidSession = errors.New("invalid checkout session")

// ErrStorageUnavailable wraps local cache failures. Fatal to the calling
// operation; never retried internally.
var ErrStorageUnavailable = errors.New("local storage unavailable")

// NetworkError is a transport-level failure. Transient; the user may retry
// manually, the client never retries on its own.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-success HTTP status from the entitlement server.
// Message carries the server's error body when it sent one; callers use it
// to tell a rejected request from a transient server fault.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error: status %d", e.Status)
}
