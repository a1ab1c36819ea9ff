package gql

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the endpoint answers 401. It is not retried.
var ErrUnauthorized = errors.New("gql: unauthorized")

// RemoteError means the platform rejected the request. Message is errors[0].message.
type RemoteError struct {
	Operation  string
	Message    string
	StatusCode int
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gql %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gql %s: %s", e.Operation, e.Message)
}

// NetworkError wraps a transport level failure (DNS, TCP, TLS, timeouts).
// It is always safe to retry.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gql %s: network error: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transport failure worth retrying.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
