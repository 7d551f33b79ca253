package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks empty text, empty queries and unsupported uploads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks operations on a document id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrGateway marks failures of the embedding service.
	ErrGateway = errors.New("embedding gateway unavailable")
)

// GatewayError wraps an embedding service failure. Callers may retry it.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrGateway, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGateway) match any GatewayError.
func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// Retryable reports whether the failed call may succeed when repeated.
func (e *GatewayError) Retryable() bool { return true }

// NewGatewayError wraps err for operation op.
func NewGatewayError(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}

// InvalidInput returns an error matching ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err carries a retryable failure.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
