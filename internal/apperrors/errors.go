package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the requested change is incompatible with the current state.
var ErrConflict = errors.New("conflicting state")

// NetworkError wraps a transport-level failure against an external system.
// Callers may retry these with backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError indicates a credential, certificate or token problem against an
// external system. Fatal for the counterparty until its credentials are fixed;
// must not be retried in a tight loop.
type AuthError struct {
	Counterparty string
	Err          error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for counterparty %s: %v", e.Counterparty, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// GatewayRejectedError is a business-level rejection from the payment gateway.
// Fatal for the single charge; the request body is kept for diagnosis.
type GatewayRejectedError struct {
	StatusCode  int
	RequestBody string
	Detail      string
}

func (e *GatewayRejectedError) Error() string {
	return fmt.Sprintf("gateway rejected request (status %d): %s", e.StatusCode, e.Detail)
}

// DataParseError indicates a successful response whose body could not be
// interpreted. Fatal for that single item only; no state is written.
type DataParseError struct {
	Source string
	Err    error
}

func (e *DataParseError) Error() string {
	return fmt.Sprintf("unparsable data from %s: %v", e.Source, e.Err)
}

func (e *DataParseError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
