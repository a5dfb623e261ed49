package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services, repositories and transport.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateInvitation = errors.New("contact already invited to this party")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// BatchError reports a batch operation that applied to some ids and failed on others.
// Rows that were applied stay applied.
type BatchError struct {
	Applied int
	Failed  []string
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d applied, %d failed (%s): %v", e.Applied, len(e.Failed), strings.Join(e.Failed, ", "), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// InvalidInputf returns an error wrapping ErrInvalidInput with a formatted message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
