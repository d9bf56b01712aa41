package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned when a payment amount is not positive or
	// exceeds the outstanding balance, or a bill amount is negative.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNotFound is returned when a referenced record is absent from the snapshot or store.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when no allowed principal is signed in.
	ErrUnauthorized = errors.New("unauthorized")
)

// RemoteFailure wraps an error raised by the persistence, blob or
// notification backends. Op names the step that failed.
type RemoteFailure struct {
	Op  string
	Err error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("remote failure during %s: %v", e.Op, e.Err)
}

func (e *RemoteFailure) Unwrap() error { return e.Err }

// IsRemoteFailure reports whether err carries a RemoteFailure.
func IsRemoteFailure(err error) bool {
	var rf *RemoteFailure
	return errors.As(err, &rf)
}
