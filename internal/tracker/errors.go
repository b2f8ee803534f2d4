package tracker

import (
	"errors"
	"fmt"
)

// ErrNoIdentity is returned by mutations on a session without a signed-in user.
var ErrNoIdentity = errors.New("tracker: no signed-in identity")

// ValidationError rejects input before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError reports a rejected store read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
