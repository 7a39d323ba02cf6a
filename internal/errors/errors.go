package errors

import (
	"errors"
	"fmt"
)

// Common error types for the punch server
var (
	// Lock errors. Busy is transient: the caller should retry, or tell the
	// member to retry. It is never a user mistake.
	ErrBusy = errors.New("system busy")

	// Session lifecycle errors. These are expected business outcomes, returned
	// as typed results to the dispatcher rather than logged as failures.
	ErrAlreadyActive   = errors.New("break already active")
	ErrNoActiveSession = errors.New("no active break")
	ErrUnknownBreak    = errors.New("unknown break code")

	// Store errors
	ErrStoreUnavailable = errors.New("punch log store unavailable")
	ErrDataCorruption   = errors.New("registry entry failed integrity check")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
