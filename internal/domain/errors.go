package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by a service wraps exactly one of these,
// and handlers map them to HTTP statuses with errors.Is.
var (
	// ErrUnauthenticated means the request carried no verified caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidArgument means the input is missing a field or has a bad value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPermissionDenied means the caller is known but not allowed to act
	// (wrong role, other tenant, or no profile).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned by repo and service functions when the requested
	// resource does not exist in the database.
	ErrNotFound = errors.New("not found")

	// ErrFailedPrecondition means the request is well formed and authorized but
	// the system state forbids it (e.g. the driver is on leave that day).
	ErrFailedPrecondition = errors.New("failed precondition")

	// ErrUnknown wraps anything that does not match one of the kinds above.
	ErrUnknown = errors.New("unknown")
)

// Error pairs an error kind with the human-readable message shown to the caller.
type Error struct {
	Kind    error
	Message string
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap lets errors.Is match the kind sentinel.
func (e *Error) Unwrap() error {
	return e.Kind
}

// KindOf returns the sentinel kind carried by err, or ErrUnknown.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrUnauthenticated,
		ErrInvalidArgument,
		ErrPermissionDenied,
		ErrNotFound,
		ErrFailedPrecondition,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUnknown
}

// MessageOf returns the caller-facing message for err. For a *Error it is the
// Message field; for anything else it is the text of the innermost wrapped
// error, so operation prefixes added by fmt.Errorf("op: %w") stay internal.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return rootCause(err).Error()
}

func rootCause(err error) error {
	for {
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			next := u.Unwrap()
			if next == nil {
				return err
			}
			err = next
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			if len(errs) == 0 {
				return err
			}
			err = errs[0]
		default:
			return err
		}
	}
}
