// Package apperr defines the error taxonomy shared by the update sources,
// the snapshot manager, and the install launcher.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindCommandFailed means an external tool exited non-zero for a
	// non-benign reason.
	KindCommandFailed Kind = iota + 1
	// KindIOFailure covers filesystem and serialization problems.
	KindIOFailure
	// KindSyncFailed is reserved for package database sync failures.
	KindSyncFailed
)

func (k Kind) String() string {
	switch k {
	case KindCommandFailed:
		return "Command failed"
	case KindIOFailure:
		return "IO error"
	case KindSyncFailed:
		return "Sync failed"
	default:
		return "Unknown error"
	}
}

// Error is a classified failure carrying the raw diagnostic text that must
// be shown to the user.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// CommandFailed builds a KindCommandFailed error.
func CommandFailed(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCommandFailed, Detail: fmt.Sprintf(format, args...)}
}

// IOFailure wraps err as a KindIOFailure error.
func IOFailure(err error, format string, args ...interface{}) *Error {
	detail := fmt.Sprintf(format, args...)
	if err != nil {
		detail = fmt.Sprintf("%s: %v", detail, err)
	}
	return &Error{Kind: KindIOFailure, Detail: detail, Err: err}
}

// SyncFailed builds a KindSyncFailed error.
func SyncFailed(format string, args ...interface{}) *Error {
	return &Error{Kind: KindSyncFailed, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a start failure (program missing, fork error) to a
// KindCommandFailed error.
func Wrap(err error, format string, args ...interface{}) *Error {
	detail := fmt.Sprintf(format, args...)
	return &Error{Kind: KindCommandFailed, Detail: fmt.Sprintf("%s: %v", detail, err), Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
