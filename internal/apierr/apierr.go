// Package apierr defines the error taxonomy shared by every layer of the
// oracle: the Metadata Store, the Snapshot Store, the Event Lifecycle
// Engine, and the HTTP surface that exposes them.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is a closed tagged variant identifying the class of failure.
type Kind int

const (
	// InvalidInput marks a caller error: a bad event spec, malformed
	// predictions, a signing date already in the past.
	InvalidInput Kind = iota
	// NotFound marks a missing event, entry, or snapshot file.
	NotFound
	// Conflict marks a duplicate upload, an entry submitted past its
	// cutoff, or (though sign() itself treats this as success) a
	// redundant sign request.
	Conflict
	// DataUnavailable marks a signing attempt made before all required
	// observations have arrived.
	DataUnavailable
	// Transient marks a retryable failure: a busy store, a network
	// error reaching a feed or the upload endpoint.
	Transient
	// Fatal marks an unrecoverable failure: a corrupt snapshot, key
	// material that can't be read.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case DataUnavailable:
		return "data_unavailable"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with a human-readable message and an optional
// wrapped cause, so callers can both branch on Kind and propagate the
// underlying error through the normal %w machinery.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WrapKind assigns a kind to an arbitrary error without discarding it,
// unless it is already a tagged *Error, in which case it passes through.
func WrapKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Kind: kind, Message: err.Error(), Cause: err}
}

// KindOf extracts the Kind from err, defaulting to Fatal for untagged
// errors so that an un-classified failure never silently maps to 200/400.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return Fatal
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
