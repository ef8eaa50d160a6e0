// Package apperr defines the error taxonomy shared by the upload pipeline,
// the claim lifecycle and the event reconciler. Handlers map kinds to HTTP
// statuses; services decide retryability from them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the remedy it implies for the caller.
type Kind int

const (
	// KindValidation — the input itself is wrong (bad profile, bad
	// dimensions). The user must change the input; never retryable as-is.
	KindValidation Kind = iota + 1
	// KindAuthorization — claim/user mismatch, expired claim, or a claim in
	// a non-uploadable state. Requires a new claim.
	KindAuthorization
	// KindQuotaExceeded — upload rate limit hit. Retryable after the window
	// frees up.
	KindQuotaExceeded
	// KindPolicyRejection — moderation flagged the content. Retryable with
	// different content.
	KindPolicyRejection
	// KindNotFound — the referenced claim or asset does not exist.
	KindNotFound
	// KindInfrastructure — blob store, classifier or database failure.
	// Retryable.
	KindInfrastructure
	// KindUnrecoverableEvent — a malformed event envelope. Goes straight to
	// the dead-letter channel, never retried in-process.
	KindUnrecoverableEvent
)

// Error is a kind-tagged error. It wraps an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a kind-tagged error with the given message.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or 0 if err carries no kind. Errors without
// a kind are treated as infrastructure failures by callers.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
