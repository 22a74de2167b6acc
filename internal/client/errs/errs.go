// Package errs defines the error kinds surfaced by the client. Failures
// are wrapped as fmt.Errorf("%w: %w", kind, cause) so callers can match
// both the kind and the underlying cause with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed reports a failed sign-in.
	ErrAuthFailed = errors.New("sign-in failed")
	// ErrCredentialFetchFailed reports a failed feed or chat credential exchange.
	ErrCredentialFetchFailed = errors.New("credential fetch failed")
	// ErrListUsersFailed reports a failed people list fetch.
	ErrListUsersFailed = errors.New("list users failed")
	// ErrSessionNotReady is returned by feed operations issued before the
	// feed session is established.
	ErrSessionNotReady = errors.New("session not ready")
	// ErrFeedOperationFailed covers fetch, post and follow failures.
	ErrFeedOperationFailed = errors.New("feed operation failed")
	// ErrMalformedResponse reports a response body that could not be parsed
	// or lacks a required field.
	ErrMalformedResponse = errors.New("malformed response")
)

// UnknownMessage is shown when a failure carries no message.
const UnknownMessage = "unknown error"

// Wrap tags cause with kind. A nil cause yields kind itself and a cause
// already tagged with kind is returned unchanged.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Message returns the text to present to the user for err.
func Message(err error) string {
	if err == nil {
		return UnknownMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownMessage
}
