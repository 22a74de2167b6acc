package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrAuthFailed, cause)

	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sign-in failed: connection refused", err.Error())

	assert.Same(t, ErrSessionNotReady, Wrap(ErrSessionNotReady, nil))
	assert.Same(t, err, Wrap(ErrAuthFailed, err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, UnknownMessage, Message(nil))
	assert.Equal(t, UnknownMessage, Message(emptyError{}))
	assert.Equal(t, "list users failed", Message(ErrListUsersFailed))
}
