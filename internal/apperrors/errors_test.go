package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	plain := New("X", "boom", ClassInternal)
	assert.Equal(t, "boom", plain.Error())

	wrapped := Wrap(ErrNoActiveWorld, "cell_get requires a world", errors.New("nil world"))
	assert.Equal(t, "cell_get requires a world: nil world", wrapped.Error())
	assert.Equal(t, ClassState, wrapped.Class)
	assert.Equal(t, ErrNoActiveWorld.Code, wrapped.Code)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(ErrInternal, "failed", cause)

	assert.ErrorIs(t, wrapped, cause)
}

func TestNewArgumentAndState(t *testing.T) {
	argErr := NewArgument("x=%d out of bounds", 99)
	assert.Equal(t, ClassArgument, argErr.Class)
	assert.Contains(t, argErr.Message, "99")

	stateErr := NewState("cannot pause: %s", "not running")
	assert.Equal(t, ClassState, stateErr.Class)
	assert.Contains(t, stateErr.Message, "not running")
}
