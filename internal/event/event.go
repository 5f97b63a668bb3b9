// Package event defines the command/response envelopes exchanged between
// transport connections and the simulation state machine: every inbound
// command carries a one-shot Respond callback bound to the
// connection that sent it (the "command-with-callback" pattern), so a
// handler can never accidentally answer on the wrong connection. Handlers
// call Respond once; the callback itself does not guard against a second
// call.
package event

import "github.com/aortez/cellsim-server/internal/apperrors"

// Event is the marker interface implemented by every command and internal
// event processed by the state machine's queue.
type Event interface {
	Name() string
}

// Result carries either a success value or an AppError, keeping each
// command's response typed rather than funneling every reply through a
// single catch-all channel.
type Result[T any] struct {
	Ok  *T
	Err *apperrors.AppError
}

// OK constructs a successful Result.
func OK[T any](v T) Result[T] {
	return Result[T]{Ok: &v}
}

// Fail constructs a failed Result.
func Fail[T any](err *apperrors.AppError) Result[T] {
	return Result[T]{Err: err}
}
