package tapin

import "errors"

var (
	// ErrNotStarted is returned when a session is driven before Start.
	ErrNotStarted = errors.New("tapin: session not started")

	// ErrInvalidState indicates a transition to a state that has no command.
	ErrInvalidState = errors.New("tapin: invalid state")

	// ErrRetryLimitExceeded indicates that the configured retry limit was
	// reached without a matching reply.
	ErrRetryLimitExceeded = errors.New("tapin: retry limit exceeded")

	// ErrWriterNil indicates that a session was created without a writer.
	ErrWriterNil = errors.New("tapin: writer is nil")

	// ErrConfigNil indicates that a nil SessionConfig was provided.
	ErrConfigNil = errors.New("tapin: session config is nil")
)
