package session

import "errors"

var (
	// ErrInvalidArgument reports an absent or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState reports an operation that requires a successful Init.
	ErrInvalidState = errors.New("invalid state")

	// ErrResourceExhausted reports a collaborator that failed to be created
	// during Init. The session is rolled back to its uninitialized state
	// before this is returned.
	ErrResourceExhausted = errors.New("resource exhausted")
)
