package domain

import "errors"

// Error taxonomy shared by the pipeline, the engine and the adapters. Callers
// classify failures with errors.Is; wrapping sites add context with %w.
var (
	// ErrInvalidArgument flags a nil or empty required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedPayload flags an inbound message whose body could not be
	// parsed or is missing required fields. The message is dropped and the
	// pipeline keeps running.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrNotFound flags a referenced test, device or report that does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict flags a device already claimed by another active test.
	ErrConflict = errors.New("device claimed by another test")

	// ErrTimeout flags a bounded wait for sensor completion that expired.
	ErrTimeout = errors.New("wait for completion timed out")
)
