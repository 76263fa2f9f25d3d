package stream

import "errors"

// Sentinel errors for stream package operations.
// These errors enable reliable error classification using errors.Is().

var (
	// ErrNotConnected indicates the control channel is gone. The stream
	// cannot recover; it must be closed and reopened.
	ErrNotConnected = errors.New("stream control channel not connected")

	// ErrSuspended indicates a write arrived while the stream is suspended
	// and waiting for an explicit resume.
	ErrSuspended = errors.New("stream suspended")

	// ErrInvalidState indicates the operation is not permitted in the
	// stream's current lifecycle state.
	ErrInvalidState = errors.New("operation invalid in current stream state")

	// ErrUnsupportedConfig indicates a setter was asked for anything other
	// than the single supported stream configuration.
	ErrUnsupportedConfig = errors.New("unsupported stream configuration")
)
