package protocol

import "errors"

// Sentinel errors for protocol package operations.
// These errors enable reliable error classification using errors.Is().

var (
	// ErrConnectFailed indicates the control socket could not be connected.
	ErrConnectFailed = errors.New("control channel connect failed")

	// ErrNotConnected indicates the control channel has been disconnected.
	ErrNotConnected = errors.New("control channel not connected")

	// ErrProtocol indicates the command/acknowledgement exchange broke down.
	// The channel is disconnected when this is returned.
	ErrProtocol = errors.New("control protocol failure")

	// ErrTransientBusy indicates the remote side reported an in-call busy
	// condition. Callers must not change stream state on this outcome.
	ErrTransientBusy = errors.New("remote side busy with call")

	// ErrRemoteFailure indicates the remote side refused the command.
	ErrRemoteFailure = errors.New("remote side refused command")
)
