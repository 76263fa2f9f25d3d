package btaudio

import "errors"

var (
	// ErrControlUnavailable indicates the control channel could not be
	// connected and validated within the retry budget. No stream handle
	// exists when this is returned.
	ErrControlUnavailable = errors.New("control channel unavailable after retries")

	// ErrOutputOpen indicates an output stream is already open on this
	// device.
	ErrOutputOpen = errors.New("output stream already open")
)
