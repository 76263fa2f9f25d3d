package transport

import "errors"

// ErrTransmit indicates a hard send failure on the payload socket. The
// connection is unusable once this is returned.
var ErrTransmit = errors.New("payload transmit failed")
