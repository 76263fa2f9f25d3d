package transport

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// sendWindow bounds how long a payload write may wait for socket buffer
// space before giving up for this round.
const sendWindow = 500 * time.Millisecond

// DataConn is the bulk payload connection to the remote sink.
//
// Write waits for buffer space for at most the send window. A window that
// expires with nothing accepted yields (0, nil) rather than an error: the
// sink is merely slow, and the caller is expected to retry the payload.
// Only a hard socket failure returns an error (wrapping ErrTransmit), at
// which point the connection must be discarded.
type DataConn struct {
	conn   net.Conn
	window time.Duration
}

// NewDataConn wraps an established payload connection.
func NewDataConn(conn net.Conn) *DataConn {
	return &DataConn{conn: conn, window: sendWindow}
}

// DialData connects the payload socket at path with a best-effort send
// buffer of sndBufBytes.
func DialData(path string, sndBufBytes int) (*DataConn, error) {
	conn, err := Dial(path, sndBufBytes)
	if err != nil {
		return nil, err
	}
	return NewDataConn(conn), nil
}

// Write sends p within the bounded send window and returns the number of
// bytes the socket accepted. Partial writes are not errors; callers retry
// the remainder.
func (d *DataConn) Write(p []byte) (int, error) {
	if err := d.conn.SetWriteDeadline(time.Now().Add(d.window)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransmit, err)
	}

	n, err := d.conn.Write(p)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			logrus.WithFields(logrus.Fields{
				"function": "Write",
				"accepted": n,
				"window":   d.window,
			}).Debug("send window expired")
			return n, nil
		}
		return n, fmt.Errorf("%w: %v", ErrTransmit, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Write",
		"bytes":    n,
	}).Debug("payload sent")

	return n, nil
}

// Close disconnects the payload socket. Safe to call repeatedly.
func (d *DataConn) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
