package protocol

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/btaudio/transport"
)

// Client is a control-channel client. It owns a single connection to the
// remote stack's control endpoint and serializes command exchanges so the
// half-duplex protocol invariant holds even with concurrent callers.
//
// A Client is connected once and never reconnects: any exchange failure
// marks it disconnected and every later exchange fails with ErrNotConnected.
// Callers that need a working control channel again must tear the stream
// down and open a new one.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to the control endpoint at path. The socket send buffer is
// sized to sndBufBytes on a best-effort basis. Returns a connected Client
// or an error wrapping ErrConnectFailed.
func Dial(path string, sndBufBytes int) (*Client, error) {
	conn, err := transport.Dial(path, sndBufBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection in a Client. Used by tests and by
// callers that establish the connection themselves.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Connected reports whether the control channel is still usable.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close disconnects the control channel. Safe to call repeatedly.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

// Exchange sends one command byte and waits for the single acknowledgement
// byte. The wait is retried exactly once if interrupted by a transient
// signal; any other receive failure, or a second interruption, disconnects
// the channel and returns an error wrapping ErrProtocol.
//
// A SUCCESS acknowledgement returns nil. INCALL_FAILURE returns
// ErrTransientBusy so callers can leave stream state untouched. Every other
// acknowledgement value returns an error wrapping ErrRemoteFailure; the
// channel stays connected in that case.
func (c *Client) Exchange(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	logrus.WithFields(logrus.Fields{
		"function": "Exchange",
		"command":  cmd.String(),
	}).Info("control command")

	if _, err := c.conn.Write([]byte{byte(cmd)}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Exchange",
			"command":  cmd.String(),
			"error":    err,
		}).Error("control command send failed")
		c.dropLocked()
		return fmt.Errorf("%w: send %s: %v", ErrProtocol, cmd, err)
	}

	ack, err := c.recvAck()
	if err != nil {
		if interrupted(err) {
			ack, err = c.recvAck()
		}
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Exchange",
			"command":  cmd.String(),
			"error":    err,
		}).Error("control acknowledgement failed")
		c.dropLocked()
		return fmt.Errorf("%w: ack for %s: %v", ErrProtocol, cmd, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Exchange",
		"command":  cmd.String(),
		"ack":      ack.String(),
	}).Info("control command done")

	switch ack {
	case AckSuccess:
		return nil
	case AckInCallFailure:
		return ErrTransientBusy
	default:
		return fmt.Errorf("%w: %s acknowledged %s", ErrRemoteFailure, cmd, ack)
	}
}

// recvAck reads exactly one acknowledgement byte.
func (c *Client) recvAck() (Ack, error) {
	var buf [1]byte
	if _, err := c.conn.Read(buf[:]); err != nil {
		return 0, err
	}
	return Ack(buf[0]), nil
}

// dropLocked disconnects the channel. Callers must hold c.mu.
func (c *Client) dropLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// interrupted reports whether err is a transient signal interruption of the
// acknowledgement wait. The Go runtime restarts most interrupted syscalls
// itself, but an EINTR can still surface from a wrapped connection.
func interrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}
