// Package transport provides the local-socket plumbing shared by the control
// and data channels: connection establishment with send-buffer sizing, and a
// payload connection with a bounded send window.
package transport

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Dial opens a local stream-socket connection to the endpoint at path.
// Abstract-namespace endpoints use the "@" prefix.
//
// When sndBufBytes is positive the socket send buffer is sized to it so the
// kernel buffer acts as the stream's flow-control window. Sizing is
// best-effort: a failure is logged, never fatal.
func Dial(path string, sndBufBytes int) (net.Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	if sndBufBytes > 0 {
		setSendBuffer(conn, path, sndBufBytes)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Dial",
		"path":        path,
		"send_buffer": sndBufBytes,
	}).Info("connected to stack")

	return conn, nil
}

// setSendBuffer applies SO_SNDBUF to the connection's socket.
func setSendBuffer(conn net.Conn, path string, size int) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return
	}

	raw, err := uc.SyscallConn()
	if err == nil {
		var sockErr error
		err = raw.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size)
		})
		if err == nil {
			err = sockErr
		}
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "setSendBuffer",
			"path":     path,
			"size":     size,
			"error":    err,
		}).Warn("send buffer sizing failed")
	}
}
