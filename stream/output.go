package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/btaudio/protocol"
	"github.com/opd-ai/btaudio/timing"
)

// ControlLink is the control-channel surface the stream drives. It is
// satisfied by *protocol.Client; tests substitute scripted fakes.
type ControlLink interface {
	// Exchange performs one command/acknowledgement round trip.
	Exchange(cmd protocol.Command) error

	// Connected reports whether the channel is still usable.
	Connected() bool

	// Close disconnects the channel.
	Close() error
}

// DataLink is a payload connection for one activation cycle. It is
// satisfied by *transport.DataConn.
type DataLink interface {
	// Write sends payload within a bounded window; (0, nil) means the sink
	// stalled and the caller should retry.
	Write(p []byte) (int, error)

	// Close disconnects the payload socket.
	Close() error
}

// DataDialer opens a fresh payload connection. Called on each successful
// activation; the previous connection is torn down on stop, suspend, or
// transmit error.
type DataDialer func() (DataLink, error)

// OutputStream bridges the host's render path to the remote audio sink.
//
// One mutex guards the whole stream object. The render thread (Write,
// Standby) and the parameter thread (SetParameters, Suspend, Close)
// serialize on it; internal transition helpers carry the Locked suffix and
// require the mutex held, so no operation ever re-acquires the lock. Only
// the blocking payload send runs outside the lock, keeping a stalled sink
// from wedging lifecycle calls.
type OutputStream struct {
	mu    sync.Mutex
	ctrl  ControlLink
	dial  DataDialer
	data  DataLink // nil while the data path is down
	cfg   Config
	state State
	diag  *timing.Monitor
	dump  io.Writer
}

// NewOutputStream creates a stream over an established control link. The
// stream starts in StateStopped with the data path down; the first write
// performs the start handshake.
func NewOutputStream(ctrl ControlLink, dial DataDialer) *OutputStream {
	cfg := DefaultConfig()
	return &OutputStream{
		ctrl:  ctrl,
		dial:  dial,
		cfg:   cfg,
		state: StateStopped,
		diag:  timing.NewMonitor(cfg.BytesPerSecond()),
	}
}

// State returns the current lifecycle state.
func (s *OutputStream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start activates the audio data path: the START handshake with the remote
// stack, then a fresh payload connection. On any failure the state reverts
// to what it was before the call.
func (s *OutputStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *OutputStream) startLocked() error {
	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"state":    s.state.String(),
	}).Info("starting audio data path")

	if !s.ctrl.Connected() {
		return ErrNotConnected
	}

	prior := s.state
	s.state = StateStarting

	if err := s.ctrl.Exchange(protocol.CmdStart); err != nil {
		s.state = prior
		logrus.WithFields(logrus.Fields{
			"function": "Start",
			"state":    prior.String(),
			"error":    err,
		}).Error("audio path start refused")
		return err
	}

	if s.data == nil {
		link, err := s.dial()
		if err != nil {
			s.state = prior
			logrus.WithFields(logrus.Fields{
				"function": "Start",
				"error":    err,
			}).Error("data path connect failed")
			return fmt.Errorf("connect data path: %w", err)
		}
		s.data = link
	}

	s.state = StateStarted
	return nil
}

// Stop deactivates the audio data path. While the STOP handshake is in
// flight the state is StateStopping, which fences stray autostart attempts
// from the render thread. Stop is refused when a stop is already in
// progress.
func (s *OutputStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.Connected() {
		return ErrNotConnected
	}
	if s.state == StateStopping {
		return ErrInvalidState
	}
	return s.stopLocked()
}

func (s *OutputStream) stopLocked() error {
	logrus.WithFields(logrus.Fields{
		"function": "Stop",
		"state":    s.state.String(),
	}).Info("stopping audio data path")

	prior := s.state
	s.state = StateStopping

	if err := s.ctrl.Exchange(protocol.CmdStop); err != nil {
		s.state = prior
		logrus.WithFields(logrus.Fields{
			"function": "Stop",
			"state":    prior.String(),
			"error":    err,
		}).Error("audio path stop refused")
		return err
	}

	s.state = StateStopped
	s.disconnectDataLocked()
	return nil
}

// Suspend pauses the audio data path. With standby true the stream parks in
// StateStandby and the next write silently re-activates it; with standby
// false it parks in StateSuspended and writes are rejected until an
// explicit resume. Refused while a stop is in progress. On handshake
// failure the state is left untouched.
func (s *OutputStream) Suspend(standby bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.Connected() {
		return ErrNotConnected
	}
	if s.state == StateStopping {
		return ErrInvalidState
	}
	return s.suspendLocked(standby)
}

func (s *OutputStream) suspendLocked(standby bool) error {
	logrus.WithFields(logrus.Fields{
		"function": "Suspend",
		"state":    s.state.String(),
		"standby":  standby,
	}).Info("suspending audio data path")

	if !s.ctrl.Connected() {
		return ErrNotConnected
	}

	if err := s.ctrl.Exchange(protocol.CmdSuspend); err != nil {
		return err
	}

	if standby {
		s.state = StateStandby
	} else {
		s.state = StateSuspended
	}
	s.disconnectDataLocked()
	return nil
}

// Resync reconciles local state with the remote side. A peer-initiated
// start can leave the remote streaming while the local state never saw a
// Start; in that case the stream forces a suspend so both sides agree
// again. A remote report of "not streaming" means local state is already
// consistent.
func (s *OutputStream) Resync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.Connected() {
		return ErrNotConnected
	}
	return s.resyncLocked()
}

func (s *OutputStream) resyncLocked() error {
	err := s.ctrl.Exchange(protocol.CmdCheckStreamStarted)
	switch {
	case err == nil:
		if s.state == StateStarted {
			return nil
		}
		logrus.WithFields(logrus.Fields{
			"function": "Resync",
			"state":    s.state.String(),
		}).Info("remote side started independently, forcing suspend")
		return s.suspendLocked(false)
	case errors.Is(err, protocol.ErrTransientBusy), errors.Is(err, protocol.ErrRemoteFailure):
		// Remote not streaming; nothing to reconcile.
		return nil
	default:
		return err
	}
}

// Standby parks the stream so the next write re-activates the data path.
// A suspended stream is left alone: leaving StateSuspended takes an
// explicit resume signal, not a standby request.
func (s *OutputStream) Standby() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Standby",
		"state":    s.state.String(),
	}).Info("standby requested")

	if s.state == StateSuspended {
		return nil
	}
	if !s.ctrl.Connected() {
		return ErrNotConnected
	}
	if s.state == StateStopping {
		return ErrInvalidState
	}
	return s.suspendLocked(true)
}

// Write hands payload to the data channel, autostarting the stream from
// StateStopped or StateStandby. It returns the number of bytes the channel
// accepted, which may be less than len(p); callers retry the remainder.
//
// When autostart fails, Write blocks for the playback duration the payload
// represents before returning, so a render loop retrying at full speed
// keeps pace with the wall clock instead of spinning while the sink is
// unreachable.
func (s *OutputStream) Write(p []byte) (int, error) {
	logrus.WithFields(logrus.Fields{
		"function": "Write",
		"bytes":    len(p),
	}).Debug("stream write")

	s.mu.Lock()

	if s.state == StateSuspended {
		s.mu.Unlock()
		return 0, ErrSuspended
	}

	// Autostart only from stopped or standby.
	if s.state == StateStopped || s.state == StateStandby {
		if err := s.startLocked(); err != nil {
			delay := s.cfg.PayloadDuration(len(p))
			s.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"function": "Write",
				"delay":    delay,
				"error":    err,
			}).Error("autostart failed, pacing write")
			time.Sleep(delay)
			return 0, err
		}
	} else if s.state != StateStarted {
		s.mu.Unlock()
		return 0, ErrInvalidState
	}

	if s.dump != nil {
		if _, err := s.dump.Write(p); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Write",
				"error":    err,
			}).Warn("sample dump write failed")
		}
	}
	s.diag.Check("output_write", len(p))

	link := s.data
	s.mu.Unlock()

	if link == nil {
		return 0, ErrInvalidState
	}

	// The blocking send runs outside the lock so a stalled sink cannot
	// block lifecycle and parameter calls.
	sent, err := link.Write(p)
	if err != nil {
		s.mu.Lock()
		s.disconnectDataLocked()
		if s.state != StateSuspended {
			s.state = StateStopped
		} else {
			logrus.WithFields(logrus.Fields{
				"function": "Write",
			}).Warn("transmit failed while suspended, keeping state")
		}
		s.mu.Unlock()
		return sent, err
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Write",
		"sent":      sent,
		"requested": len(p),
	}).Debug("stream write done")

	return sent, nil
}

// Close tears the stream down: an implicit stop when the data path is still
// active, then the control connection. The stream is unusable afterwards.
func (s *OutputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"state":    s.state.String(),
	}).Info("closing output stream")

	if s.state == StateStarted || s.state == StateStopping {
		if err := s.stopLocked(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Close",
				"error":    err,
			}).Warn("stop during close failed")
		}
	}
	s.disconnectDataLocked()
	return s.ctrl.Close()
}

// disconnectDataLocked drops the payload connection. Callers must hold s.mu.
func (s *OutputStream) disconnectDataLocked() {
	if s.data == nil {
		return
	}
	if err := s.data.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "disconnectData",
			"error":    err,
		}).Warn("data path close failed")
	}
	s.data = nil
}
