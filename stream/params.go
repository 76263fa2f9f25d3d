package stream

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/btaudio/protocol"
)

// ParamClosing is the parameter key the host sets while tearing the stream
// down ("true") and clears when streaming may resume ("false").
const ParamClosing = "closing"

// latencyOffset is the fixed transport latency added on top of the buffer
// depth, matching what the remote stack introduces end to end.
const latencyOffset = 200 * time.Millisecond

// SetParameters applies host key/value parameters. Unknown keys are
// ignored.
//
// closing=true fences the stream: it enters StateStopping so no write can
// autostart, then suspends the remote side. When the local state never saw
// a start, the remote is queried first, because a peer-initiated start can
// leave the two sides out of sync. closing=false re-arms autostart: a
// suspended stream moves to StateStandby and the next write performs the
// start handshake; streaming is never resumed here directly.
func (s *OutputStream) SetParameters(params map[string]string) error {
	logrus.WithFields(logrus.Fields{
		"function": "SetParameters",
		"params":   params,
	}).Info("stream parameters")

	val, ok := params[ParamClosing]
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setClosingLocked(val == "true")
}

func (s *OutputStream) setClosingLocked(closing bool) error {
	if !closing {
		if s.state == StateSuspended {
			s.state = StateStandby
		}
		return nil
	}

	if !s.ctrl.Connected() {
		return ErrNotConnected
	}

	logrus.WithFields(logrus.Fields{
		"function": "SetParameters",
		"state":    s.state.String(),
	}).Info("stream closing, fencing writes")

	prior := s.state
	s.state = StateStopping

	if prior == StateStarted {
		return s.suspendLocked(false)
	}

	err := s.ctrl.Exchange(protocol.CmdCheckStreamStarted)
	switch {
	case err == nil:
		// Remote started without a local Start; suspend to reconverge.
		return s.suspendLocked(false)
	case errors.Is(err, protocol.ErrTransientBusy), errors.Is(err, protocol.ErrRemoteFailure):
		s.state = StateSuspended
		return nil
	default:
		return err
	}
}

// SampleRate returns the configured sample rate in Hz.
func (s *OutputStream) SampleRate() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.SampleRate
}

// SetSampleRate accepts only the single supported rate.
func (s *OutputStream) SetSampleRate(rate uint32) error {
	if rate != DefaultSampleRate {
		return fmt.Errorf("%w: rate %d, only %d supported", ErrUnsupportedConfig, rate, DefaultSampleRate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SampleRate = rate
	return nil
}

// Channels returns the configured channel mask.
func (s *OutputStream) Channels() ChannelMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ChannelMask
}

// SetChannels accepts only the single supported channel mask.
func (s *OutputStream) SetChannels(mask ChannelMask) error {
	if mask != DefaultChannelMask {
		return fmt.Errorf("%w: channel mask %#x, only %#x supported", ErrUnsupportedConfig, uint32(mask), uint32(DefaultChannelMask))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ChannelMask = mask
	return nil
}

// Format returns the configured sample format.
func (s *OutputStream) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Format
}

// SetFormat accepts only the single supported sample format.
func (s *OutputStream) SetFormat(f Format) error {
	if f != DefaultFormat {
		return fmt.Errorf("%w: format %d, only %d supported", ErrUnsupportedConfig, f, DefaultFormat)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Format = f
	return nil
}

// BufferSize returns the data-channel buffer capacity in bytes.
func (s *OutputStream) BufferSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.BufferSize
}

// Latency returns the playback latency of one full buffer plus the fixed
// transport offset.
func (s *OutputStream) Latency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := s.cfg.BufferSize / s.cfg.FrameSize()
	return time.Duration(frames)*time.Second/time.Duration(s.cfg.SampleRate) + latencyOffset
}

// Config returns a copy of the stream configuration.
func (s *OutputStream) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetSampleDump directs a copy of every accepted payload to w. Pass nil to
// stop dumping. Dump failures are logged and never affect the write path.
func (s *OutputStream) SetSampleDump(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dump = w
}
