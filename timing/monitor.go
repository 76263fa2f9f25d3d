// Package timing provides call-gap diagnostics for the audio write path.
//
// A Monitor compares the gap between successive calls on a tag against the
// playback duration of the bytes handed over, and warns when the caller has
// fallen behind real time. It is purely observational and never influences
// stream state.
package timing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// slack is added to the expected gap before a warning fires, absorbing
// ordinary scheduling jitter.
const slack = 10 * time.Millisecond

// Monitor tracks the monotonic timestamp of the previous call per tag.
// Each stream owns its own Monitor; there is no shared state between
// streams.
type Monitor struct {
	mu          sync.Mutex
	bytesPerSec int
	prev        map[string]time.Time
	now         func() time.Time
}

// NewMonitor creates a Monitor for a stream transmitting bytesPerSecond of
// payload at real-time rate.
func NewMonitor(bytesPerSecond int) *Monitor {
	return &Monitor{
		bytesPerSec: bytesPerSecond,
		prev:        make(map[string]time.Time),
		now:         time.Now,
	}
}

// Check records a call on tag carrying byteCount payload bytes and warns if
// the gap since the previous call on the same tag exceeds the payload's
// playback duration plus slack.
func (m *Monitor) Check(tag string, byteCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	last, seen := m.prev[tag]
	m.prev[tag] = now

	if !seen {
		return
	}

	elapsed := now.Sub(last)
	expected := m.expected(byteCount)
	if elapsed > expected+slack {
		logrus.WithFields(logrus.Fields{
			"function": "Check",
			"tag":      tag,
			"elapsed":  elapsed,
			"expected": expected,
			"bytes":    byteCount,
		}).Warn("call gap exceeds playback duration")
	}
}

// expected is the playback duration of byteCount payload bytes.
func (m *Monitor) expected(byteCount int) time.Duration {
	if m.bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(byteCount) * time.Second / time.Duration(m.bytesPerSec)
}
