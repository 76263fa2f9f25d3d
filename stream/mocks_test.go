package stream

import (
	"sync"

	"github.com/opd-ai/btaudio/protocol"
)

// fakeControl is a scripted ControlLink. Replies are queued per command;
// an empty queue yields defaultErr (nil means SUCCESS).
type fakeControl struct {
	mu         sync.Mutex
	closed     bool
	replies    map[protocol.Command][]error
	calls      []protocol.Command
	defaultErr error
}

func newFakeControl() *fakeControl {
	return &fakeControl{replies: make(map[protocol.Command][]error)}
}

func (f *fakeControl) reply(cmd protocol.Command, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[cmd] = append(f.replies[cmd], errs...)
}

func (f *fakeControl) Exchange(cmd protocol.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return protocol.ErrNotConnected
	}
	f.calls = append(f.calls, cmd)
	queue := f.replies[cmd]
	if len(queue) == 0 {
		return f.defaultErr
	}
	err := queue[0]
	f.replies[cmd] = queue[1:]
	return err
}

func (f *fakeControl) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeControl) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeControl) commandCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeControl) sent(cmd protocol.Command) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == cmd {
			n++
		}
	}
	return n
}

// fakeLink is a recording DataLink.
type fakeLink struct {
	mu          sync.Mutex
	writes      [][]byte
	closed      bool
	writeErr    error
	beforeWrite func()
}

func (l *fakeLink) Write(p []byte) (int, error) {
	if l.beforeWrite != nil {
		l.beforeWrite()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return 0, l.writeErr
	}
	l.writes = append(l.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLink) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// fakeDialer hands out fakeLinks and counts activation cycles.
type fakeDialer struct {
	mu    sync.Mutex
	links []*fakeLink
	err   error
}

func (d *fakeDialer) dial() (DataLink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	l := &fakeLink{}
	d.links = append(d.links, l)
	return l, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.links)
}

func (d *fakeDialer) last() *fakeLink {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.links) == 0 {
		return nil
	}
	return d.links[len(d.links)-1]
}

func newTestStream() (*OutputStream, *fakeControl, *fakeDialer) {
	ctrl := newFakeControl()
	dialer := &fakeDialer{}
	return NewOutputStream(ctrl, dialer.dial), ctrl, dialer
}
