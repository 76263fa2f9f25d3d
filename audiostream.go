package btaudio

import "github.com/opd-ai/btaudio/stream"

// AudioStream is the surface common to the device's streams, the fixed
// capability table the host framework drives. Both stream types implement
// it; no further implementations are expected.
type AudioStream interface {
	SampleRate() uint32
	BufferSize() int
	Channels() stream.ChannelMask
	Format() stream.Format
	Standby() error
	SetParameters(params map[string]string) error
	Close() error
}

var (
	_ AudioStream = (*stream.OutputStream)(nil)
	_ AudioStream = (*InputStream)(nil)
)
