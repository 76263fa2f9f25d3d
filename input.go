package btaudio

import "github.com/opd-ai/btaudio/stream"

// InputStream is the no-op capture stub. The A2DP direction is output-only,
// but the host framework expects an input surface to exist; reads produce
// silence and every control call succeeds without side effects.
type InputStream struct{}

// SampleRate returns the fixed capture rate in Hz.
func (in *InputStream) SampleRate() uint32 { return 8000 }

// BufferSize returns the fixed capture buffer size in bytes.
func (in *InputStream) BufferSize() int { return 320 }

// Channels returns the fixed mono capture mask.
func (in *InputStream) Channels() stream.ChannelMask { return stream.ChannelMaskMono }

// Format returns the fixed capture sample format.
func (in *InputStream) Format() stream.Format { return stream.FormatS16LE }

// Read fills p with silence and reports it fully read.
func (in *InputStream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// Standby is a no-op.
func (in *InputStream) Standby() error { return nil }

// SetParameters is a no-op.
func (in *InputStream) SetParameters(map[string]string) error { return nil }

// Close is a no-op.
func (in *InputStream) Close() error { return nil }
