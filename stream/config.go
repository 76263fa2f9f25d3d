package stream

import (
	"math/bits"
	"time"
)

// Format is the PCM sample representation carried on the data channel.
type Format uint8

// FormatS16LE is interleaved signed 16-bit little-endian PCM, the only
// representation the data channel carries.
const FormatS16LE Format = 0

// bytesPerSample is the width of one FormatS16LE sample.
const bytesPerSample = 2

// ChannelMask identifies the speaker positions carried in each frame.
type ChannelMask uint32

const (
	// ChannelMaskMono is a single front channel.
	ChannelMaskMono ChannelMask = 0x1
	// ChannelMaskStereo is front-left plus front-right.
	ChannelMaskStereo ChannelMask = 0x3
)

// Count returns the number of channels in the mask.
func (m ChannelMask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// Stream defaults. The remote stack negotiates exactly one configuration;
// setters reject every other value rather than coercing it.
const (
	DefaultSampleRate  = 44100
	DefaultChannelMask = ChannelMaskStereo
	DefaultFormat      = FormatS16LE
	// DefaultBufferSize caps the data socket's kernel send buffer, which
	// doubles as the stream's flow-control window.
	DefaultBufferSize = 20 * 512
)

// Config is the fixed configuration of an output stream.
type Config struct {
	SampleRate  uint32
	ChannelMask ChannelMask
	Format      Format
	// BufferSize is the data-channel send buffer capacity in bytes.
	BufferSize int
}

// DefaultConfig returns the single supported output configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:  DefaultSampleRate,
		ChannelMask: DefaultChannelMask,
		Format:      DefaultFormat,
		BufferSize:  DefaultBufferSize,
	}
}

// FrameSize returns the byte width of one interleaved sample frame.
func (c Config) FrameSize() int {
	return c.ChannelMask.Count() * bytesPerSample
}

// BytesPerSecond returns the payload rate of real-time playback.
func (c Config) BytesPerSecond() int {
	return int(c.SampleRate) * c.FrameSize()
}

// PayloadDuration returns the playback time byteCount payload bytes
// represent at the configured rate.
func (c Config) PayloadDuration(byteCount int) time.Duration {
	bps := c.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(byteCount) * time.Second / time.Duration(bps)
}
