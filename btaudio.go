// Package btaudio bridges a host audio-rendering pipeline to a remote
// Bluetooth A2DP stack across two local stream sockets: a control socket
// carrying a single-byte command/acknowledgement protocol and a data socket
// carrying raw PCM payload.
//
// Example:
//
//	dev, err := btaudio.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := dev.OpenOutputStream()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.CloseOutputStream()
//
//	// The first write performs the start handshake with the stack.
//	for _, chunk := range pcm {
//	    if _, err := out.Write(chunk); err != nil {
//	        break
//	    }
//	}
package btaudio

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/btaudio/protocol"
	"github.com/opd-ai/btaudio/stream"
	"github.com/opd-ai/btaudio/transport"
)

// Options contains configuration options for creating a Device.
type Options struct {
	// ControlSocketPath is the control endpoint. A leading "@" selects the
	// abstract socket namespace.
	ControlSocketPath string

	// DataSocketPath is the payload endpoint.
	DataSocketPath string

	// ConnectRetries bounds control connection attempts at stream open.
	ConnectRetries int

	// ConnectRetryDelay separates control connection attempts.
	ConnectRetryDelay time.Duration

	// SettleDelay is waited after a validated control connection so a
	// headset already mid-playback reaches a stable state before the
	// first START.
	SettleDelay time.Duration
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		ControlSocketPath: "@a2dp_ctrl",
		DataSocketPath:    "@a2dp_data",
		ConnectRetries:    3,
		ConnectRetryDelay: 250 * time.Millisecond,
		SettleDelay:       250 * time.Millisecond,
	}
}

// Device is the audio device surface the host framework drives. It owns at
// most one output stream and one input stub at a time.
type Device struct {
	mu      sync.Mutex
	options *Options
	output  *stream.OutputStream
	input   *InputStream
}

// New creates a Device with the given options. Passing nil selects the
// defaults from NewOptions.
func New(options *Options) (*Device, error) {
	if options == nil {
		options = NewOptions()
	}
	return &Device{options: options}, nil
}

// OpenOutputStream connects the control channel and returns the output
// stream. The control connection is attempted up to ConnectRetries times,
// each attempt validated with a CHECK_READY probe; exhausting the budget
// returns ErrControlUnavailable and no stream handle.
func (d *Device) OpenOutputStream() (*stream.OutputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.output != nil {
		return nil, ErrOutputOpen
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenOutputStream",
		"control":  d.options.ControlSocketPath,
		"data":     d.options.DataSocketPath,
	}).Info("opening output stream")

	cfg := stream.DefaultConfig()
	ctrl, err := d.connectControl(cfg.BufferSize)
	if err != nil {
		return nil, err
	}

	opts := d.options
	dial := func() (stream.DataLink, error) {
		return transport.DialData(opts.DataSocketPath, cfg.BufferSize)
	}

	d.output = stream.NewOutputStream(ctrl, dial)

	time.Sleep(opts.SettleDelay)

	logrus.WithFields(logrus.Fields{
		"function": "OpenOutputStream",
	}).Info("output stream open")

	return d.output, nil
}

// connectControl runs the bounded control connection retry loop.
func (d *Device) connectControl(sndBufBytes int) (*protocol.Client, error) {
	for attempt := 1; attempt <= d.options.ConnectRetries; attempt++ {
		client, err := protocol.Dial(d.options.ControlSocketPath, sndBufBytes)
		if err == nil {
			if client.Exchange(protocol.CmdCheckReady) == nil {
				return client, nil
			}
			logrus.WithFields(logrus.Fields{
				"function": "connectControl",
				"attempt":  attempt,
			}).Warn("stack not ready, retrying")
			client.Close()
		} else {
			logrus.WithFields(logrus.Fields{
				"function": "connectControl",
				"attempt":  attempt,
				"error":    err,
			}).Warn("control connect failed, retrying")
		}
		time.Sleep(d.options.ConnectRetryDelay)
	}
	return nil, ErrControlUnavailable
}

// CloseOutputStream closes the open output stream, stopping the data path
// first when it is still active. A device with no open output stream is a
// no-op.
func (d *Device) CloseOutputStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.output == nil {
		return nil
	}
	err := d.output.Close()
	d.output = nil
	return err
}

// SetParameters forwards host parameters to the open output stream.
func (d *Device) SetParameters(params map[string]string) error {
	d.mu.Lock()
	out := d.output
	d.mu.Unlock()

	if out == nil {
		logrus.WithFields(logrus.Fields{
			"function": "SetParameters",
		}).Error("set parameters with no open output stream")
		return nil
	}
	return out.SetParameters(params)
}

// OpenInputStream returns the no-op capture stub.
func (d *Device) OpenInputStream() (*InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.input == nil {
		d.input = &InputStream{}
	}
	return d.input, nil
}

// CloseInputStream releases the capture stub.
func (d *Device) CloseInputStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.input = nil
	return nil
}

// Close releases the device, closing any open output stream.
func (d *Device) Close() error {
	return d.CloseOutputStream()
}
