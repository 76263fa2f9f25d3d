// Package protocol implements the control-channel protocol spoken with the
// remote A2DP stack.
//
// The protocol is a strict half-duplex request/response exchange over a local
// stream socket: each request is a single command byte, each response a single
// acknowledgement byte. There is no framing and no pipelining; a command must
// be acknowledged before the next one may be issued.
package protocol

// Command is a single-byte control request sent to the remote stack.
type Command byte

const (
	// CmdNone is the zero command and is never sent on the wire.
	CmdNone Command = iota
	// CmdCheckReady asks whether the remote stack is ready to stream.
	CmdCheckReady
	// CmdStart requests activation of the audio data path.
	CmdStart
	// CmdStop requests deactivation of the audio data path.
	CmdStop
	// CmdSuspend requests suspension of the audio data path.
	CmdSuspend
	// CmdCheckStreamStarted asks whether the remote side considers the
	// stream active. Used to detect peer-initiated starts.
	CmdCheckStreamStarted
)

// String returns the command name for logging.
func (c Command) String() string {
	switch c {
	case CmdNone:
		return "NONE"
	case CmdCheckReady:
		return "CHECK_READY"
	case CmdStart:
		return "START"
	case CmdStop:
		return "STOP"
	case CmdSuspend:
		return "SUSPEND"
	case CmdCheckStreamStarted:
		return "CHECK_STREAM_STARTED"
	default:
		return "UNKNOWN"
	}
}

// Ack is a single-byte acknowledgement received from the remote stack.
type Ack byte

const (
	// AckSuccess indicates the command was accepted.
	AckSuccess Ack = iota
	// AckFailure indicates the command was refused.
	AckFailure
	// AckInCallFailure indicates the remote side is busy with a voice
	// call. Transient; unrelated to connectivity.
	AckInCallFailure
)

// String returns the acknowledgement name for logging.
func (a Ack) String() string {
	switch a {
	case AckSuccess:
		return "SUCCESS"
	case AckFailure:
		return "FAILURE"
	case AckInCallFailure:
		return "INCALL_FAILURE"
	default:
		return "UNKNOWN"
	}
}
