// Package stream implements the output stream lifecycle: the state machine
// coordinating the control and data channels, the write path with its
// autostart and real-time pacing fallback, and the stream parameter surface.
package stream

// State is the lifecycle state of an output stream.
//
// Exactly one State exists per open stream and only the stream's own
// operations mutate it. StateStandby lets the next write re-activate the
// data path silently; StateSuspended requires an explicit resume signal
// before writes are accepted again.
type State uint32

const (
	// StateStarting is the transient state while the START handshake and
	// data connection are in flight.
	StateStarting State = iota
	// StateStarted means the data path is connected and accepting writes.
	StateStarted
	// StateStopping is the transient state while the STOP handshake is in
	// flight. It also fences autostart while the stream is being torn down.
	StateStopping
	// StateStopped means the data path is down; the next write autostarts.
	StateStopped
	// StateSuspended means the data path is down and writes are rejected
	// until an explicit resume.
	StateSuspended
	// StateStandby means the data path is down; the next write autostarts.
	StateStandby
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateStarted:
		return "STARTED"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	case StateSuspended:
		return "SUSPENDED"
	case StateStandby:
		return "STANDBY"
	default:
		return "UNKNOWN"
	}
}
