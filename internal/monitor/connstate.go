package monitor

import (
	"fmt"
	"time"
)

// Phase is the connection phase against the daemon.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseStreaming
	PhaseBackingOff
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseStreaming:
		return "streaming"
	case PhaseBackingOff:
		return "backingOff"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ConnState is the monitor's connection state machine value. Only the
// monitor goroutine reads or writes it.
type ConnState struct {
	Phase Phase

	// Since is the event watermark while streaming.
	Since int64

	// Attempt and Until describe the current backoff while backingOff.
	Attempt int
	Until   time.Time
}

func streaming(since int64) ConnState {
	return ConnState{Phase: PhaseStreaming, Since: since}
}

func backingOff(attempt int, until time.Time) ConnState {
	return ConnState{Phase: PhaseBackingOff, Attempt: attempt, Until: until}
}
