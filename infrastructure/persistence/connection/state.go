package connection

import (
	"context"
	"time"
)

// State is the lifecycle state of the record store connection.
type State int32

const (
	// Disconnected is the initial state, and the state after the transport
	// reported the link lost.
	Disconnected State = iota
	// Connecting means exactly one establishment attempt is in flight.
	Connecting
	// Ready means the last attempt succeeded and no failure was reported since.
	Ready
	// Failed means the last attempt failed. The next demand retries.
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Dialer establishes (or re-validates) the link to the record store. It is
// implemented by the store client, which owns the transport handle.
type Dialer interface {
	Dial(ctx context.Context) error
}

// Closer is implemented by dialers holding resources that must be released
// on shutdown.
type Closer interface {
	Close(ctx context.Context) error
}

// Reporter receives transport-level failure reports from the store client.
type Reporter interface {
	Invalidate(cause error)
}

// Observer is notified of attempts and state transitions. Calls are made
// while the manager holds its lock and must not block.
type Observer interface {
	AttemptFinished(err error, took time.Duration)
	StateChanged(from, to State)
}

type nopObserver struct{}

func (nopObserver) AttemptFinished(error, time.Duration) {}
func (nopObserver) StateChanged(State, State)            {}

// Stats is a point-in-time view of the manager.
type Stats struct {
	State     State     `json:"-"`
	StateName string    `json:"state"`
	Attempts  uint64    `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	Since     time.Time `json:"since"`
}
