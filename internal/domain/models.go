package domain

import "time"

type State string

const (
	StateUnknown      State = "unknown"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

func StateOf(connected bool) State {
	if connected {
		return StateConnected
	}
	return StateDisconnected
}

// Transition is one value emitted by an observation stream.
type Transition struct {
	Strategy  string    `json:"strategy"`
	Host      string    `json:"host"`
	Connected bool      `json:"connected"`
	At        time.Time `json:"at"`
}

func (t Transition) State() State { return StateOf(t.Connected) }

// Snapshot is the latest known connectivity of this process.
type Snapshot struct {
	Strategy    string     `json:"strategy,omitempty"`
	Host        string     `json:"host,omitempty"`
	State       State      `json:"state"`
	Since       *time.Time `json:"since,omitempty"`
	Transitions int        `json:"transitions"`
}

// CheckResult is the outcome of an on-demand single check.
type CheckResult struct {
	Host      string    `json:"host"`
	Connected bool      `json:"connected"`
	Reason    string    `json:"reason,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}
