// Package events carries process lifecycle notifications between the
// supervisor and the subsystems that react to them (metrics, API).
package events

// Event type constants for kelindar/event.
const (
	TypeProcessStarted uint32 = iota + 1
	TypeProcessCompleted
	TypeProcessFailed
	TypeProcessDestroyed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProcessStartedEvent is published when a supervised process launches.
type ProcessStartedEvent struct {
	Name      string `json:"name" example:"db" doc:"Process name"`
	PID       int    `json:"pid" example:"4321" doc:"OS process ID"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Launch timestamp"`
}

func (e ProcessStartedEvent) Type() uint32 { return TypeProcessStarted }

// ProcessCompletedEvent is published when a process exits cleanly.
type ProcessCompletedEvent struct {
	Name      string `json:"name" example:"db" doc:"Process name"`
	ExitValue int    `json:"exit_value" example:"0" doc:"Exit code"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Exit timestamp"`
}

func (e ProcessCompletedEvent) Type() uint32 { return TypeProcessCompleted }

// ProcessFailedEvent is published when a process exits with a failure
// code or its wait fails.
type ProcessFailedEvent struct {
	Name      string `json:"name" example:"db" doc:"Process name"`
	ExitValue int    `json:"exit_value" example:"1" doc:"Exit code"`
	Error     string `json:"error,omitempty" doc:"Failure description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Failure timestamp"`
}

func (e ProcessFailedEvent) Type() uint32 { return TypeProcessFailed }

// ProcessDestroyedEvent is published when the supervisor kills a process.
type ProcessDestroyedEvent struct {
	Name      string `json:"name" example:"db" doc:"Process name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Destroy timestamp"`
}

func (e ProcessDestroyedEvent) Type() uint32 { return TypeProcessDestroyed }
