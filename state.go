package procman

// State represents the observable lifecycle state of a Process.
type State string

// Process states.
const (
	StateNotStarted State = "not_started" // Start was never called
	StateRunning    State = "running"     // started and not yet terminated
	StateCompleted  State = "completed"   // exited with a successful value
	StateFailed     State = "failed"      // launch or execution failed
	StateDestroyed  State = "destroyed"   // terminated by Destroy
)

// State derives the current state from the started/destroyed flags and the
// process result. It is computed, never cached, so it cannot go stale.
func (p *Process) State() State {
	if !p.started.Load() {
		return StateNotStarted
	}
	_, err, settled := p.result.peek()
	switch {
	case !settled:
		return StateRunning
	case p.destroyed.Load():
		return StateDestroyed
	case err != nil:
		return StateFailed
	default:
		return StateCompleted
	}
}
