package procman

import (
	"fmt"
	"sync"
	"time"
)

// exitResult is a single-assignment cell holding the termination outcome
// of a managed process: either an exit code or a failure cause. It is
// settled exactly once, by whichever termination path fires first; a
// second settlement attempt of either kind is rejected with
// ErrAlreadySettled instead of being silently overwritten. One cell
// replaces the "multiple volatile flags that can disagree" design.
type exitResult struct {
	mu      sync.Mutex
	settled bool
	code    int
	err     error
	ch      chan struct{} // closed on settlement
}

func newExitResult() *exitResult {
	return &exitResult{ch: make(chan struct{})}
}

// complete settles the cell with an exit code.
func (r *exitResult) complete(code int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return fmt.Errorf("%w: complete(%d) after %s", ErrAlreadySettled, code, r.describeLocked())
	}
	r.settled = true
	r.code = code
	close(r.ch)
	return nil
}

// completeErr settles the cell with a failure cause.
func (r *exitResult) completeErr(cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return fmt.Errorf("%w: completeErr(%v) after %s", ErrAlreadySettled, cause, r.describeLocked())
	}
	r.settled = true
	r.err = cause
	close(r.ch)
	return nil
}

func (r *exitResult) describeLocked() string {
	if r.err != nil {
		return fmt.Sprintf("failure(%v)", r.err)
	}
	return fmt.Sprintf("success(%d)", r.code)
}

// peek returns the current state without blocking.
func (r *exitResult) peek() (code int, err error, settled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code, r.err, r.settled
}

// isDone reports whether the cell is settled, without blocking.
func (r *exitResult) isDone() bool {
	_, _, settled := r.peek()
	return settled
}

// done returns a channel closed when the cell settles, for select races.
func (r *exitResult) done() <-chan struct{} {
	return r.ch
}

// wait blocks until the cell settles, then returns its outcome.
func (r *exitResult) wait() (int, error) {
	<-r.ch
	code, err, _ := r.peek()
	return code, err
}

// waitMax blocks up to max for the cell to settle. The third return is
// false on timeout; a timeout is not a failure of the process.
func (r *exitResult) waitMax(max time.Duration) (code int, err error, settled bool) {
	timer := time.NewTimer(max)
	defer timer.Stop()
	select {
	case <-r.ch:
		code, err, _ = r.peek()
		return code, err, true
	case <-timer.C:
		return 0, nil, false
	}
}
