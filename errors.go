package procman

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped with process context) by Process and
// Builder operations. Match with errors.Is.
var (
	// ErrInvalidArgument reports malformed construction input, such as a
	// non-positive console buffer capacity or a multi-line watch target.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLaunchFailed reports that the OS could not start the process
	// (unresolvable executable, spawn error). Surfaced synchronously
	// from Start.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrAlreadyStopped reports a Destroy call on a process that is not
	// alive. Destroying a never-started or already-terminated process is
	// a caller error; it is surfaced rather than silently ignored.
	ErrAlreadyStopped = errors.New("process already stopped (or never started)")

	// ErrNotAvailable reports that no numeric exit value exists: the
	// process never started, is still running, or terminated through a
	// failure path without a usable code.
	ErrNotAvailable = errors.New("exit value not available")

	// ErrNotStarted reports a wait on a process that was never started.
	ErrNotStarted = errors.New("process was never started")

	// ErrAlreadySettled reports a second settlement attempt on the
	// process result. Exactly one termination event must be attributed
	// to a process instance; a duplicate signal is a defect in the
	// spawn/kill machinery and is surfaced loudly, never swallowed.
	ErrAlreadySettled = errors.New("process result already settled")
)

// UnsuccessfulExitError reports a termination whose exit value the
// success checker rejected. It stays wrapped in the errors returned by
// the WaitForExit family and ExitValue, so the numeric value remains
// reachable via errors.As.
type UnsuccessfulExitError struct {
	ExitValue int
}

func (e *UnsuccessfulExitError) Error() string {
	return fmt.Sprintf("exit value %d was not considered successful", e.ExitValue)
}

// UnexpectedExitError is returned by StartAndWaitForConsoleMessageMaxMs
// when the process terminates before the expected message appeared.
// Termination without the message is always an error, never a silent
// false: a false return is reserved for a pure timeout with the process
// plausibly still alive.
type UnexpectedExitError struct {
	LongName string // executable plus working directory
	Expected string // the message that was being waited for
	Console  string // recent console lines, for diagnostics
}

func (e *UnexpectedExitError) Error() string {
	return fmt.Sprintf("asked to wait for %q from %s, but it already exited without that message in console%s",
		e.Expected, e.LongName, e.Console)
}
