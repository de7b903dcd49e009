package procman

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// invalidExitValue mirrors the out-of-band marker the exit machinery
// reserves internally: the classic 0xdeadbeef pattern read as a
// negative int32. Real OS exit codes never reach this range.
const invalidExitValue = -559038737

// Sentinel exit values returned by the WaitForExit family. Both are
// reserved below invalidExitValue so they can never collide with a
// genuine exit code.
const (
	// ExitValueDestroyed is returned when the process was terminated via
	// Destroy rather than exiting by itself.
	ExitValueDestroyed = invalidExitValue - 1

	// ExitValueStillRunning is returned by WaitForExitMaxMs when the
	// wait timed out with the process still running.
	ExitValueStillRunning = invalidExitValue - 2
)

// startupGracePeriod is how long Start waits after spawning before
// trusting the alive signal, so that a process that dies immediately
// surfaces its failure from Start instead of only via the async result.
// This is a bounded wait, not an eliminated race; callers that need a
// reliable "it's up" signal should wait for a console message.
const startupGracePeriod = 100 * time.Millisecond

// Process supervises exactly one launch of one external OS process for
// the lifetime of the instance. Create it with Builder.Build; to launch
// the same command again, build a new instance.
//
// All methods are safe for concurrent use.
type Process struct {
	executable            string
	args                  []string
	dir                   string
	env                   map[string]string
	input                 io.Reader
	destroyOnShutdown     bool
	consoleBufferMaxLines int
	dispatcher            OutputLogDispatcher
	listener              Listener
	successExit           func(exitValue int) bool
	logger                *slog.Logger

	mu        sync.Mutex // serializes Start and Destroy transitions
	cmd       *exec.Cmd
	stdout    *multiOutput
	stderr    *multiOutput
	console   atomic.Pointer[RollingBuffer]
	result    *exitResult
	started   atomic.Bool
	destroyed atomic.Bool
}

// Start launches the process and returns immediately; use the WaitFor
// methods to block on it. It fails if this instance already launched its
// process (still running or already finished), or if the OS cannot spawn
// the executable, in which case the error wraps ErrLaunchFailed.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.startPreparation(); err != nil {
		return err
	}
	return p.startExecute()
}

// startPreparation guards the single-launch invariant and wires the
// output sinks. Callers must hold mu.
func (p *Process) startPreparation() error {
	if p.IsAlive() {
		return fmt.Errorf("%s is still running, use another Process instance to launch another one",
			p.getProcLongName())
	}
	if p.started.Load() {
		return fmt.Errorf("%s already ran, use another Process instance to launch it again",
			p.getProcLongName())
	}
	p.logger.Info("Starting process", "process", p.getProcLongName())

	name := p.getProcShortName()
	p.stdout.Add(&slogLineSink{logger: p.logger, name: name, stream: StdOut, dispatch: p.dispatcher})
	p.stderr.Add(&slogLineSink{logger: p.logger, name: name, stream: StdErr, dispatch: p.dispatcher})

	if p.consoleBufferMaxLines > 0 {
		console, err := NewRollingBuffer(p.consoleBufferMaxLines)
		if err != nil {
			return err
		}
		p.console.Store(console)
		p.stdout.Add(console)
		p.stderr.Add(console)
	}
	return nil
}

// startExecute spawns the process and arms the completion path. Callers
// must hold mu.
func (p *Process) startExecute() error {
	cmd := exec.Command(p.executable, p.args...)
	cmd.Dir = p.dir
	cmd.Env = environ(p.env)
	cmd.Stdin = p.input
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", p.getProcLongName(), errors.Join(ErrLaunchFailed, err))
	}
	p.cmd = cmd
	p.started.Store(true)
	p.logger.Info("Process started", "process", p.getProcShortName(), "pid", cmd.Process.Pid)

	if p.destroyOnShutdown {
		registerForShutdownDestroy(p)
	}

	go p.waitAndSettle(cmd)

	// Give the spawned process a brief chance to fail fast, so that an
	// immediate death surfaces from Start and not only asynchronously.
	// Bounded wait, known accepted race: a slow failure still only shows
	// up via the result cell.
	time.Sleep(startupGracePeriod)

	if _, err, settled := p.result.peek(); settled && err != nil {
		return fmt.Errorf("%s failed: %w%s", p.getProcLongName(), err, p.getLastConsoleLines())
	}
	return nil
}

// waitAndSettle blocks on the underlying process and settles the result
// cell exactly once, whichever way the process ended. It is the single
// place where termination is attributed.
func (p *Process) waitAndSettle(cmd *exec.Cmd) {
	waitErr := cmd.Wait()

	// Wait has flushed the output copiers; close the fan-outs so trailing
	// partial lines reach every sink before anyone observes the
	// settlement.
	_ = p.stdout.Close()
	_ = p.stderr.Close()

	code, hasCode := exitCodeOf(waitErr)
	var settleErr error
	switch {
	case !hasCode:
		settleErr = p.result.completeErr(waitErr)
		p.logger.Error("Process failed", "process", p.getProcLongName(), "error", waitErr)
		p.notifyListener(invalidExitValue, waitErr)
	case p.successExit(code):
		settleErr = p.result.complete(code)
		p.logger.Info("Process exited", "process", p.getProcLongName(), "exit_value", code)
		p.notifyListener(code, nil)
	default:
		failure := &UnsuccessfulExitError{ExitValue: code}
		settleErr = p.result.completeErr(failure)
		if p.destroyed.Load() {
			p.logger.Debug("Process terminated by destroy", "process", p.getProcLongName(), "exit_value", code)
		} else {
			p.logger.Error("Process failed", "process", p.getProcLongName(), "exit_value", code)
		}
		p.notifyListener(code, failure)
	}
	if settleErr != nil {
		// Exactly-once contract violated; defect in the spawn/kill
		// machinery, surfaced loudly.
		p.logger.Error("BUG: duplicate process termination signal", "process", p.getProcLongName(), "error", settleErr)
	}

	deregisterFromShutdownDestroy(p)
}

// notifyListener dispatches the termination outcome to the listener,
// at most once per instance (waitAndSettle runs once).
func (p *Process) notifyListener(exitValue int, failure error) {
	if p.listener == nil {
		return
	}
	if failure == nil {
		p.listener.OnProcessComplete(exitValue)
	} else {
		p.listener.OnProcessFailed(exitValue, failure)
	}
}

// exitCodeOf extracts the exit code from a Wait error. The second return
// is false when the process produced no usable code (I/O setup failure
// and similar), in which case the error itself is the outcome.
func exitCodeOf(waitErr error) (int, bool) {
	if waitErr == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// StartAndWaitForConsoleMessageMaxMs starts the process and blocks until
// messageInConsole appears on stdout or stderr, the process terminates,
// or maxWaitMs elapses.
//
// It returns true only if the message appeared. Termination without the
// message is an *UnexpectedExitError (a silent false would be
// indistinguishable from a slow but healthy process). False with a nil
// error means the wait timed out with the process still plausibly alive;
// no action is taken on it.
func (p *Process) StartAndWaitForConsoleMessageMaxMs(messageInConsole string, maxWaitMs int64) (bool, error) {
	watcher, err := newConsoleWatcher(messageInConsole, nil)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	if err := p.startPreparation(); err != nil {
		p.mu.Unlock()
		return false, err
	}
	p.stdout.Add(watcher)
	p.stderr.Add(watcher)
	defer func() {
		p.stdout.Remove(watcher)
		p.stderr.Remove(watcher)
	}()

	p.logger.Info("Waiting for message in console output",
		"message", messageInConsole, "process", p.getProcLongName(), "max_wait_ms", maxWaitMs)

	if err := p.startExecute(); err != nil {
		p.mu.Unlock()
		if errors.Is(err, ErrLaunchFailed) {
			return false, err
		}
		// The process died within the startup grace period. If it managed
		// to print the message first, that still counts.
		if watcher.HasSeenIt() {
			return true, nil
		}
		return false, &UnexpectedExitError{
			LongName: p.getProcLongName(),
			Expected: messageInConsole,
			Console:  p.getLastConsoleLines(),
		}
	}
	p.mu.Unlock()

	timer := time.NewTimer(time.Duration(maxWaitMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-watcher.seenChan():
		return true, nil
	case <-p.result.done():
		// The console is fully flushed before the result settles, so a
		// message that raced the process death has been seen by now.
		if watcher.HasSeenIt() {
			return true, nil
		}
		return false, &UnexpectedExitError{
			LongName: p.getProcLongName(),
			Expected: messageInConsole,
			Console:  p.getLastConsoleLines(),
		}
	case <-timer.C:
		if watcher.HasSeenIt() {
			return true, nil
		}
		p.logger.Warn("Timed out waiting for message in console output",
			"message", messageInConsole, "max_wait_ms", maxWaitMs)
		return false, nil
	}
}

// Destroy forcibly kills the process and blocks until its termination has
// been attributed through the same exactly-once completion path as a
// natural exit. Destroying a process that is not alive returns
// ErrAlreadyStopped.
func (p *Process) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.IsAlive() {
		return fmt.Errorf("%w: %s", ErrAlreadyStopped, p.getProcLongName())
	}
	p.logger.Debug("Going to destroy process", "process", p.getProcLongName())

	p.destroyed.Store(true)
	p.killProcessGroup()

	<-p.result.done()
	p.logger.Info("Successfully destroyed process", "process", p.getProcLongName())
	return nil
}

// killProcessGroup SIGKILLs the process group (Setpgid puts the child in
// its own group, so children of the child die too), falling back to
// killing just the process.
func (p *Process) killProcessGroup() {
	proc := p.cmd.Process
	if proc == nil {
		return
	}
	if err := syscall.Kill(-proc.Pid, syscall.SIGKILL); err == nil {
		return
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Error("Failed to kill process", "process", p.getProcLongName(), "error", err)
	}
}

// IsAlive reports whether the process has been started and has not yet
// terminated, without blocking.
func (p *Process) IsAlive() bool {
	return p.started.Load() && !p.result.isDone()
}

// Pid returns the OS process ID, or zero before a successful Start.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// ExitValue returns the settled exit code. It returns ErrNotAvailable if
// the process never started, is still running, or terminated through a
// failure path without a successful code.
func (p *Process) ExitValue() (int, error) {
	code, err, settled := p.result.peek()
	switch {
	case !settled:
		return 0, fmt.Errorf("%w: %s has not terminated (or was never started)",
			ErrNotAvailable, p.getProcLongName())
	case err != nil:
		return 0, fmt.Errorf("%w: %s terminated with a failure: %v%s",
			ErrNotAvailable, p.getProcLongName(), err, p.getLastConsoleLines())
	default:
		return code, nil
	}
}

// WaitForExit blocks until the process terminates. It returns the exit
// value, or ExitValueDestroyed if Destroy was used.
func (p *Process) WaitForExit() (int, error) {
	p.logger.Info("Waiting for process to terminate itself", "process", p.getProcLongName())
	return p.waitForExitMax(-1)
}

// WaitForExitMaxMs is like WaitForExit but waits at most maxWaitMs, then
// returns ExitValueStillRunning (taking no action on the process) if it
// is still running. A timeout is cooperative polling, not an error, and
// never kills the process.
func (p *Process) WaitForExitMaxMs(maxWaitMs int64) (int, error) {
	p.logger.Info("Waiting max for process to terminate itself",
		"max_wait_ms", maxWaitMs, "process", p.getProcLongName())
	return p.waitForExitMax(time.Duration(maxWaitMs) * time.Millisecond)
}

func (p *Process) waitForExitMax(max time.Duration) (int, error) {
	if !p.started.Load() {
		return 0, fmt.Errorf("%w: asked to wait for %s", ErrNotStarted, p.getProcLongName())
	}
	if max >= 0 {
		if _, _, settled := p.result.waitMax(max); !settled {
			if !p.result.isDone() {
				return ExitValueStillRunning, nil
			}
			// Settled between the timeout firing and this check; fall
			// through and attribute the real outcome.
		}
	} else {
		<-p.result.done()
	}

	code, err, _ := p.result.peek()
	switch {
	case p.destroyed.Load():
		return ExitValueDestroyed, nil
	case err != nil:
		return 0, fmt.Errorf("%s failed: %w%s", p.getProcLongName(), err, p.getLastConsoleLines())
	default:
		return code, nil
	}
}

// WaitForExitMaxMsOrDestroy waits like WaitForExitMaxMs and then, if the
// process is still alive, destroys it. The two steps are composite, not
// atomic: if someone else destroyed the process in between, the
// ErrAlreadyStopped from the chained Destroy is swallowed, since the end
// state ("not alive") was reached regardless.
func (p *Process) WaitForExitMaxMsOrDestroy(maxWaitMs int64) (int, error) {
	code, err := p.WaitForExitMaxMs(maxWaitMs)
	if err != nil {
		return code, err
	}
	if !p.IsAlive() {
		return code, nil
	}
	p.logger.Info("Process did not exit within max wait, going to destroy it now",
		"max_wait_ms", maxWaitMs, "process", p.getProcLongName())
	if err := p.Destroy(); err != nil && !errors.Is(err, ErrAlreadyStopped) {
		return code, err
	}
	return ExitValueDestroyed, nil
}

// GetConsole returns the recent buffered console output (up to the
// configured consoleBufferMaxLines), or "" if buffering is disabled.
func (p *Process) GetConsole() string {
	console := p.console.Load()
	if console == nil {
		return ""
	}
	return console.String()
}

// getLastConsoleLines renders the console tail for error messages.
func (p *Process) getLastConsoleLines() string {
	if p.console.Load() == nil {
		return ""
	}
	return fmt.Sprintf(", last %d lines of console:\n%s", p.consoleBufferMaxLines, p.GetConsole())
}

// getProcShortName is the executable base name, used to prefix logged
// output lines.
func (p *Process) getProcShortName() string {
	return filepath.Base(p.executable)
}

// getProcLongName is the human readable identification used in every
// error and log message: the command line plus the working directory.
// It is derived from immutable construction-time fields, never cached.
func (p *Process) getProcLongName() string {
	name := "Program \"" + strings.Join(append([]string{p.executable}, p.args...), " ") + "\""
	if p.dir != "" {
		name += " (in working directory " + p.dir + ")"
	}
	return name
}
