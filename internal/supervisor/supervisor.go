// Package supervisor runs the configured set of named processes and
// keeps them reconciled with the loaded configuration.
package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/smazurov/procman"
	"github.com/smazurov/procman/internal/config"
	"github.com/smazurov/procman/internal/events"
	"github.com/smazurov/procman/internal/metrics"
)

// Supervisor owns one procman.Process per configured name and restarts,
// stops or replaces them as the configuration changes.
type Supervisor struct {
	logger *slog.Logger
	bus    *events.Bus

	mu      sync.RWMutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

type entry struct {
	cfg       config.ProcessConfig
	proc      *procman.Process
	startedAt time.Time
	lastError error
}

// Status is a point-in-time view of one supervised process.
type Status struct {
	Name      string        `json:"name"`
	State     procman.State `json:"state"`
	PID       int           `json:"pid,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// New creates an empty supervisor. Call Apply to load processes.
func New(logger *slog.Logger, bus *events.Bus) *Supervisor {
	return &Supervisor{
		logger:  logger,
		bus:     bus,
		entries: make(map[string]*entry),
	}
}

// Apply reconciles the supervisor with a configuration: new processes
// are registered and started, changed ones restarted with their new
// definition, removed ones destroyed and forgotten.
func (s *Supervisor) Apply(cfg *config.Config) {
	s.mu.Lock()
	var added, changed, removed []string
	keep := make(map[string]bool, len(cfg.Processes))
	for _, pc := range cfg.Processes {
		keep[pc.Name] = true
		existing, ok := s.entries[pc.Name]
		switch {
		case !ok:
			s.entries[pc.Name] = &entry{cfg: pc}
			added = append(added, pc.Name)
		case !reflect.DeepEqual(existing.cfg, pc):
			existing.cfg = pc
			changed = append(changed, pc.Name)
		}
	}
	for name := range s.entries {
		if !keep[name] {
			removed = append(removed, name)
		}
	}
	s.mu.Unlock()

	for _, name := range removed {
		if err := s.Stop(name); err != nil {
			s.logger.Warn("stop of removed process failed", "name", name, "error", err)
		}
		s.mu.Lock()
		delete(s.entries, name)
		s.mu.Unlock()
		s.logger.Info("process removed from config", "name", name)
	}
	for _, name := range changed {
		s.logger.Info("process definition changed, restarting", "name", name)
		if err := s.Restart(name); err != nil {
			s.logger.Error("restart after config change failed", "name", name, "error", err)
		}
	}
	for _, name := range added {
		if err := s.Start(name); err != nil {
			s.logger.Error("start of new process failed", "name", name, "error", err)
		}
	}
}

// Start launches the named process. A process that is already running
// is an error; a finished one gets a fresh procman.Process instance.
func (s *Supervisor) Start(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown process %q", name)
	}
	if e.proc != nil && e.proc.IsAlive() {
		s.mu.Unlock()
		return fmt.Errorf("process %q already running", name)
	}

	proc, err := buildProcess(e.cfg, s.logger)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("build process %q: %w", name, err)
	}
	e.proc = proc
	e.startedAt = time.Now()
	e.lastError = nil
	pc := e.cfg
	s.mu.Unlock()

	if pc.WaitFor != "" {
		seen, err := proc.StartAndWaitForConsoleMessageMaxMs(pc.WaitFor, pc.WaitTimeoutMs)
		if err != nil {
			s.recordError(name, err)
			return fmt.Errorf("start process %q: %w", name, err)
		}
		if !seen {
			s.logger.Warn("startup message not seen before timeout, continuing",
				"name", name, "wait_for", pc.WaitFor, "timeout_ms", pc.WaitTimeoutMs)
		}
	} else if err := proc.Start(); err != nil {
		s.recordError(name, err)
		return fmt.Errorf("start process %q: %w", name, err)
	}

	metrics.ProcessStarted(name)
	s.bus.Publish(events.ProcessStartedEvent{
		Name:      name,
		PID:       proc.Pid(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	s.logger.Info("process started", "name", name, "pid", proc.Pid())

	s.wg.Add(1)
	go s.watch(name, proc)
	return nil
}

// watch waits for one process instance to terminate and publishes the
// outcome. Runs once per successful Start.
func (s *Supervisor) watch(name string, proc *procman.Process) {
	defer s.wg.Done()

	code, err := proc.WaitForExit()
	ts := time.Now().Format(time.RFC3339)
	switch {
	case err != nil:
		s.recordError(name, err)
		metrics.ProcessExited(name, metrics.OutcomeFailed)
		failed := events.ProcessFailedEvent{Name: name, Error: err.Error(), Timestamp: ts}
		var unsuccessful *procman.UnsuccessfulExitError
		if errors.As(err, &unsuccessful) {
			failed.ExitValue = unsuccessful.ExitValue
		}
		s.bus.Publish(failed)
		s.logger.Error("process failed", "name", name, "error", err)
	case code == procman.ExitValueDestroyed:
		metrics.ProcessExited(name, metrics.OutcomeDestroyed)
		s.bus.Publish(events.ProcessDestroyedEvent{Name: name, Timestamp: ts})
		s.logger.Info("process destroyed", "name", name)
	default:
		metrics.ProcessExited(name, metrics.OutcomeCompleted)
		s.bus.Publish(events.ProcessCompletedEvent{Name: name, ExitValue: code, Timestamp: ts})
		s.logger.Info("process completed", "name", name, "exit_value", code)
	}
}

// Stop destroys the named process if it is running. Stopping a process
// that already exited is not an error.
func (s *Supervisor) Stop(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	var proc *procman.Process
	if ok {
		proc = e.proc
	}
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown process %q", name)
	}
	if proc == nil {
		return nil
	}
	if err := proc.Destroy(); err != nil {
		if errors.Is(err, procman.ErrAlreadyStopped) {
			return nil
		}
		return fmt.Errorf("stop process %q: %w", name, err)
	}
	return nil
}

// Restart stops and relaunches the named process.
func (s *Supervisor) Restart(name string) error {
	if err := s.Stop(name); err != nil {
		return err
	}
	return s.Start(name)
}

// StopAll destroys every running process and waits for the watchers.
func (s *Supervisor) StopAll() {
	s.mu.RLock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	s.mu.RUnlock()

	s.logger.Info("stopping all processes", "count", len(names))
	for _, name := range names {
		if err := s.Stop(name); err != nil {
			s.logger.Warn("stop failed during shutdown", "name", name, "error", err)
		}
	}
	s.wg.Wait()
	s.logger.Info("all processes stopped")
}

// Status returns the current view of one process.
func (s *Supervisor) Status(name string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return Status{}, false
	}
	return s.statusLocked(name, e), true
}

// List returns the status of every known process, sorted by name.
func (s *Supervisor) List() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, s.statusLocked(name, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Supervisor) statusLocked(name string, e *entry) Status {
	st := Status{Name: name, State: procman.StateNotStarted}
	if e.lastError != nil {
		st.Error = e.lastError.Error()
	}
	if e.proc == nil {
		return st
	}
	st.State = e.proc.State()
	st.StartedAt = e.startedAt
	if e.proc.IsAlive() {
		st.PID = e.proc.Pid()
	}
	return st
}

// Console returns the buffered console output of one process.
func (s *Supervisor) Console(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || e.proc == nil {
		return "", ok
	}
	return e.proc.GetConsole(), true
}

func (s *Supervisor) recordError(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		e.lastError = err
	}
}

// buildProcess translates one config entry into a procman.Process.
func buildProcess(pc config.ProcessConfig, logger *slog.Logger) (*procman.Process, error) {
	b := procman.NewBuilder(pc.Executable, pc.Args...).
		SetLogger(logger.With("process", pc.Name)).
		SetDestroyOnShutdown(pc.DestroyOnShutdown).
		SetIsSuccessExitValueChecker(pc.IsSuccessExit).
		AddStdOut(lineCounter{name: pc.Name, stream: "stdout"}).
		AddStdErr(lineCounter{name: pc.Name, stream: "stderr"})
	if pc.Dir != "" {
		b.SetWorkingDirectory(pc.Dir)
	}
	for key, value := range pc.Env {
		b.Setenv(key, value)
	}
	if pc.ConsoleBufferMaxLines > 0 {
		b.SetConsoleBufferMaxLines(pc.ConsoleBufferMaxLines)
	}
	return b.Build()
}

// lineCounter feeds per-line metrics from the process output.
type lineCounter struct {
	name   string
	stream string
}

func (c lineCounter) ProcessLine(string) error {
	metrics.ConsoleLine(c.name, c.stream)
	return nil
}
