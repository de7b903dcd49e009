package procman

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const defaultConsoleBufferMaxLines = 100

// Builder assembles a Process. All setters return the builder for
// chaining; Build validates and creates the Process without starting it.
type Builder struct {
	executable            string
	args                  []string
	dir                   string
	env                   map[string]string
	input                 io.Reader
	destroyOnShutdown     bool
	consoleBufferMaxLines int
	dispatcher            OutputLogDispatcher
	stdOuts               []LineSink
	stdErrs               []LineSink
	listener              Listener
	successExit           func(exitValue int) bool
	logger                *slog.Logger
}

// NewBuilder creates a builder for the given executable and arguments.
func NewBuilder(executable string, args ...string) *Builder {
	return &Builder{
		executable:            executable,
		args:                  append([]string(nil), args...),
		env:                   make(map[string]string),
		consoleBufferMaxLines: defaultConsoleBufferMaxLines,
	}
}

// AddArgument appends one command line argument.
func (b *Builder) AddArgument(arg string) *Builder {
	b.args = append(b.args, arg)
	return b
}

// AddArguments appends several command line arguments.
func (b *Builder) AddArguments(args ...string) *Builder {
	b.args = append(b.args, args...)
	return b
}

// SetWorkingDirectory sets the working directory of the process.
func (b *Builder) SetWorkingDirectory(dir string) *Builder {
	b.dir = dir
	return b
}

// Setenv sets one environment variable for the process, on top of the
// inherited parent environment.
func (b *Builder) Setenv(key, value string) *Builder {
	b.env[key] = value
	return b
}

// SetInput connects a reader to the process's stdin.
func (b *Builder) SetInput(input io.Reader) *Builder {
	b.input = input
	return b
}

// SetDestroyOnShutdown controls whether the process is killed when this
// program receives SIGINT/SIGTERM while the process is still alive.
func (b *Builder) SetDestroyOnShutdown(destroy bool) *Builder {
	b.destroyOnShutdown = destroy
	return b
}

// SetConsoleBufferMaxLines sets how many recent console lines are kept in
// memory for GetConsole and error diagnostics. Zero disables buffering.
func (b *Builder) SetConsoleBufferMaxLines(maxLines int) *Builder {
	b.consoleBufferMaxLines = maxLines
	return b
}

// SetOutputStreamLogDispatcher overrides the default INFO-stdout /
// ERROR-stderr log level dispatching.
func (b *Builder) SetOutputStreamLogDispatcher(dispatcher OutputLogDispatcher) *Builder {
	b.dispatcher = dispatcher
	return b
}

// AddStdOut registers an additional sink for stdout lines.
func (b *Builder) AddStdOut(sink LineSink) *Builder {
	b.stdOuts = append(b.stdOuts, sink)
	return b
}

// AddStdErr registers an additional sink for stderr lines.
func (b *Builder) AddStdErr(sink LineSink) *Builder {
	b.stdErrs = append(b.stdErrs, sink)
	return b
}

// SetProcessListener registers a listener notified exactly once when the
// process terminates.
func (b *Builder) SetProcessListener(listener Listener) *Builder {
	b.listener = listener
	return b
}

// SetIsSuccessExitValueChecker sets the predicate deciding whether an exit
// value counts as success. The default accepts only zero.
func (b *Builder) SetIsSuccessExitValueChecker(checker func(exitValue int) bool) *Builder {
	b.successExit = checker
	return b
}

// SetLogger sets the logger used for lifecycle messages and process
// output. Defaults to slog.Default().
func (b *Builder) SetLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the builder and creates the Process.
func (b *Builder) Build() (*Process, error) {
	if b.executable == "" {
		return nil, fmt.Errorf("%w: executable must not be empty", ErrInvalidArgument)
	}
	if b.consoleBufferMaxLines < 0 {
		return nil, fmt.Errorf("%w: consoleBufferMaxLines must not be negative, got %d",
			ErrInvalidArgument, b.consoleBufferMaxLines)
	}

	dispatcher := b.dispatcher
	if dispatcher == nil {
		dispatcher = defaultLogDispatcher
	}
	successExit := b.successExit
	if successExit == nil {
		successExit = func(exitValue int) bool { return exitValue == 0 }
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	env := make(map[string]string, len(b.env))
	for k, v := range b.env {
		env[k] = v
	}

	p := &Process{
		executable:            b.executable,
		args:                  append([]string(nil), b.args...),
		dir:                   b.dir,
		env:                   env,
		input:                 b.input,
		destroyOnShutdown:     b.destroyOnShutdown,
		consoleBufferMaxLines: b.consoleBufferMaxLines,
		dispatcher:            dispatcher,
		listener:              b.listener,
		successExit:           successExit,
		logger:                logger,
		result:                newExitResult(),
	}
	p.stdout = newMultiOutput(StdOut, b.stdOuts...)
	p.stderr = newMultiOutput(StdErr, b.stdErrs...)
	return p, nil
}

// environ merges the parent environment with the builder-supplied
// variables, the latter winning.
func environ(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // inherit parent environment as-is
	}
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}
