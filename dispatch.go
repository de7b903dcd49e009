package procman

import "log/slog"

// StreamType identifies which output stream of the process a line came from.
type StreamType int

// Output streams of a managed process.
const (
	StdOut StreamType = iota
	StdErr
)

func (t StreamType) String() string {
	if t == StdErr {
		return "stderr"
	}
	return "stdout"
}

// OutputLogDispatcher decides the log level for a line of process output,
// or suppresses it entirely by returning false. This allows tuning "noisy"
// processes which write too much to stderr that isn't really an error, by
// dispatching on the actual line content.
//
// The default dispatcher logs stdout at INFO and stderr at ERROR.
type OutputLogDispatcher func(stream StreamType, line string) (slog.Level, bool)

func defaultLogDispatcher(stream StreamType, _ string) (slog.Level, bool) {
	if stream == StdErr {
		return slog.LevelError, true
	}
	return slog.LevelInfo, true
}
