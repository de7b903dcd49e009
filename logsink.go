package procman

import "log/slog"

// slogLineSink logs process output lines through slog, prefixed with the
// process short name, at the level chosen by the dispatcher.
type slogLineSink struct {
	logger   *slog.Logger
	name     string // process short name (executable base name)
	stream   StreamType
	dispatch OutputLogDispatcher
}

// ProcessLine implements LineSink.
func (s *slogLineSink) ProcessLine(line string) error {
	level, ok := s.dispatch(s.stream, line)
	if !ok {
		return nil
	}
	msg := s.name + ": " + line
	switch {
	case level >= slog.LevelError:
		s.logger.Error(msg)
	case level >= slog.LevelWarn:
		s.logger.Warn(msg)
	case level >= slog.LevelInfo:
		s.logger.Info(msg)
	default:
		s.logger.Debug(msg)
	}
	return nil
}
