package procman

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// LineSink consumes decoded output lines from a managed process.
// Implementations can forward lines to loggers, buffers, watchers, etc.
// A sink error does not stop delegation to other registered sinks.
type LineSink interface {
	ProcessLine(line string) error
}

// multiOutput multiplexes one byte stream to registered line sinks, a bit
// like UNIX tee. Raw writes are decoded into lines; each completed line is
// delegated to every sink in registration order. Delegation is synchronous,
// so sinks should be fast in order not to block the output pump.
//
// Sink failures are isolated: a failing sink never prevents delegation to
// the remaining sinks. All failures of one write are aggregated and
// returned together after every sink was attempted.
type multiOutput struct {
	stream StreamType

	mu      sync.Mutex
	sinks   []LineSink
	partial strings.Builder
}

func newMultiOutput(stream StreamType, sinks ...LineSink) *multiOutput {
	m := &multiOutput{stream: stream}
	m.sinks = append(m.sinks, sinks...)
	return m
}

// Add registers a sink. Safe to call while writes are in flight; an
// in-progress write sees a stable sink list.
func (m *multiOutput) Add(sink LineSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Remove deregisters a previously added sink (identity comparison).
func (m *multiOutput) Remove(sink LineSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sinks {
		if s == sink {
			m.sinks = append(m.sinks[:i], m.sinks[i+1:]...)
			return
		}
	}
}

// Write implements io.Writer. Bytes are buffered until a line terminator
// completes a line; completed lines are delegated with the terminator
// (and a preceding carriage return) stripped.
func (m *multiOutput) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, c := range p {
		if c == '\n' {
			line := strings.TrimSuffix(m.partial.String(), "\r")
			m.partial.Reset()
			if err := m.dispatch(line); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		m.partial.WriteByte(c)
	}
	if len(errs) > 0 {
		return len(p), errors.Join(errs...)
	}
	return len(p), nil
}

// Flush delegates a trailing unterminated line, if any.
func (m *multiOutput) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.partial.Len() == 0 {
		return nil
	}
	line := m.partial.String()
	m.partial.Reset()
	return m.dispatch(line)
}

// Close delegates a trailing unterminated line, if any, then releases
// the sinks. Later writes are accepted but no longer delegated.
func (m *multiOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.partial.Len() > 0 {
		line := m.partial.String()
		m.partial.Reset()
		err = m.dispatch(line)
	}
	m.sinks = nil
	return err
}

// dispatch delegates one line to every sink, in registration order,
// aggregating failures. Callers must hold mu.
func (m *multiOutput) dispatch(line string) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.ProcessLine(line); err != nil {
			errs = append(errs, fmt.Errorf("%s write delegation failed: %w", m.stream, err))
		}
	}
	return errors.Join(errs...)
}
