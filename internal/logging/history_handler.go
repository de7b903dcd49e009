package logging

import (
	"context"
	"log/slog"
)

// historyHandler records entries into the History returned by source.
// A nil History (before Initialize) drops the record.
type historyHandler struct {
	source func() *History
	level  slog.Leveler
	module string
}

func newHistoryHandler(source func() *History, level slog.Leveler) *historyHandler {
	return &historyHandler{source: source, level: level}
}

func (h *historyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *historyHandler) Handle(_ context.Context, r slog.Record) error {
	history := h.source()
	if history == nil {
		return nil
	}

	module := h.module
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "module" {
			module = a.Value.String()
			return false
		}
		return true
	})

	history.Append(Entry{
		Timestamp: r.Time,
		Level:     r.Level.String(),
		Module:    module,
		Message:   r.Message,
	})
	return nil
}

func (h *historyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	for _, a := range attrs {
		if a.Key == "module" {
			next.module = a.Value.String()
		}
	}
	return &next
}

func (h *historyHandler) WithGroup(string) slog.Handler {
	return h
}
