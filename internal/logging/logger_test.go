package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got := parseLevel(tt.in)
		if tt.ok {
			if got == nil || *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseLevel(%q) = %v, want nil", tt.in, *got)
		}
	}
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	a := GetLogger("supervisor")
	b := GetLogger("supervisor")
	if a != b {
		t.Error("GetLogger must return the same logger per module")
	}
}

func TestInitializeAppliesModuleOverride(t *testing.T) {
	logger := GetLogger("override-test")

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"override-test": "debug"},
	})

	// The pre-existing logger was rebuilt with the debug level.
	logger = GetLogger("override-test")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("module override to debug not applied")
	}

	other := GetLogger("other-module")
	if other.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("global level should filter debug for other modules")
	}
}

func TestSetModuleLevel(t *testing.T) {
	Initialize(Config{Level: "info", Format: "text"})
	logger := GetLogger("runtime-level")

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled before the change")
	}
	if !SetModuleLevel("runtime-level", "debug") {
		t.Fatal("SetModuleLevel rejected a known module and valid level")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after the change")
	}

	if SetModuleLevel("runtime-level", "nonsense") {
		t.Error("invalid level must be rejected")
	}
	if SetModuleLevel("never-created", "debug") {
		t.Error("unknown module must be rejected")
	}
}

func TestHistoryRecordsEntries(t *testing.T) {
	Initialize(Config{Level: "info", Format: "text"})

	GetLogger("history-test").Info("hello from the test")

	found := false
	for _, e := range GetHistory().Snapshot() {
		if e.Module == "history-test" && e.Message == "hello from the test" {
			found = true
		}
	}
	if !found {
		t.Error("log entry missing from history")
	}
}

func TestHistoryRingOverwritesOldest(t *testing.T) {
	h := NewHistory(3)
	for i := range 5 {
		h.Append(Entry{Timestamp: time.Now(), Message: string(rune('a' + i))})
	}

	got := h.Snapshot()
	if len(got) != 3 {
		t.Fatalf("Len = %d, want 3", len(got))
	}
	want := []string{"c", "d", "e"}
	for i, e := range got {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestHistoryHandlerTracksModuleAttr(t *testing.T) {
	h := NewHistory(10)
	handler := newHistoryHandler(func() *History { return h }, slog.LevelInfo)

	logger := slog.New(handler).With("module", "attr-test")
	logger.Info("attributed")

	entries := h.Snapshot()
	if len(entries) != 1 || entries[0].Module != "attr-test" {
		t.Fatalf("entries = %+v, want one entry with module attr-test", entries)
	}
}
