package procman

import (
	"errors"
	"sync"
	"testing"
)

func TestConsoleWatcherRejectsMultiLineTarget(t *testing.T) {
	if _, err := newConsoleWatcher("line one\nline two", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for multi-line target, got %v", err)
	}
}

func TestConsoleWatcherDetectsSubstring(t *testing.T) {
	w, err := newConsoleWatcher("ready for connections", nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, line := range []string{"booting", "loading tables", "almost ready"} {
		if err := w.ProcessLine(line); err != nil {
			t.Fatal(err)
		}
	}
	if w.HasSeenIt() {
		t.Fatal("watcher fired on non-matching lines")
	}
	select {
	case <-w.seenChan():
		t.Fatal("seen channel closed before match")
	default:
	}

	if err := w.ProcessLine("2026-01-01 mysqld: ready for connections."); err != nil {
		t.Fatal(err)
	}
	if !w.HasSeenIt() {
		t.Fatal("watcher missed the matching line")
	}
	select {
	case <-w.seenChan():
	default:
		t.Fatal("seen channel not closed after match")
	}
}

func TestConsoleWatcherCallbackRunsExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	w, err := newConsoleWatcher("GO", func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	// Matching lines delivered concurrently from both streams.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.ProcessLine("GO GO GO")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("callback ran %d times, want exactly 1", calls)
	}
}
