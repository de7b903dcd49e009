package procman

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// consoleWatcher is a LineSink that watches for the occurrence of a
// keyword in the console output, typically some "started up OK" kind of
// message from a daemon. The seen flag flips false to true exactly once;
// the optional callback runs on the goroutine that performed the flip,
// even when stdout and stderr deliver matching lines concurrently.
type consoleWatcher struct {
	watchOutFor string
	seen        atomic.Bool
	seenCh      chan struct{}
	onSeen      func()
}

func newConsoleWatcher(watchOutFor string, onSeen func()) (*consoleWatcher, error) {
	if strings.Contains(watchOutFor, "\n") {
		return nil, fmt.Errorf("%w: cannot watch for text containing newlines: %q", ErrInvalidArgument, watchOutFor)
	}
	return &consoleWatcher{
		watchOutFor: watchOutFor,
		seenCh:      make(chan struct{}),
		onSeen:      onSeen,
	}, nil
}

// ProcessLine implements LineSink.
func (w *consoleWatcher) ProcessLine(line string) error {
	if !w.seen.Load() && strings.Contains(line, w.watchOutFor) {
		if w.seen.CompareAndSwap(false, true) {
			close(w.seenCh)
			if w.onSeen != nil {
				w.onSeen()
			}
		}
	}
	return nil
}

// HasSeenIt reports whether the keyword has appeared, without blocking.
func (w *consoleWatcher) HasSeenIt() bool {
	return w.seen.Load()
}

// seen channel is closed on first match, for select-based waiting.
func (w *consoleWatcher) seenChan() <-chan struct{} {
	return w.seenCh
}
