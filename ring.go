package procman

import (
	"fmt"
	"strings"
	"sync"
)

// RollingBuffer is a thread-safe rolling buffer of the most recent console
// lines. When full, adding a line evicts the oldest one. It is intended
// for many Add calls and few reads: Add is O(1), String joins a snapshot.
type RollingBuffer struct {
	mu    sync.Mutex
	lines []string
	head  int
	count int
}

// NewRollingBuffer creates a rolling buffer keeping the maxLines most
// recent lines. maxLines must be at least 1.
func NewRollingBuffer(maxLines int) (*RollingBuffer, error) {
	if maxLines < 1 {
		return nil, fmt.Errorf("%w: maxLines must be >= 1, got %d", ErrInvalidArgument, maxLines)
	}
	return &RollingBuffer{lines: make([]string, maxLines)}, nil
}

// Add appends a line, evicting the oldest one if the buffer is full.
func (b *RollingBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.head] = line
	b.head = (b.head + 1) % len(b.lines)
	if b.count < len(b.lines) {
		b.count++
	}
}

// ProcessLine implements LineSink, so the buffer can be registered
// directly on a process output.
func (b *RollingBuffer) ProcessLine(line string) error {
	b.Add(line)
	return nil
}

// Len returns the number of buffered lines.
func (b *RollingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Lines returns a snapshot of the buffered lines, oldest first.
func (b *RollingBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	result := make([]string, b.count)
	if b.count < len(b.lines) {
		copy(result, b.lines[:b.count])
	} else {
		// Buffer is full, oldest line is at head.
		n := copy(result, b.lines[b.head:])
		copy(result[n:], b.lines[:b.head])
	}
	return result
}

// String joins the buffered lines with newlines, oldest first. This is
// intentionally more expensive than Add.
func (b *RollingBuffer) String() string {
	return strings.Join(b.Lines(), "\n")
}
