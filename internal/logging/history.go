package logging

import (
	"sync"
	"time"
)

// Entry is one log line kept in the history buffer.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
}

// History is a thread-safe ring of recent log entries; the oldest entry
// is overwritten when full.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int
}

// NewHistory creates a history ring with the given capacity.
func NewHistory(capacity int) *History {
	return &History{entries: make([]Entry, capacity)}
}

// Append records an entry, overwriting the oldest one if full.
func (h *History) Append(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = e
	h.head = (h.head + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
}

// Snapshot returns the recorded entries in chronological order.
func (h *History) Snapshot() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return nil
	}
	out := make([]Entry, h.count)
	if h.count < len(h.entries) {
		copy(out, h.entries[:h.count])
	} else {
		n := copy(out, h.entries[h.head:])
		copy(out[n:], h.entries[:h.head])
	}
	return out
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
