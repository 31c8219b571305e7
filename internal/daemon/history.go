package daemon

import "sync"

// DefaultHistorySize is the number of command names kept when none is configured.
const DefaultHistorySize = 13

// History is a fixed-capacity ring of recently received command names.
// It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []string
	next    int
	full    bool
}

// NewHistory creates a history holding at most size entries.
// A non-positive size falls back to DefaultHistorySize.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{entries: make([]string, size)}
}

// Add records a command name, evicting the oldest when full.
func (h *History) Add(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = name
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

// Entries returns the recorded names, most recent first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.next
	if h.full {
		n = len(h.entries)
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out
}
