package webui

import "sync"

// History is the navigation stack of the single front-end user. It
// implements frontend.Navigator.
type History struct {
	mu      sync.Mutex
	entries []string
}

func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

// Visit records path unless the user is already there.
func (h *History) Visit(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entries[len(h.entries)-1] != path {
		h.entries = append(h.entries, path)
	}
}

// Back steps one entry back. The first entry is never dropped.
func (h *History) Back() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) > 1 {
		h.entries = h.entries[:len(h.entries)-1]
	}
}

func (h *History) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}
