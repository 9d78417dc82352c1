package route

// History is a stack of visited routes. It is not safe for concurrent use;
// the root model owns it.
type History struct {
	entries []ID
}

// NewHistory returns a history whose only entry is start.
func NewHistory(start ID) *History {
	return &History{entries: []ID{start}}
}

// Current returns the route on top of the stack.
func (h *History) Current() ID {
	if len(h.entries) == 0 {
		return Landing
	}
	return h.entries[len(h.entries)-1]
}

// Push navigates to id, keeping the current entry for Back.
// Pushing the current route again is a no-op.
func (h *History) Push(id ID) {
	if len(h.entries) > 0 && h.Current() == id {
		return
	}
	h.entries = append(h.entries, id)
}

// Replace swaps the current entry for id, so Back skips the replaced one.
// When the entry below is already id, the current entry is dropped
// instead of stacking a duplicate.
func (h *History) Replace(id ID) {
	n := len(h.entries)
	switch {
	case n == 0:
		h.entries = []ID{id}
	case n > 1 && h.entries[n-2] == id:
		h.entries = h.entries[:n-1]
	default:
		h.entries[n-1] = id
	}
}

// Back pops the current entry and returns the new current route.
// It reports false when there is nowhere to go back to.
func (h *History) Back() (ID, bool) {
	if len(h.entries) <= 1 {
		return h.Current(), false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.Current(), true
}

// Reset clears the history down to a single entry.
func (h *History) Reset(id ID) {
	h.entries = []ID{id}
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
