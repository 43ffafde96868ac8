package statebox

// history is a bounded FIFO of tree snapshots. Once full, pushing evicts the
// oldest entry.
type history struct {
	limit   int
	entries []map[string]any
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

func (h *history) push(snapshot map[string]any) {
	if h.limit <= 0 {
		return
	}
	h.entries = append(h.entries, snapshot)
	if overflow := len(h.entries) - h.limit; overflow > 0 {
		clear(h.entries[:overflow])
		h.entries = h.entries[overflow:]
	}
}

func (h *history) pop() (map[string]any, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	last := len(h.entries) - 1
	snapshot := h.entries[last]
	h.entries[last] = nil
	h.entries = h.entries[:last]
	return snapshot, true
}

func (h *history) len() int {
	return len(h.entries)
}

func (h *history) reset() {
	clear(h.entries)
	h.entries = nil
}
