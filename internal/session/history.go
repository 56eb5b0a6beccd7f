package session

// defaultHistoryLimit bounds the number of undo snapshots kept
const defaultHistoryLimit = 1000

// history is a bounded stack of previous buffer values
type history struct {
	undo  []string
	limit int
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &history{limit: limit}
}

// push records the buffer value that is about to be replaced
func (h *history) push(prev string) {
	h.undo = append(h.undo, prev)
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
}

// pop returns the most recent snapshot
func (h *history) pop() (string, bool) {
	if len(h.undo) == 0 {
		return "", false
	}
	i := len(h.undo) - 1
	prev := h.undo[i]
	h.undo = h.undo[:i]
	return prev, true
}

func (h *history) clear() { h.undo = nil }

func (h *history) len() int { return len(h.undo) }
