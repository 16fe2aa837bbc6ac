package editor

// DefaultHistoryLimit is the number of snapshots retained when no limit is configured
const DefaultHistoryLimit = 50

// HistoryStack is a linear undo history of full snapshots with a cursor.
// Once initialized 0 <= cursor < Len() always holds.
type HistoryStack struct {
	entries []Snapshot
	cursor  int
	limit   int
}

// NewHistoryStack starts a history holding only initial. A limit below 1 selects DefaultHistoryLimit.
func NewHistoryStack(initial Snapshot, limit int) *HistoryStack {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStack{
		entries: []Snapshot{initial},
		limit:   limit,
	}
}

// Reset drops all entries and starts over from initial
func (h *HistoryStack) Reset(initial Snapshot) {
	h.entries = []Snapshot{initial}
	h.cursor = 0
}

// Push discards every entry after the cursor, appends s and moves the cursor onto it.
// When the stack grows past the limit the oldest entries are evicted.
func (h *HistoryStack) Push(s Snapshot) {
	next := make([]Snapshot, h.cursor+1, h.cursor+2)
	copy(next, h.entries[:h.cursor+1])
	next = append(next, s)

	if over := len(next) - h.limit; over > 0 {
		next = next[over:]
	}
	h.entries = next
	h.cursor = len(next) - 1
}

// Undo moves the cursor back one entry and returns that snapshot.
// It returns false at the oldest retained entry.
func (h *HistoryStack) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward one entry and returns that snapshot.
// It returns false at the newest entry.
func (h *HistoryStack) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

func (h *HistoryStack) CanUndo() bool { return h.cursor > 0 }

func (h *HistoryStack) CanRedo() bool { return h.cursor < len(h.entries)-1 }

func (h *HistoryStack) Len() int { return len(h.entries) }

func (h *HistoryStack) Cursor() int { return h.cursor }

func (h *HistoryStack) Limit() int { return h.limit }

// Current returns the snapshot under the cursor
func (h *HistoryStack) Current() Snapshot {
	return h.entries[h.cursor]
}

// Rewrite replaces every retained entry with fn(entry), keeping the cursor
func (h *HistoryStack) Rewrite(fn func(Snapshot) Snapshot) {
	next := make([]Snapshot, len(h.entries))
	for i, s := range h.entries {
		next[i] = fn(s)
	}
	h.entries = next
}
