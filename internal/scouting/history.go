package scouting

// History is an ordered sequence of committed cycles plus a cursor.
// Entries below the cursor are live; entries at or above it are
// redo-pending and survive until the next commit overwrites them.
// Aggregation and submission only ever see the live view.
type History struct {
	entries []Cycle
	cursor  int
}

// Commit truncates any redo-pending tail, appends c, and moves the cursor
// past it.
func (h *History) Commit(c Cycle) {
	if h.cursor < len(h.entries) {
		h.entries = h.entries[:h.cursor]
	}
	h.entries = append(h.entries, c)
	h.cursor = len(h.entries)
}

// Undo steps the cursor back one entry. The vacated entry is retained.
// Returns false if there is nothing to undo.
func (h *History) Undo() bool {
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo steps the cursor forward over a previously undone entry.
// Returns false if there is nothing to redo.
func (h *History) Redo() bool {
	if h.cursor == len(h.entries) {
		return false
	}
	h.cursor++
	return true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// Live returns a copy of the live entries, in commit order.
func (h *History) Live() []Cycle {
	live := make([]Cycle, h.cursor)
	copy(live, h.entries[:h.cursor])
	return live
}

// Len is the number of live entries.
func (h *History) Len() int { return h.cursor }
