package arbor

import "slices"

// History is the editor's undo/redo stack pair. Executing or recording an
// action always empties the redo stack.
type History struct {
	ctx   ActionContext
	undo  []EditorAction
	redo  []EditorAction
	limit int
}

// NewHistory creates a history resolving actions against ctx. A positive
// limit caps the undo depth; the oldest entries are dropped first.
func NewHistory(ctx ActionContext, limit int) *History {
	return &History{ctx: ctx, limit: limit}
}

// Execute applies a and pushes it onto the undo stack.
func (h *History) Execute(a EditorAction) {
	a.Apply(h.ctx)
	h.Record(a)
}

// Record pushes an action whose effect has already been applied, e.g. a drag
// that moved objects live and is committed on release.
func (h *History) Record(a EditorAction) {
	h.push(a)
	clear(h.redo)
	h.redo = h.redo[:0]
}

func (h *History) push(a EditorAction) {
	h.undo = append(h.undo, a)
	if h.limit > 0 && len(h.undo) > h.limit {
		n := len(h.undo) - h.limit
		copy(h.undo, h.undo[n:])
		clear(h.undo[len(h.undo)-n:])
		h.undo = h.undo[:len(h.undo)-n]
	}
}

// Undo reverses the most recent action. Returns false when there is nothing
// to undo.
func (h *History) Undo() bool {
	n := len(h.undo)
	if n == 0 {
		return false
	}
	a := h.undo[n-1]
	h.undo[n-1] = nil
	h.undo = h.undo[:n-1]
	a.Reverse(h.ctx)
	h.redo = append(h.redo, a)
	return true
}

// Redo re-applies the most recently undone action. Returns false when there
// is nothing to redo.
func (h *History) Redo() bool {
	n := len(h.redo)
	if n == 0 {
		return false
	}
	a := h.redo[n-1]
	h.redo[n-1] = nil
	h.redo = h.redo[:n-1]
	redo(h.ctx, a)
	h.push(a)
	return true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoActions returns the undo stack, oldest first. The returned slice MUST
// NOT be mutated.
func (h *History) UndoActions() []EditorAction { return h.undo }

// RedoActions returns the redo stack, oldest first. The returned slice MUST
// NOT be mutated.
func (h *History) RedoActions() []EditorAction { return h.redo }

// Clear empties both stacks.
func (h *History) Clear() {
	clear(h.undo)
	clear(h.redo)
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

// historyState is a copy of both stacks, restored by View.Stop.
type historyState struct {
	undo, redo []EditorAction
}

func (h *History) save() historyState {
	return historyState{undo: slices.Clone(h.undo), redo: slices.Clone(h.redo)}
}

func (h *History) restore(st historyState) {
	h.Clear()
	h.undo = append(h.undo, st.undo...)
	h.redo = append(h.redo, st.redo...)
}
