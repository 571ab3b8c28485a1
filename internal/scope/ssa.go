package scope

import (
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/value"
)

// block is one frame of the SSA tracker — the set of NAMED values live in
// the current lexical block.
type block struct {
	vars map[cstring.ID]*value.Value
}

// Tracker is the lightweight auxiliary that sits on top of the scope tree
// inside the code generator. pushVar records a NAMED value as live in the
// current block; fetchVar returns the tracked instance so opcodes reference
// the canonical Value rather than a fresh one every time a name is read.
type Tracker struct {
	frames []*block
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// NewBlock pushes a tracker frame (spec.md §4.3's newBlock).
func (t *Tracker) NewBlock() {
	t.frames = append(t.frames, &block{vars: make(map[cstring.ID]*value.Value)})
}

// EndBlock pops a tracker frame and releases the one reference that frame
// took on each of its values in PushVar. A value that an enclosing frame
// also tracks keeps that frame's own reference, so it stays live until the
// enclosing block ends.
func (t *Tracker) EndBlock() {
	n := len(t.frames)
	if n == 0 {
		return
	}
	top := t.frames[n-1]
	t.frames = t.frames[:n-1]
	for _, v := range top.vars {
		v.Release()
	}
}

// PushVar records v (which must be NAMED) as live in the current block. v's
// reference count is incremented; the tracker owns one reference until
// EndBlock releases it.
func (t *Tracker) PushVar(name *cstring.CString, v *value.Value) {
	if len(t.frames) == 0 {
		t.NewBlock()
	}
	top := t.frames[len(t.frames)-1]
	if prev, ok := top.vars[name.ID]; ok {
		prev.Release()
	}
	top.vars[name.ID] = v.AddRef()
}

// FetchVar returns the tracked canonical instance for name, searching from
// the innermost frame outward, or nil if name is not currently tracked.
func (t *Tracker) FetchVar(name *cstring.CString) *value.Value {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if v, ok := t.frames[i].vars[name.ID]; ok {
			return v
		}
	}
	return nil
}

// Depth reports how many frames are currently pushed, for tests.
func (t *Tracker) Depth() int { return len(t.frames) }
