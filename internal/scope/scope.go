// Package scope implements the lexical scope tree and symbol resolution
// used by the code generator, plus the SSA tracker that keeps emitted
// opcodes referencing a single canonical Value per live variable.
package scope

import (
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
)

// Symbol binds an interned name to either a Value (variable) or a Type
// (type alias). Exactly one of Val / Typ is non-nil.
type Symbol struct {
	Name *cstring.CString
	Val  *value.Value
	Typ  *types.Type
}

func (s *Symbol) IsType() bool { return s.Typ != nil }

// Scope owns a mapping from interned name to Symbol, a parent pointer (nil
// at global), and two child lists: ordinary lexical-block children and
// orphaned children created for the first scope of a top-level function or
// class body (spec.md §4.3).
type Scope struct {
	parent   *Scope
	symbols  map[cstring.ID]*Symbol
	children []*Scope
	orphans  []*Scope

	// orphan is true when this scope is itself an orphaned child — recorded
	// only for introspection/debugging; it does not change how getSym walks
	// upward (spec.md §4.3: "the orphan flag affects traversal of children,
	// not the upward resolution of a scope's own lookups").
	orphan bool
}

// NewGlobal creates the global scope. Created once at process start per
// spec.md §4.3. Dropping the reference lets Go's GC reclaim the tree's
// memory but decrements no RefCount; Destroy is what releases the bound
// Values.
func NewGlobal() *Scope {
	return &Scope{symbols: make(map[cstring.ID]*Symbol)}
}

// NewChild creates an ordinary lexical-block child of s.
func (s *Scope) NewChild() *Scope {
	c := &Scope{parent: s, symbols: make(map[cstring.ID]*Symbol)}
	s.children = append(s.children, c)
	return c
}

// NewOrphan creates an orphaned child of s for a function or class body.
// Orphans are walked when emitting the body but are not reachable by the
// normal child-iteration used to resolve names lexically inside s, so a
// function body never accidentally captures a sibling block's locals
// through s's child list; upward resolution from inside the orphan itself
// is unaffected (see Scope.GetSym).
func (s *Scope) NewOrphan() *Scope {
	c := &Scope{parent: s, symbols: make(map[cstring.ID]*Symbol), orphan: true}
	s.orphans = append(s.orphans, c)
	return c
}

func (s *Scope) IsOrphan() bool  { return s.orphan }
func (s *Scope) Parent() *Scope  { return s.parent }
func (s *Scope) Children() []*Scope { return s.children }
func (s *Scope) Orphans() []*Scope  { return s.orphans }

// Declare binds name to sym in this scope, overwriting any previous binding
// of the same name (shadowing is the caller's concern; Declare itself does
// not diagnose redeclaration). A previous binding's Value is released first,
// since overwriting the map entry would otherwise drop the scope's only
// reference to it without ever decrementing its RefCount.
func (s *Scope) Declare(name *cstring.CString, sym *Symbol) {
	if prev, ok := s.symbols[name.ID]; ok && prev.Val != nil {
		prev.Val.Release()
	}
	s.symbols[name.ID] = sym
}

// GetLocalSym searches the current scope only.
func (s *Scope) GetLocalSym(name *cstring.CString) (*Symbol, bool) {
	sym, ok := s.symbols[name.ID]
	return sym, ok
}

// GetSym walks parent pointers (including through orphan boundaries) until
// it finds name or reaches global without a parent.
func (s *Scope) GetSym(name *cstring.CString) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name.ID]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Destroy releases every Symbol's bound Value and recurses into children
// and orphans, matching spec.md §3.4: "destroying a scope releases every
// Symbol and decrements every bound Value."
func (s *Scope) Destroy() {
	for _, sym := range s.symbols {
		if sym.Val != nil {
			sym.Val.Release()
		}
	}
	s.symbols = nil
	for _, c := range s.children {
		c.Destroy()
	}
	for _, o := range s.orphans {
		o.Destroy()
	}
	s.children = nil
	s.orphans = nil
}
