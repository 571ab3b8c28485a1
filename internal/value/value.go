// Package value implements the tagged, reference-counted runtime cell shared
// by the compiler and the virtual machine.
package value

import (
	"fmt"
	"math"

	"github.com/funvibe/clever/internal/cstring"
)

// TypeDescriptor is the minimal view a USER payload needs of its runtime
// type. types.Type satisfies this without value importing the types
// package, keeping the dependency one-directional (types -> value, for the
// templated-container method tables that operate on *Value).
type TypeDescriptor interface {
	TypeName() string
}

// Releasable lets a USER payload participate in reference-counted teardown.
// A payload that itself captures a *Value (codegen's boundMethod, wrapping
// an MCALL's receiver) implements this so Release can reach it without
// value importing codegen.
type Releasable interface {
	Release()
}

// Kind is the compile-time role of a Value.
type Kind uint8

const (
	UNKNOWN Kind = iota
	NAMED        // a symbolic name
	CONST        // a literal
	TEMP         // a scratch slot holding another Value by reference
)

// Type is the runtime payload shape. Named ValueType to avoid colliding with
// types.Type, the type-registry descriptor referenced by USER payloads.
type ValueType uint8

const (
	NONE ValueType = iota
	INTEGER
	DOUBLE
	STRING
	BOOLEAN
	VECTOR
	USER
)

// Status tracks mutation for constant folding: a CONST is never MODIFIED,
// and folding a NAMED operand that has been MODIFIED since it was read is
// unsound (see Value.Status doc and codegen's fold()).
type Status uint8

const (
	SET Status = iota
	UNSET
	MODIFIED
)

// Value is a reference-counted, tagged runtime cell. A Value is always
// heap-allocated and handed around by pointer; RefCount tracks every
// outstanding reference (operand slot, symbol binding, vector entry, TEMP
// inner value). Destroying the last reference (RefCount reaching 0) must go
// through Release, which recursively releases the payload.
type Value struct {
	Kind   Kind
	Type   ValueType
	Status Status

	RefCount int

	i    int64
	f    float64
	b    bool
	s    *cstring.CString
	vec  []*Value
	user interface{}
	utyp TypeDescriptor

	inner *Value // TEMP's single inner reference
}

// --- constructors ---

func NewInt(k Kind, v int64) *Value {
	return &Value{Kind: k, Type: INTEGER, Status: initialStatus(k), i: v, RefCount: 1}
}

func NewDouble(k Kind, v float64) *Value {
	return &Value{Kind: k, Type: DOUBLE, Status: initialStatus(k), f: v, RefCount: 1}
}

func NewBool(k Kind, v bool) *Value {
	return &Value{Kind: k, Type: BOOLEAN, Status: initialStatus(k), b: v, RefCount: 1}
}

func NewString(k Kind, s *cstring.CString) *Value {
	return &Value{Kind: k, Type: STRING, Status: initialStatus(k), s: s, RefCount: 1}
}

func NewVector(k Kind, items []*Value) *Value {
	for _, it := range items {
		it.AddRef()
	}
	return &Value{Kind: k, Type: VECTOR, Status: initialStatus(k), vec: items, RefCount: 1}
}

func NewUser(k Kind, t TypeDescriptor, payload interface{}) *Value {
	return &Value{Kind: k, Type: USER, Status: initialStatus(k), utyp: t, user: payload, RefCount: 1}
}

// NewTemp allocates an empty TEMP scratch slot with no inner value.
func NewTemp() *Value {
	return &Value{Kind: TEMP, Type: NONE, Status: SET, RefCount: 1}
}

func NewUnset() *Value {
	return &Value{Kind: UNKNOWN, Type: NONE, Status: UNSET, RefCount: 1}
}

func initialStatus(k Kind) Status {
	if k == CONST {
		return SET
	}
	return SET
}

// --- accessors ---

func (v *Value) HasName() bool { return v.Kind == NAMED }

func (v *Value) Int() int64             { return v.i }
func (v *Value) Double() float64        { return v.f }
func (v *Value) Bool() bool             { return v.b }
func (v *Value) Str() *cstring.CString  { return v.s }
func (v *Value) Vec() []*Value          { return v.vec }
func (v *Value) User() interface{}      { return v.user }
func (v *Value) UserType() TypeDescriptor { return v.utyp }

// SetUserType attaches a type descriptor to any Value, not only USER ones.
// The code generator uses this to remember the declared Type of a NAMED
// variable so a later method call on it can resolve against the type
// registry's method table.
func (v *Value) SetUserType(t TypeDescriptor) { v.utyp = t }
func (v *Value) Inner() *Value          { return v.inner }

// SetInner replaces a TEMP's inner reference, releasing whatever it held
// before (invariant 3.2.b: a TEMP holds at most one inner Value). The
// inner's runtime shape is mirrored onto the TEMP itself so every ordinary
// accessor (Type, Int, Double, Str, ToString, IsZero, ...) reads the
// computed result directly without every call site having to special-case
// "dereference through inner first" — the mirrored vec slice is read-only
// from the TEMP's side; ownership and release of its entries stay with the
// inner (see Release's Kind == TEMP exception).
func (v *Value) SetInner(n *Value) {
	if v.Kind != TEMP {
		panic("SetInner on non-TEMP value")
	}
	if n != nil {
		n.AddRef()
	}
	if v.inner != nil {
		v.inner.Release()
	}
	v.inner = n
	if n != nil {
		v.Type = n.Type
		v.i = n.i
		v.f = n.f
		v.b = n.b
		v.s = n.s
		v.vec = n.vec
		v.user = n.user
		v.utyp = n.utyp
	} else {
		v.Type = NONE
	}
}

// --- refcounting ---

// AddRef increments the reference count and returns the receiver, so calls
// can be chained at the point a reference is stored.
func (v *Value) AddRef() *Value {
	if v == nil {
		return v
	}
	v.RefCount++
	return v
}

// Release decrements the reference count and, on reaching zero, recursively
// releases the payload: a VECTOR releases every entry, a TEMP releases its
// inner value. Invariant 3.2.a: RefCount never goes negative; a double
// release past zero is a programming error and panics in debug builds.
func (v *Value) Release() {
	if v == nil {
		return
	}
	v.RefCount--
	if v.RefCount > 0 {
		return
	}
	if v.RefCount < 0 {
		debugAssertNonNegative(v)
		return
	}
	switch v.Type {
	case VECTOR:
		// A TEMP with an inner value holds a mirror of the inner's vec slice
		// (see SetInner); the inner's own Release, just below, is the one
		// that actually owns and releases those entries. Releasing them here
		// too would double release every item a TEMP ever wrapped around a
		// VECTOR result. A TEMP built directly by NewVector owns its entries.
		if v.Kind != TEMP || v.inner == nil {
			for _, it := range v.vec {
				it.Release()
			}
		}
		v.vec = nil
	case USER:
		if r, ok := v.user.(Releasable); ok {
			r.Release()
		}
		v.user = nil
	}
	if v.Kind == TEMP && v.inner != nil {
		v.inner.Release()
		v.inner = nil
	}
}

// MarkModified flips Status to MODIFIED and asserts a CONST is never
// modified (invariant 3.2.c).
func (v *Value) MarkModified() {
	if v.Kind == CONST {
		panic("attempt to modify a CONST value")
	}
	v.Status = MODIFIED
}

// ToString renders the value for ECHO / interpolation. Strings return their
// interned bytes directly (no allocation); every other kind allocates a
// scratch, non-interned representation the caller is expected to pair with
// cstring.FreeNonInterned once it is no longer needed.
func (v *Value) ToString() string {
	switch v.Type {
	case INTEGER:
		return fmt.Sprintf("%d", v.i)
	case DOUBLE:
		return formatDouble(v.f)
	case BOOLEAN:
		if v.b {
			return "true"
		}
		return "false"
	case STRING:
		if v.s == nil {
			return ""
		}
		return v.s.Bytes
	case VECTOR:
		out := "["
		for i, it := range v.vec {
			if i > 0 {
				out += ", "
			}
			out += it.ToString()
		}
		return out + "]"
	case USER:
		return fmt.Sprintf("<user:%v>", v.user)
	default:
		return ""
	}
}

func formatDouble(f float64) string {
	if math.Trunc(f) == f && !math.IsInf(f, 0) {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%g", f)
}

// AppendVec appends to a VECTOR's backing slice, taking a reference on the
// appended item. Used by the Array<T> built-in method set (push).
func (v *Value) AppendVec(item *Value) {
	item.AddRef()
	v.vec = append(v.vec, item)
}

// TruncateVec shrinks a VECTOR to n entries, releasing everything dropped.
// Used by the Array<T> built-in method set (pop).
func (v *Value) TruncateVec(n int) {
	for _, it := range v.vec[n:] {
		it.Release()
	}
	v.vec = v.vec[:n]
}

// Assign copies src's runtime payload into v in place — the VM's ASSIGN and
// VAR_DECL (with-initialiser) handlers both reduce to this. v's Kind and
// RefCount are untouched; only the runtime shape changes, which is why a
// NAMED value can be assigned a different Type across its lifetime (spec.md
// §4.4: NAMED operands are compatible at compile time regardless of Type —
// the handler is where any real mismatch would have to surface, and this
// language leaves reassignment across Types permitted, same as any other
// dynamically-typed runtime payload swap).
func (v *Value) Assign(src *Value) {
	if v.Type == VECTOR {
		for _, it := range v.vec {
			it.Release()
		}
	}
	v.Type = src.Type
	v.i = src.i
	v.f = src.f
	v.b = src.b
	v.s = src.s
	v.user = src.user
	v.utyp = src.utyp
	if src.Type == VECTOR {
		v.vec = make([]*Value, len(src.vec))
		copy(v.vec, src.vec)
		for _, it := range v.vec {
			it.AddRef()
		}
	} else {
		v.vec = nil
	}
}

// AddInt adds delta to an INTEGER value's payload in place and returns the
// value it held beforehand — used by the PRE_INC/POS_INC/PRE_DEC/POS_DEC
// handlers to produce either the pre- or post-mutation image.
func (v *Value) AddInt(delta int64) int64 {
	old := v.i
	v.i += delta
	return old
}

// AddDouble is AddInt's DOUBLE counterpart.
func (v *Value) AddDouble(delta float64) float64 {
	old := v.f
	v.f += delta
	return old
}

// IsZero reports whether the value is falsy for JMPZ purposes: zero integer,
// 0.0 double, false boolean, empty string, empty vector. USER values are
// never zero.
func (v *Value) IsZero() bool {
	switch v.Type {
	case INTEGER:
		return v.i == 0
	case DOUBLE:
		return v.f == 0
	case BOOLEAN:
		return !v.b
	case STRING:
		return v.s == nil || v.s.Bytes == ""
	case VECTOR:
		return len(v.vec) == 0
	default:
		return false
	}
}
