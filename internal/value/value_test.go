package value

import (
	"testing"

	"github.com/funvibe/clever/internal/cstring"
)

func TestRefCountLifecycle(t *testing.T) {
	v := NewInt(TEMP, 42)
	if v.RefCount != 1 {
		t.Fatalf("RefCount = %d, want 1", v.RefCount)
	}
	v.AddRef()
	if v.RefCount != 2 {
		t.Fatalf("RefCount after AddRef = %d, want 2", v.RefCount)
	}
	v.Release()
	if v.RefCount != 1 {
		t.Fatalf("RefCount after one Release = %d, want 1", v.RefCount)
	}
	v.Release()
	if v.RefCount != 0 {
		t.Fatalf("RefCount after final Release = %d, want 0", v.RefCount)
	}
}

func TestVectorReleaseCascades(t *testing.T) {
	a := NewInt(CONST, 1)
	b := NewInt(CONST, 2)
	vec := NewVector(TEMP, []*Value{a, b})
	if a.RefCount != 2 { // one from NewInt, one from NewVector's AddRef
		t.Fatalf("a.RefCount = %d, want 2", a.RefCount)
	}
	vec.Release()
	if a.RefCount != 1 || b.RefCount != 1 {
		t.Fatalf("releasing vector did not decrement entries: a=%d b=%d", a.RefCount, b.RefCount)
	}
}

func TestTempSetInnerReleasesPrevious(t *testing.T) {
	tmp := NewTemp()
	first := NewInt(CONST, 1)
	second := NewInt(CONST, 2)
	tmp.SetInner(first)
	if first.RefCount != 2 {
		t.Fatalf("first.RefCount = %d, want 2", first.RefCount)
	}
	tmp.SetInner(second)
	if first.RefCount != 1 {
		t.Fatalf("replacing inner did not release previous: first.RefCount = %d, want 1", first.RefCount)
	}
	if second.RefCount != 2 {
		t.Fatalf("second.RefCount = %d, want 2", second.RefCount)
	}
}

func TestConstMarkModifiedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic marking a CONST value as MODIFIED")
		}
	}()
	c := NewInt(CONST, 1)
	c.MarkModified()
}

func TestIsZero(t *testing.T) {
	pool := cstring.New()
	cases := []struct {
		v    *Value
		zero bool
	}{
		{NewInt(CONST, 0), true},
		{NewInt(CONST, 1), false},
		{NewDouble(CONST, 0), true},
		{NewBool(CONST, false), true},
		{NewBool(CONST, true), false},
		{NewString(CONST, pool.Intern("")), true},
		{NewString(CONST, pool.Intern("x")), false},
		{NewVector(CONST, nil), true},
	}
	for _, c := range cases {
		if got := c.v.IsZero(); got != c.zero {
			t.Fatalf("IsZero(%v) = %v, want %v", c.v.ToString(), got, c.zero)
		}
	}
}

func TestToString(t *testing.T) {
	pool := cstring.New()
	if got := NewInt(CONST, 3).ToString(); got != "3" {
		t.Fatalf("ToString() = %q", got)
	}
	if got := NewString(CONST, pool.Intern("abc")).ToString(); got != "abc" {
		t.Fatalf("ToString() = %q", got)
	}
}
