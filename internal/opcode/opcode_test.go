package opcode

import (
	"testing"

	"github.com/funvibe/clever/internal/value"
)

func TestNewTakesReferences(t *testing.T) {
	op1 := value.NewInt(value.CONST, 1)
	result := value.NewInt(value.NAMED, 0)
	op := New(PLUS, op1, nil, result)
	if op1.RefCount != 2 {
		t.Fatalf("op1.RefCount = %d, want 2", op1.RefCount)
	}
	if result.RefCount != 2 {
		t.Fatalf("result.RefCount = %d, want 2", result.RefCount)
	}
	op.Release()
	if op1.RefCount != 1 || result.RefCount != 1 {
		t.Fatalf("Release did not drop exactly one ref each: op1=%d result=%d", op1.RefCount, result.RefCount)
	}
}

func TestStreamAppendAndDestroy(t *testing.T) {
	s := NewStream()
	a := value.NewInt(value.CONST, 1)
	idx := s.Append(New(ECHO, a, nil, nil))
	if idx != 0 {
		t.Fatalf("first Append index = %d, want 0", idx)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	s.Destroy()
	if a.RefCount != 1 {
		t.Fatalf("Destroy did not release the stream's reference: a.RefCount = %d", a.RefCount)
	}
}

func TestSharedOperandSurvivesDoubleRelease(t *testing.T) {
	// A single Value appearing as both op1 and result must survive two
	// Release calls (spec.md §4.5: "duplicate references ... rely on
	// refcount semantics to survive multiple releases").
	shared := value.NewInt(value.NAMED, 9)
	op := New(ASSIGN, shared, nil, shared)
	if shared.RefCount != 3 {
		t.Fatalf("shared.RefCount = %d, want 3", shared.RefCount)
	}
	op.Release()
	if shared.RefCount != 1 {
		t.Fatalf("shared.RefCount after release = %d, want 1", shared.RefCount)
	}
}
