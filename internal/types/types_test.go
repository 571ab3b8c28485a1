package types

import (
	"testing"

	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/value"
)

func newRegistry() (*Registry, *cstring.Pool) {
	pool := cstring.New()
	return New(pool), pool
}

func TestSpecialiseIsSingleton(t *testing.T) {
	reg, _ := newRegistry()
	intType := reg.NewPrimitive("Int")
	arrayTpl := reg.NewArrayTemplate()

	a1, err := reg.Specialise(arrayTpl, []*Type{intType})
	if err != nil {
		t.Fatalf("Specialise: %v", err)
	}
	a2, err := reg.Specialise(arrayTpl, []*Type{intType})
	if err != nil {
		t.Fatalf("Specialise: %v", err)
	}
	if a1 != a2 {
		t.Fatalf("Array<Int> specialised twice into distinct descriptors: %p vs %p", a1, a2)
	}
	if a1.Name.Bytes != "Array<Int>" {
		t.Fatalf("specialised name = %q, want Array<Int>", a1.Name.Bytes)
	}
	if len(a1.Methods) == 0 {
		t.Fatalf("specialised Array<Int> has no methods")
	}
}

func TestCheckTemplateArgsArity(t *testing.T) {
	reg, _ := newRegistry()
	intType := reg.NewPrimitive("Int")
	strType := reg.NewPrimitive("String")
	arrayTpl := reg.NewArrayTemplate()

	if err := CheckTemplateArgs(arrayTpl, []*Type{intType, strType}); err == nil {
		t.Fatalf("expected arity error for 2 args to a 1-arity template")
	}
	if _, err := reg.Specialise(arrayTpl, []*Type{intType, strType}); err == nil {
		t.Fatalf("expected Specialise to reject wrong arity")
	}
}

func TestLookup(t *testing.T) {
	reg, pool := newRegistry()
	reg.NewPrimitive("Int")
	if _, ok := reg.Lookup(pool.Intern("Int")); !ok {
		t.Fatalf("Int not found after registration")
	}
	if _, ok := reg.LookupByString("Nonexistent"); ok {
		t.Fatalf("found a type that was never registered")
	}
}

func TestArrayMethodsOperateOnVector(t *testing.T) {
	reg, _ := newRegistry()
	intType := reg.NewPrimitive("Int")
	arrayTpl := reg.NewArrayTemplate()
	arrInt, _ := reg.Specialise(arrayTpl, []*Type{intType})

	pushM, ok := arrInt.Method(reg.pool.Intern("push"))
	if !ok {
		t.Fatalf("push method missing")
	}
	arr := value.NewVector(value.TEMP, nil)
	if _, err := pushM.Fn(arr, []*value.Value{value.NewInt(value.CONST, 7)}); err != nil {
		t.Fatalf("push: %v", err)
	}
	sizeM, _ := arrInt.Method(reg.pool.Intern("size"))
	sz, err := sizeM.Fn(arr, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if sz.Int() != 1 {
		t.Fatalf("size after one push = %d, want 1", sz.Int())
	}
}

// pop must hand back a popped element that is still intact: truncating the
// backing slice releases every dropped slot, and a popped element that was
// itself an Array must not have its own contents torn down in the process.
func TestArrayPopReturnsIntactNestedElement(t *testing.T) {
	reg, _ := newRegistry()
	intType := reg.NewPrimitive("Int")
	arrayTpl := reg.NewArrayTemplate()
	arrInt, _ := reg.Specialise(arrayTpl, []*Type{intType})
	arrArrInt, _ := reg.Specialise(arrayTpl, []*Type{arrInt})

	inner := value.NewVector(value.NAMED, nil)
	pushInt, _ := arrInt.Method(reg.pool.Intern("push"))
	if _, err := pushInt.Fn(inner, []*value.Value{value.NewInt(value.CONST, 1)}); err != nil {
		t.Fatalf("push into inner: %v", err)
	}
	if _, err := pushInt.Fn(inner, []*value.Value{value.NewInt(value.CONST, 2)}); err != nil {
		t.Fatalf("push into inner: %v", err)
	}

	outer := value.NewVector(value.TEMP, nil)
	pushOuter, _ := arrArrInt.Method(reg.pool.Intern("push"))
	if _, err := pushOuter.Fn(outer, []*value.Value{inner}); err != nil {
		t.Fatalf("push inner into outer: %v", err)
	}
	// push took its own reference; drop the constructor's, as codegen does
	// once a literal's ownership has moved into the container (the shape
	// that exposes the bug: the vector slot is the element's only owner by
	// the time pop runs).
	inner.Release()

	popOuter, ok := arrArrInt.Method(reg.pool.Intern("pop"))
	if !ok {
		t.Fatalf("pop method missing")
	}
	popped, err := popOuter.Fn(outer, nil)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(popped.Vec()) != 2 {
		t.Fatalf("popped element has %d entries, want 2 (push/push before pop)", len(popped.Vec()))
	}
	if popped.Vec()[0].Int() != 1 || popped.Vec()[1].Int() != 2 {
		t.Fatalf("popped element contents = %v, want [1, 2]", popped.Vec())
	}
}
