package module

import (
	"testing"

	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
)

func TestImportPublishesSymbols(t *testing.T) {
	reg := NewRegistry()
	pkg := NewPackage("std")
	mod := NewModule("math")
	mod.Functions["abs"] = &NativeFunc{FnName: "abs", Fn: func(args []*value.Value) (*value.Value, error) {
		return value.NewInt(value.TEMP, args[0].Int()), nil
	}}
	mod.Constants["PI"] = value.NewDouble(value.CONST, 3.14)
	pkg.Modules["math"] = mod
	reg.RegisterPackage(pkg)

	if _, ok := reg.LookupFunction("abs"); ok {
		t.Fatalf("function visible before import")
	}
	if err := reg.Import("std", ""); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, ok := reg.LookupFunction("abs"); !ok {
		t.Fatalf("function not visible after import")
	}
	if _, ok := reg.LookupConstant("PI"); !ok {
		t.Fatalf("constant not visible after import")
	}
	if pkg.State() != FullyLoaded {
		t.Fatalf("package state = %v, want FullyLoaded", pkg.State())
	}
}

func TestImportSingleModuleLeavesPackageLoaded(t *testing.T) {
	reg := NewRegistry()
	pkg := NewPackage("std")
	pkg.Modules["a"] = NewModule("a")
	pkg.Modules["b"] = NewModule("b")
	reg.RegisterPackage(pkg)

	if err := reg.Import("std", "a"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if pkg.State() != Loaded {
		t.Fatalf("package state = %v, want Loaded", pkg.State())
	}
}

func TestReimportIsNoOp(t *testing.T) {
	reg := NewRegistry()
	pkg := NewPackage("std")
	calls := 0
	mod := NewModule("a")
	mod.Init = func(flags uint32) error { calls++; return nil }
	pkg.Modules["a"] = mod
	reg.RegisterPackage(pkg)

	if err := reg.Import("std", "a"); err != nil {
		t.Fatalf("first Import: %v", err)
	}
	if err := reg.Import("std", "a"); err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if calls != 1 {
		t.Fatalf("Init called %d times, want 1 (re-import must be idempotent)", calls)
	}
}

func TestResolveMethodFallsThroughCacheMiss(t *testing.T) {
	reg := NewRegistry()
	pool := cstring.New()
	tr := types.New(pool)
	arr := tr.NewArrayTemplate()
	intType := tr.NewPrimitive("Int")
	arrInt, err := tr.Specialise(arr, []*types.Type{intType})
	if err != nil {
		t.Fatalf("Specialise: %v", err)
	}

	m, ok := reg.ResolveMethod(arrInt, pool.Intern("push"))
	if !ok {
		t.Fatalf("ResolveMethod did not find push on first (uncached) call")
	}
	m2, ok := reg.ResolveMethod(arrInt, pool.Intern("push"))
	if !ok || m2 != m {
		t.Fatalf("cached ResolveMethod returned a different method")
	}
	if _, ok := reg.ResolveMethod(arrInt, pool.Intern("nonexistent")); ok {
		t.Fatalf("ResolveMethod found a method that was never registered")
	}
}
