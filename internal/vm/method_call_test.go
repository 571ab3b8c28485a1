package vm_test

import (
	"bytes"
	"testing"

	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/codegen"
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/module"
	"github.com/funvibe/clever/internal/scope"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/vm"
)

// TestArrayMethodCallRunsThroughMCALL drives a MethodCallExpr end to end:
// codegen resolves "push"/"size" against Array<Int>'s method table and
// emits MCALL, the VM executes it via execCall, and the echoed size
// reflects the two pushes. internal/types' own tests exercise the method
// table directly against a bare Value; this is the same feature driven
// through the full compile-and-execute pipeline instead.
func TestArrayMethodCallRunsThroughMCALL(t *testing.T) {
	pool := cstring.New()
	treg := types.New(pool)
	intType := treg.NewPrimitive("Int")
	arrayTpl := treg.NewArrayTemplate()
	if _, err := treg.Specialise(arrayTpl, []*types.Type{intType}); err != nil {
		t.Fatalf("Specialise: %v", err)
	}
	mreg := module.NewRegistry()
	g := codegen.New(pool, treg, mreg, scope.NewGlobal())

	prog := ast.NewBlock(
		ast.NewVarDecl("Array<Int>", "arr", nil),
		ast.NewExprStmt(ast.NewMethodCallExpr(ast.NewIdent("arr"), "push", ast.NewIntLiteral(7))),
		ast.NewExprStmt(ast.NewMethodCallExpr(ast.NewIdent("arr"), "push", ast.NewIntLiteral(8))),
		ast.NewEchoStmt(ast.NewMethodCallExpr(ast.NewIdent("arr"), "size")),
	)
	if err := g.Generate(prog); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var out bytes.Buffer
	m := vm.New(g.Stream(), &out)
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "2\n" {
		t.Fatalf("output = %q, want %q", out.String(), "2\n")
	}
}

// An unresolved method name on a known type is a compile-time error, never
// a runtime one — codegen must reject it before MCALL is ever emitted.
func TestMethodCallToUnknownMethodIsCompileError(t *testing.T) {
	pool := cstring.New()
	treg := types.New(pool)
	intType := treg.NewPrimitive("Int")
	arrayTpl := treg.NewArrayTemplate()
	if _, err := treg.Specialise(arrayTpl, []*types.Type{intType}); err != nil {
		t.Fatalf("Specialise: %v", err)
	}
	mreg := module.NewRegistry()
	g := codegen.New(pool, treg, mreg, scope.NewGlobal())

	prog := ast.NewBlock(
		ast.NewVarDecl("Array<Int>", "arr", nil),
		ast.NewExprStmt(ast.NewMethodCallExpr(ast.NewIdent("arr"), "nonexistent")),
	)
	if err := g.Generate(prog); err == nil {
		t.Fatalf("expected a compile error for an unresolved method")
	}
}
