package vm_test

import (
	"strings"
	"testing"

	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/vm"
)

func TestDisassembleListsOneLinePerOpcode(t *testing.T) {
	g := newFixture()
	prog := ast.NewBlock(
		ast.NewEchoStmt(ast.NewBinaryExpr(ast.OpAdd, ast.NewIntLiteral(1), ast.NewIntLiteral(2))),
	)
	if err := g.Generate(prog); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := vm.Disassemble(g.Stream())
	if !strings.Contains(out, "ECHO") {
		t.Fatalf("Disassemble output missing ECHO mnemonic:\n%s", out)
	}
	if strings.Count(out, "\n") == 0 {
		t.Fatalf("Disassemble produced no output")
	}
	if got, want := strings.Count(out, "jmp1="), g.Stream().Len(); got != want {
		t.Fatalf("Disassemble printed %d opcode lines, want %d:\n%s", got, want, out)
	}
}
