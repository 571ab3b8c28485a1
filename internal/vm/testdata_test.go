package vm_test

import (
	"bytes"
	"embed"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/vm"
)

//go:embed testdata/*.txtar
var fixtures embed.FS

func txtarSection(a *txtar.Archive, name string) (string, bool) {
	for _, f := range a.Files {
		if f.Name == name {
			return strings.TrimPrefix(string(f.Data), "\n"), true
		}
	}
	return "", false
}

// scenario4Program mirrors the "source" annotation in
// testdata/while_break.txtar — built in Go since this repo has no
// lexer/parser to read that annotation back (spec.md §1 Non-goal).
func scenario4Program() *ast.Block {
	return ast.NewBlock(
		ast.NewVarDecl("Int", "i", ast.NewIntLiteral(0)),
		ast.NewWhileStmt(
			ast.NewBinaryExpr(ast.OpLess, ast.NewIdent("i"), ast.NewIntLiteral(3)),
			ast.NewBlock(
				ast.NewIfStmt(
					[]ast.IfBranch{{
						Cond: ast.NewBinaryExpr(ast.OpEqual, ast.NewIdent("i"), ast.NewIntLiteral(1)),
						Body: ast.NewBlock(ast.NewBreakStmt()),
					}},
					nil,
				),
				ast.NewExprStmt(ast.NewUnaryExpr(ast.OpPreInc, ast.NewIdent("i"))),
			),
		),
		ast.NewEchoStmt(ast.NewIdent("i")),
	)
}

// TestWhileBreakFixtureMatchesDumpAndStdout round-trips scenario 4 (the
// same program codegen_test.go's TestWhileWithBreak and vm_test.go's
// TestWhileBreakLeavesNamedVariableAtBreakPoint build by hand) against a
// txtar fixture bundling the expected mnemonic-level dump and stdout, the
// end-to-end fixture format SPEC_FULL.md's test tooling section calls for.
func TestWhileBreakFixtureMatchesDumpAndStdout(t *testing.T) {
	data, err := fixtures.ReadFile("testdata/while_break.txtar")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	archive := txtar.Parse(data)

	wantStdout, ok := txtarSection(archive, "stdout")
	if !ok {
		t.Fatalf("fixture missing stdout section")
	}
	wantDump, ok := txtarSection(archive, "dump")
	if !ok {
		t.Fatalf("fixture missing dump section")
	}

	g := newFixture()
	if err := g.Generate(scenario4Program()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	stream := g.Stream()

	var out bytes.Buffer
	m := vm.New(stream, &out)
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != wantStdout {
		t.Fatalf("stdout = %q, want %q", out.String(), wantStdout)
	}

	got := vm.Disassemble(stream)
	pos := 0
	for _, mnemonic := range strings.Split(strings.TrimRight(wantDump, "\n"), "\n") {
		idx := strings.Index(got[pos:], mnemonic)
		if idx < 0 {
			t.Fatalf("disassembly missing %q in order, got:\n%s", mnemonic, got)
		}
		pos += idx + len(mnemonic)
	}
}
