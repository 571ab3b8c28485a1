package bytecode_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/bytecode"
	"github.com/funvibe/clever/internal/codegen"
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/module"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/scope"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
)

func buildStream(t *testing.T) *opcode.Stream {
	t.Helper()
	pool := cstring.New()
	treg := types.New(pool)
	treg.NewPrimitive("Int")
	treg.NewPrimitive("String")
	g := codegen.New(pool, treg, module.NewRegistry(), scope.NewGlobal())
	prog := ast.NewBlock(
		ast.NewVarDecl("Int", "x", ast.NewIntLiteral(5)),
		ast.NewEchoStmt(ast.NewBinaryExpr(ast.OpAdd, ast.NewIdent("x"), ast.NewIntLiteral(1))),
		ast.NewEchoStmt(ast.NewStringLiteral("done")),
	)
	if err := g.Generate(prog); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return g.Stream()
}

func TestEncodeDecodeRoundTripsTagsAndJumps(t *testing.T) {
	stream := buildStream(t)
	decoded, err := bytecode.Decode(bytecode.Encode(stream))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Ops) != stream.Len() {
		t.Fatalf("decoded %d ops, want %d", len(decoded.Ops), stream.Len())
	}
	for i := 0; i < stream.Len(); i++ {
		want := stream.At(i)
		got := decoded.Ops[i]
		if got.Tag != want.Tag {
			t.Fatalf("op %d: Tag = %v, want %v", i, got.Tag, want.Tag)
		}
		if got.Jmp1 != want.Jmp1 || got.Jmp2 != want.Jmp2 {
			t.Fatalf("op %d: Jmp1/Jmp2 = %d/%d, want %d/%d", i, got.Jmp1, got.Jmp2, want.Jmp1, want.Jmp2)
		}
	}
}

// The VAR_DECL's CONST initialiser (IntLiteral 5) round-trips its literal
// value; the NAMED variable it initialises is a runtime placeholder, not a
// reconstructed Value.
func TestConstOperandsRoundTripNamedOperandsDoNot(t *testing.T) {
	stream := buildStream(t)
	decoded, err := bytecode.Decode(bytecode.Encode(stream))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	varDecl := decoded.Ops[0]
	if varDecl.Op1.IsRuntime() != true {
		t.Fatalf("VAR_DECL op1 (NAMED x) should be a runtime placeholder")
	}
	if varDecl.Op2.Kind == 0 && varDecl.Op2.Const == nil {
		t.Fatalf("VAR_DECL op2 (CONST 5) should have decoded a literal")
	}
	if varDecl.Op2.Const == nil || varDecl.Op2.Const.Type != value.INTEGER || varDecl.Op2.Const.Int() != 5 {
		t.Fatalf("VAR_DECL op2 = %+v, want CONST INTEGER 5", varDecl.Op2.Const)
	}

	lastEcho := decoded.Ops[len(decoded.Ops)-1]
	if lastEcho.Op1.Const == nil || lastEcho.Op1.Const.Type != value.STRING || lastEcho.Op1.Const.Str().Bytes != "done" {
		t.Fatalf("final ECHO op1 = %+v, want CONST STRING \"done\"", lastEcho.Op1.Const)
	}
}

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	stream := buildStream(t)
	path := filepath.Join(t.TempDir(), "prog.cvmb")
	if err := bytecode.WriteFile(path, stream); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	decoded, err := bytecode.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(decoded.Ops) != stream.Len() {
		t.Fatalf("decoded %d ops, want %d", len(decoded.Ops), stream.Len())
	}
	var tags []opcode.Tag
	for _, op := range decoded.Ops {
		tags = append(tags, op.Tag)
	}
	want := []opcode.Tag{opcode.VAR_DECL, opcode.PLUS, opcode.ECHO, opcode.ECHO}
	if diff := cmp.Diff(want, tags); diff != "" {
		t.Fatalf("tag sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := bytecode.Decode([]byte("not a cvmb file")); err == nil {
		t.Fatalf("expected an error for bad magic")
	}
}
