package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/funvibe/clever/internal/bytecode"
	"github.com/funvibe/clever/internal/codegen"
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/module"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/scope"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/vm"
)

func compileDemo(t *testing.T) *opcode.Stream {
	t.Helper()
	pool := cstring.New()
	treg := types.New(pool)
	treg.NewPrimitive("Int")
	treg.NewPrimitive("Double")
	treg.NewPrimitive("String")
	treg.NewPrimitive("Bool")
	g := codegen.New(pool, treg, module.NewRegistry(), scope.NewGlobal())
	if err := g.Generate(demoProgram()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return g.Stream()
}

func TestDemoProgramExecutesToCompletion(t *testing.T) {
	stream := compileDemo(t)
	defer stream.Destroy()

	var out bytes.Buffer
	m := vm.New(stream, &out)
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "10\n" {
		t.Fatalf("demo output = %q, want %q (0+1+2+3+4)", out.String(), "10\n")
	}
}

func TestRunBytecodeFileRejectsNamedOperandPlaceholder(t *testing.T) {
	stream := compileDemo(t)
	defer stream.Destroy()

	path := filepath.Join(t.TempDir(), "demo.cvmb")
	if err := bytecode.WriteFile(path, stream); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := runBytecodeFile(path, false)
	if err == nil {
		t.Fatalf("expected an error: demo program has NAMED variables, not persisted")
	}
}

// "echo 1 + 2;" has no variables at all, so every operand persists as a
// CONST literal and the decoded file replays cleanly.
func TestRunBytecodeFileReplaysConstOnlyProgram(t *testing.T) {
	pool := cstring.New()
	treg := types.New(pool)
	treg.NewPrimitive("Int")
	g := codegen.New(pool, treg, module.NewRegistry(), scope.NewGlobal())

	prog := constOnlyProgram()
	if err := g.Generate(prog); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	stream := g.Stream()
	defer stream.Destroy()

	path := filepath.Join(t.TempDir(), "const.cvmb")
	if err := bytecode.WriteFile(path, stream); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := runBytecodeFile(path, false); err != nil {
		t.Fatalf("runBytecodeFile: %v", err)
	}
}
