// Command clever is the CLI driver for the compile-and-execute core
// (spec.md §6): "Execute a script file; exit code 0 on success, 1 on any
// compile or runtime error, with the message written to standard error
// before exit." A lexer/parser is an explicit external collaborator (not
// built here), so the "script file" this driver executes is a persisted
// bytecode file (internal/bytecode's .cvmb container) rather than source
// text; the "demo" subcommand exercises the full compile side of the
// pipeline by driving internal/codegen over a fixed syntax tree, standing
// in for what a parser would otherwise hand it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/clever/internal/bytecode"
	"github.com/funvibe/clever/internal/codegen"
	"github.com/funvibe/clever/internal/config"
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/module"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/scope"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
	"github.com/funvibe/clever/internal/vm"
)

func main() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	dump := false
	var rest []string
	for _, arg := range os.Args[1:] {
		if arg == "-dump" || arg == "--dump" {
			dump = true
			continue
		}
		rest = append(rest, arg)
	}

	var err error
	switch {
	case len(rest) >= 1 && rest[0] == "demo":
		err = runDemo(dump, rest[1:])
	case len(rest) >= 1 && rest[0] == "run":
		if len(rest) < 2 {
			usage()
			os.Exit(1)
		}
		err = runBytecodeFile(rest[1], dump)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: clever demo [-o <file>]")
	fmt.Fprintln(os.Stderr, "       clever run <file.cvmb>")
}

// runDemo compiles the embedded demo program, optionally writing it to the
// configured bytecode cache, then executes it.
func runDemo(dump bool, args []string) error {
	cfg, err := config.Load("clever.yaml")
	if err != nil {
		return fmt.Errorf("loading clever.yaml: %w", err)
	}

	var outPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			outPath = args[i+1]
			i++
		}
	}

	pool := cstring.New()
	treg := types.New(pool)
	treg.NewPrimitive("Int")
	treg.NewPrimitive("Double")
	treg.NewPrimitive("String")
	treg.NewPrimitive("Bool")
	g := codegen.New(pool, treg, module.NewRegistry(), scope.NewGlobal())

	if err := g.Generate(demoProgram()); err != nil {
		return err
	}
	stream := g.Stream()
	defer stream.Destroy()

	if dump {
		fmt.Fprint(os.Stderr, vm.Disassemble(stream))
	}

	if outPath == "" && cfg.CacheBytecode && cfg.BytecodeCacheDir != "" {
		outPath = filepath.Join(cfg.BytecodeCacheDir, "demo"+config.BytecodeExt)
	}
	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("creating bytecode cache dir: %w", err)
		}
		if err := bytecode.WriteFile(outPath, stream); err != nil {
			return fmt.Errorf("writing bytecode file: %w", err)
		}
	}

	m := vm.New(stream, os.Stdout)
	return m.Run()
}

// runBytecodeFile loads a persisted .cvmb file and executes it. Only
// CONST-literal operands survive the round trip (internal/bytecode's
// documented scope limitation); a NAMED/TEMP placeholder in the decoded
// stream means the original program had variables and cannot be replayed
// from disk alone, so this reports a clear error instead of running a
// program with silently empty operands.
func runBytecodeFile(path string, dump bool) error {
	decoded, err := bytecode.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	stream := opcode.NewStream()
	for i, op := range decoded.Ops {
		op1, err := rebuildOperand(op.Op1)
		if err != nil {
			return fmt.Errorf("op %d op1: %w", i, err)
		}
		op2, err := rebuildOperand(op.Op2)
		if err != nil {
			return fmt.Errorf("op %d op2: %w", i, err)
		}
		result, err := rebuildOperand(op.Result)
		if err != nil {
			return fmt.Errorf("op %d result: %w", i, err)
		}
		rebuilt := opcode.New(op.Tag, op1, op2, result)
		rebuilt.Jmp1, rebuilt.Jmp2 = op.Jmp1, op.Jmp2
		stream.Append(rebuilt)
	}
	defer stream.Destroy()

	if dump {
		fmt.Fprint(os.Stderr, vm.Disassemble(stream))
	}

	m := vm.New(stream, os.Stdout)
	return m.Run()
}

func rebuildOperand(op *bytecode.Operand) (*value.Value, error) {
	if op == nil || op.IsNil() {
		return nil, nil
	}
	if op.IsRuntime() {
		return nil, fmt.Errorf("bytecode file references a variable not persisted on disk; recompile from source")
	}
	return op.Const, nil
}
