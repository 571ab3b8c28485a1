// Package vm implements the linear opcode interpreter: spec.md §4.5's
// single-threaded, handler-per-opcode execution loop with no implicit
// operand stack. Per spec.md §9, Tag doubles as the handler selector for a
// dense switch here, the alternative the spec recommends over a stored
// function pointer per opcode.
package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/module"
	"github.com/funvibe/clever/internal/opcode"
)

// VM holds the only state execution needs: the opcode stream, a program
// counter, and the output sink ECHO writes to. No call stack, no operand
// stack — every opcode's inputs and outputs live in its own op1/op2/result
// slots (spec.md §4.5).
type VM struct {
	stream *opcode.Stream
	pc     int
	out    *bufio.Writer
}

// New creates a VM over stream, writing ECHO output to w (os.Stdout if nil).
func New(stream *opcode.Stream, w io.Writer) *VM {
	if w == nil {
		w = os.Stdout
	}
	return &VM{stream: stream, out: bufio.NewWriter(w)}
}

// PC exposes the current program counter, mainly for tests asserting
// termination state (spec.md §8 scenario 4: "the final PC is one past the
// loop's trailing JMP").
func (m *VM) PC() int { return m.pc }

// Run executes the stream to completion. Returns the first fatal
// diagnostic, if any; the caller (cmd/clever) formats it and picks the
// process exit code.
func (m *VM) Run() error {
	defer m.out.Flush()
	n := m.stream.Len()
	for m.pc >= 0 && m.pc < n {
		op := m.stream.At(m.pc)
		next, err := m.exec(op)
		if err != nil {
			return err
		}
		if next >= 0 {
			m.pc = next
		} else {
			m.pc++
		}
	}
	return nil
}

// exec dispatches one opcode. A non-negative first return value is the new
// PC (the opcode rewrote control flow); -1 means "advance by one".
func (m *VM) exec(op *opcode.Opcode) (int, error) {
	switch op.Tag {
	case opcode.ECHO:
		return -1, m.execEcho(op)
	case opcode.PLUS, opcode.MINUS, opcode.MULT, opcode.DIV, opcode.MOD:
		return -1, m.execArith(op)
	case opcode.BW_OR, opcode.BW_XOR, opcode.BW_AND:
		return -1, m.execBitwise(op)
	case opcode.GREATER, opcode.LESS, opcode.GREATER_EQUAL, opcode.LESS_EQUAL, opcode.EQUAL, opcode.NOT_EQUAL:
		return -1, m.execCompare(op)
	case opcode.PRE_INC, opcode.POS_INC, opcode.PRE_DEC, opcode.POS_DEC:
		return -1, m.execIncDec(op)
	case opcode.JMP:
		return op.Jmp2, nil
	case opcode.JMPZ:
		if op.Op1.IsZero() {
			return op.Jmp1, nil
		}
		return -1, nil
	case opcode.BREAK:
		return op.Jmp1, nil
	case opcode.ASSIGN:
		op.Op1.Assign(op.Op2)
		op.Op1.MarkModified()
		return -1, nil
	case opcode.VAR_DECL:
		if op.Op2 != nil {
			op.Op1.Assign(op.Op2)
		}
		return -1, nil
	case opcode.FCALL, opcode.MCALL:
		return -1, m.execCall(op)
	default:
		return -1, diag.NewRuntimeError("unhandled opcode %s", op.Tag)
	}
}

func (m *VM) execEcho(op *opcode.Opcode) error {
	m.out.WriteString(op.Op1.ToString())
	m.out.WriteByte('\n')
	return nil
}

// execCall backs both FCALL and MCALL: codegen wraps a free-function lookup
// (module.NativeFunc) and a resolved method (codegen's unexported
// boundMethod) identically, as a USER payload implementing module.Callable.
// The VM never needs to know which concrete type it is holding, only that
// it satisfies Name()/Call() — the duck-typed boundary this split is built
// on.
func (m *VM) execCall(op *opcode.Opcode) error {
	callable, ok := op.Op1.User().(module.Callable)
	if !ok {
		return diag.NewRuntimeError("call to a nulled or non-callable value")
	}
	ret, err := callable.Call(op.Op2.Vec())
	if err != nil {
		return diag.NewRuntimeError("%s: %v", callable.Name(), err)
	}
	op.Result.SetInner(ret)
	return nil
}
