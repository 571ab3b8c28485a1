package vm

import (
	"math"

	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/value"
)

// storeResult lands a freshly computed scratch Value into an opcode's result
// slot. A TEMP result (the common case — every non-compound-assign binary or
// unary opcode gets a fresh TEMP from codegen) goes through SetInner. A
// compound-assign opcode reuses its NAMED left operand as both op1 and
// result (codegen's genBinaryExpr: "opcode.New(tag, lhs, rhs, lhs)"), so
// SetInner would panic (invariant 3.2.b is TEMP-only) — Assign mutates it in
// place instead, matching the ASSIGN/VAR_DECL handlers.
func storeResult(result, computed *value.Value) {
	if result.Kind == value.TEMP {
		result.SetInner(computed)
		return
	}
	result.Assign(computed)
}

// execArith backs PLUS/MINUS/MULT/DIV/MOD. spec.md §4.5 states the mixed
// INTEGER/DOUBLE promotion rule explicitly only for the comparison opcodes;
// arithmetic between a NAMED INTEGER and a NAMED DOUBLE is reachable at
// runtime (constant-folding only ever sees same-Type CONST pairs, per
// codegen's compatible()), so this promotes the same way comparisons do:
// either operand DOUBLE promotes both to DOUBLE.
func (m *VM) execArith(op *opcode.Opcode) error {
	a, b := op.Op1, op.Op2
	switch {
	case a.Type == value.STRING && b.Type == value.STRING:
		if op.Tag != opcode.PLUS {
			return diag.NewRuntimeError("operator %s is not defined for String", op.Tag)
		}
		cat := cstring.NonInterned(a.Str().Bytes + b.Str().Bytes)
		storeResult(op.Result, value.NewString(value.TEMP, cat))
		return nil
	case a.Type == value.DOUBLE || b.Type == value.DOUBLE:
		x, y := asDouble(a), asDouble(b)
		r, err := arithDouble(op.Tag, x, y)
		if err != nil {
			return err
		}
		storeResult(op.Result, value.NewDouble(value.TEMP, r))
		return nil
	case a.Type == value.INTEGER && b.Type == value.INTEGER:
		r, err := arithInt(op.Tag, a.Int(), b.Int())
		if err != nil {
			return err
		}
		storeResult(op.Result, value.NewInt(value.TEMP, r))
		return nil
	default:
		return diag.NewRuntimeError("operator %s is not defined for these operand types", op.Tag)
	}
}

func asDouble(v *value.Value) float64 {
	if v.Type == value.DOUBLE {
		return v.Double()
	}
	return float64(v.Int())
}

// arithInt: integer division truncates toward zero and modulus takes the
// dividend's sign (Go's / and % already do both natively); division or
// modulus by a runtime (non-constant) zero is a fatal RuntimeError, unlike
// DOUBLE's IEEE 754 Inf/NaN fallthrough.
func arithInt(tag opcode.Tag, a, b int64) (int64, error) {
	switch tag {
	case opcode.PLUS:
		return a + b, nil
	case opcode.MINUS:
		return a - b, nil
	case opcode.MULT:
		return a * b, nil
	case opcode.DIV:
		if b == 0 {
			return 0, diag.NewRuntimeError("division by zero")
		}
		return a / b, nil
	case opcode.MOD:
		if b == 0 {
			return 0, diag.NewRuntimeError("modulus by zero")
		}
		return a % b, nil
	default:
		return 0, diag.NewRuntimeError("operator %s is not defined for Integer", tag)
	}
}

func arithDouble(tag opcode.Tag, a, b float64) (float64, error) {
	switch tag {
	case opcode.PLUS:
		return a + b, nil
	case opcode.MINUS:
		return a - b, nil
	case opcode.MULT:
		return a * b, nil
	case opcode.DIV:
		return a / b, nil
	case opcode.MOD:
		return math.Mod(a, b), nil
	default:
		return 0, diag.NewRuntimeError("operator %s is not defined for Double", tag)
	}
}

// execBitwise backs BW_OR/BW_XOR/BW_AND — integer-only; any other operand
// type is a fatal RuntimeError (spec.md §4.5).
func (m *VM) execBitwise(op *opcode.Opcode) error {
	a, b := op.Op1, op.Op2
	if a.Type != value.INTEGER || b.Type != value.INTEGER {
		return diag.NewRuntimeError("bitwise operator %s requires Integer operands", op.Tag)
	}
	var r int64
	switch op.Tag {
	case opcode.BW_OR:
		r = a.Int() | b.Int()
	case opcode.BW_XOR:
		r = a.Int() ^ b.Int()
	case opcode.BW_AND:
		r = a.Int() & b.Int()
	}
	storeResult(op.Result, value.NewInt(value.TEMP, r))
	return nil
}
