package vm

import (
	"bytes"

	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/value"
)

// execCompare backs GREATER/LESS/GREATER_EQUAL/LESS_EQUAL/EQUAL/NOT_EQUAL.
// Mixed INTEGER/DOUBLE promotes the integer side to DOUBLE (spec.md §4.5,
// stated explicitly for comparisons); STRING compares lexicographically
// byte-by-byte; BOOLEAN only supports EQUAL/NOT_EQUAL. The result is always
// a fresh INTEGER 0/1 (spec.md §4.4, §4.5), matching the constant-fold path
// in internal/codegen/fold.go's boolAsInt, regardless of the compared Type.
func (m *VM) execCompare(op *opcode.Opcode) error {
	a, b := op.Op1, op.Op2
	var r bool
	switch {
	case a.Type == value.STRING && b.Type == value.STRING:
		cmp := bytes.Compare([]byte(a.Str().Bytes), []byte(b.Str().Bytes))
		r = numericCompareResult(op.Tag, cmp)
	case a.Type == value.BOOLEAN && b.Type == value.BOOLEAN:
		eq := a.Bool() == b.Bool()
		switch op.Tag {
		case opcode.EQUAL:
			r = eq
		case opcode.NOT_EQUAL:
			r = !eq
		default:
			return diag.NewRuntimeError("operator %s is not defined for Bool", op.Tag)
		}
	case a.Type == value.DOUBLE || b.Type == value.DOUBLE:
		x, y := asDouble(a), asDouble(b)
		r = numericCompareResult(op.Tag, cmpFloat(x, y))
	case a.Type == value.INTEGER && b.Type == value.INTEGER:
		r = numericCompareResult(op.Tag, cmpInt(a.Int(), b.Int()))
	default:
		return diag.NewRuntimeError("operator %s is not defined for these operand types", op.Tag)
	}
	storeResult(op.Result, boolAsInt(r))
	return nil
}

// boolAsInt mirrors internal/codegen/fold.go's constant-fold helper of the
// same name so the runtime and folded paths agree on INTEGER 0/1.
func boolAsInt(b bool) *value.Value {
	if b {
		return value.NewInt(value.TEMP, 1)
	}
	return value.NewInt(value.TEMP, 0)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func numericCompareResult(tag opcode.Tag, cmp int) bool {
	switch tag {
	case opcode.GREATER:
		return cmp > 0
	case opcode.LESS:
		return cmp < 0
	case opcode.GREATER_EQUAL:
		return cmp >= 0
	case opcode.LESS_EQUAL:
		return cmp <= 0
	case opcode.EQUAL:
		return cmp == 0
	case opcode.NOT_EQUAL:
		return cmp != 0
	default:
		return false
	}
}
