package codegen

import (
	"math"

	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/value"
)

// compatible implements spec.md §4.4's type-compatibility rule verbatim:
// two operands are incompatible iff both are CONST of different Types.
// NAMED operands are always compatible at compile time — their runtime
// types are checked by the opcode handler instead.
func compatible(a, b *value.Value) bool {
	if a.Kind == value.CONST && b.Kind == value.CONST && a.Type != b.Type {
		return false
	}
	return true
}

// fold attempts constant folding for two CONST, same-Type, unmodified
// operands (spec.md §4.4). ok reports whether folding applies to this
// operator/Type combination at all — string operators other than + are not
// foldable and fall through to opcode emission, not an error. err is
// non-nil only for a fatal compile-time condition (integer division or
// modulus by a constant zero).
func fold(op ast.Op, a, b *value.Value) (*value.Value, bool, error) {
	if a.Status == value.MODIFIED || b.Status == value.MODIFIED {
		return nil, false, nil
	}
	switch a.Type {
	case value.INTEGER:
		return foldInt(op, a.Int(), b.Int())
	case value.DOUBLE:
		return foldDouble(op, a.Double(), b.Double())
	case value.STRING:
		return foldString(op, a, b)
	default:
		return nil, false, nil
	}
}

func foldInt(op ast.Op, a, b int64) (*value.Value, bool, error) {
	switch op {
	case ast.OpAdd:
		return value.NewInt(value.CONST, a+b), true, nil
	case ast.OpSub:
		return value.NewInt(value.CONST, a-b), true, nil
	case ast.OpMul:
		return value.NewInt(value.CONST, a*b), true, nil
	case ast.OpDiv:
		if b == 0 {
			return nil, false, diag.NewCompileError("division by zero")
		}
		return value.NewInt(value.CONST, a/b), true, nil
	case ast.OpMod:
		if b == 0 {
			return nil, false, diag.NewCompileError("modulus by zero")
		}
		return value.NewInt(value.CONST, a%b), true, nil
	case ast.OpBwOr:
		return value.NewInt(value.CONST, a|b), true, nil
	case ast.OpBwXor:
		return value.NewInt(value.CONST, a^b), true, nil
	case ast.OpBwAnd:
		return value.NewInt(value.CONST, a&b), true, nil
	case ast.OpGreater:
		return boolAsInt(a > b), true, nil
	case ast.OpLess:
		return boolAsInt(a < b), true, nil
	case ast.OpGreaterEqual:
		return boolAsInt(a >= b), true, nil
	case ast.OpLessEqual:
		return boolAsInt(a <= b), true, nil
	case ast.OpEqual:
		return boolAsInt(a == b), true, nil
	case ast.OpNotEqual:
		return boolAsInt(a != b), true, nil
	default:
		return nil, false, nil
	}
}

// foldDouble follows IEEE 754: division and modulus by zero produce Inf/NaN
// rather than a compile error (spec.md §4.4).
func foldDouble(op ast.Op, a, b float64) (*value.Value, bool, error) {
	switch op {
	case ast.OpAdd:
		return value.NewDouble(value.CONST, a+b), true, nil
	case ast.OpSub:
		return value.NewDouble(value.CONST, a-b), true, nil
	case ast.OpMul:
		return value.NewDouble(value.CONST, a*b), true, nil
	case ast.OpDiv:
		return value.NewDouble(value.CONST, a/b), true, nil
	case ast.OpMod:
		return value.NewDouble(value.CONST, math.Mod(a, b)), true, nil
	case ast.OpGreater:
		return boolAsInt(a > b), true, nil
	case ast.OpLess:
		return boolAsInt(a < b), true, nil
	case ast.OpGreaterEqual:
		return boolAsInt(a >= b), true, nil
	case ast.OpLessEqual:
		return boolAsInt(a <= b), true, nil
	case ast.OpEqual:
		return boolAsInt(a == b), true, nil
	case ast.OpNotEqual:
		return boolAsInt(a != b), true, nil
	default:
		return nil, false, nil
	}
}

// foldString supports concatenation on + only; every other operator
// (including the lexicographic comparisons the VM's handler table
// supports) is left to runtime evaluation rather than folded here.
func foldString(op ast.Op, a, b *value.Value) (*value.Value, bool, error) {
	if op != ast.OpAdd {
		return nil, false, nil
	}
	// Concatenation produces a scratch, non-interned string: the result is
	// a fresh literal value, not a name anyone will look up by identity.
	return value.NewString(value.CONST, cstring.NonInterned(a.Str().Bytes+b.Str().Bytes)), true, nil
}

func boolAsInt(b bool) *value.Value {
	if b {
		return value.NewInt(value.CONST, 1)
	}
	return value.NewInt(value.CONST, 0)
}
