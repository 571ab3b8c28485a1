package vm

import (
	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/value"
)

// execIncDec backs PRE_INC/POS_INC/PRE_DEC/POS_DEC. op1 is always the NAMED
// target (codegen.genUnaryExpr rejects anything else at compile time); the
// result is always a fresh TEMP holding whichever image the operator calls
// for — the pre-mutation value for a postfix operator, the post-mutation
// value for a prefix one.
func (m *VM) execIncDec(op *opcode.Opcode) error {
	target := op.Op1
	var delta int64 = 1
	prefix := false
	switch op.Tag {
	case opcode.PRE_INC:
		prefix = true
	case opcode.POS_INC:
	case opcode.PRE_DEC:
		delta, prefix = -1, true
	case opcode.POS_DEC:
		delta = -1
	}

	switch target.Type {
	case value.INTEGER:
		old := target.AddInt(delta)
		if prefix {
			storeResult(op.Result, value.NewInt(value.TEMP, target.Int()))
		} else {
			storeResult(op.Result, value.NewInt(value.TEMP, old))
		}
	case value.DOUBLE:
		old := target.AddDouble(float64(delta))
		if prefix {
			storeResult(op.Result, value.NewDouble(value.TEMP, target.Double()))
		} else {
			storeResult(op.Result, value.NewDouble(value.TEMP, old))
		}
	default:
		return diag.NewRuntimeError("operator %s is not defined for this operand type", op.Tag)
	}
	return nil
}
