package vm

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/value"
)

var dumpConfig = &spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true}

// Disassemble renders stream as one line per opcode: index, mnemonic, jump
// slots, and a deep-dumped view of each non-nil operand's Value (go-spew,
// the same library the teacher's debugger.go reaches for to print
// arbitrary interpreter state). Used by the CLI's --dump flag and by a
// test's failure message when an expected opcode sequence doesn't match.
func Disassemble(stream *opcode.Stream) string {
	var b strings.Builder
	for i := 0; i < stream.Len(); i++ {
		op := stream.At(i)
		fmt.Fprintf(&b, "%4d  %-14s jmp1=%-4d jmp2=%-4d\n", i, op.Tag, op.Jmp1, op.Jmp2)
		dumpOperand(&b, "op1", op.Op1)
		dumpOperand(&b, "op2", op.Op2)
		dumpOperand(&b, "res", op.Result)
	}
	return b.String()
}

func dumpOperand(b *strings.Builder, label string, v *value.Value) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "       %s: %s", label, dumpConfig.Sdump(v))
}
