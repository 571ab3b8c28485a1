// Package opcode defines the Opcode cell and the linear, zero-indexed
// Opcode stream the code generator emits and the VM consumes.
package opcode

import "github.com/funvibe/clever/internal/value"

// Tag identifies an opcode. Values match spec.md §6's wire-level numbering,
// kept stable so a persisted bytecode file (internal/bytecode) round-trips
// across builds.
type Tag byte

const (
	ECHO Tag = iota
	PLUS
	MINUS
	MULT
	DIV
	MOD
	BW_OR
	BW_XOR
	BW_AND
	GREATER
	LESS
	GREATER_EQUAL
	LESS_EQUAL
	EQUAL
	NOT_EQUAL
	PRE_INC
	POS_INC
	PRE_DEC
	POS_DEC
	JMP
	JMPZ
	BREAK
	ASSIGN
	VAR_DECL
	FCALL
	MCALL
)

// Names gives the human-readable mnemonic for a Tag, used by the
// disassembler and error messages.
var Names = map[Tag]string{
	ECHO: "ECHO", PLUS: "PLUS", MINUS: "MINUS", MULT: "MULT", DIV: "DIV", MOD: "MOD",
	BW_OR: "BW_OR", BW_XOR: "BW_XOR", BW_AND: "BW_AND",
	GREATER: "GREATER", LESS: "LESS", GREATER_EQUAL: "GREATER_EQUAL", LESS_EQUAL: "LESS_EQUAL",
	EQUAL: "EQUAL", NOT_EQUAL: "NOT_EQUAL",
	PRE_INC: "PRE_INC", POS_INC: "POS_INC", PRE_DEC: "PRE_DEC", POS_DEC: "POS_DEC",
	JMP: "JMP", JMPZ: "JMPZ", BREAK: "BREAK",
	ASSIGN: "ASSIGN", VAR_DECL: "VAR_DECL",
	FCALL: "FCALL", MCALL: "MCALL",
}

func (t Tag) String() string {
	if n, ok := Names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// NoJump marks an unset jump-address slot.
const NoJump = -1

// Opcode is one instruction: a tag, three optional operand slots, and two
// jump-address slots used by control-flow tags. Per spec.md §3.5, the tag
// doubles as the handler selector — the VM dispatches on Tag via a dense
// switch (internal/vm/vm.go's exec) rather than a stored function pointer, the
// alternative spec.md §9 recommends over the original's virtual dispatch.
type Opcode struct {
	Tag    Tag
	Op1    *value.Value
	Op2    *value.Value
	Result *value.Value
	Jmp1   int
	Jmp2   int

	Line int // source line, for diagnostics
}

// New creates an Opcode, taking a reference on every non-nil operand —
// "each referenced Value has its refcount incremented when the opcode is
// emitted" (spec.md §3.5).
func New(tag Tag, op1, op2, result *value.Value) *Opcode {
	op1.AddRef()
	op2.AddRef()
	result.AddRef()
	return &Opcode{Tag: tag, Op1: op1, Op2: op2, Result: result, Jmp1: NoJump, Jmp2: NoJump}
}

// Release drops the references this Opcode holds, in op1, op2, result
// order (spec.md §4.5's VM-teardown release order). Duplicate references —
// common when a single Value is both an operand and the result — survive
// because each is its own AddRef/Release pair.
func (o *Opcode) Release() {
	o.Op1.Release()
	o.Op2.Release()
	o.Result.Release()
}

// Stream is the ordered, zero-indexed sequence of Opcodes produced by the
// generator and consumed by the VM. Jump slots are indices into Stream.
type Stream struct {
	Ops []*Opcode
}

func NewStream() *Stream { return &Stream{} }

// Append adds op to the tail and returns its index, the only way a Stream
// grows (spec.md §4.4: "opcodes — the output stream, appended only at the
// tail").
func (s *Stream) Append(op *Opcode) int {
	s.Ops = append(s.Ops, op)
	return len(s.Ops) - 1
}

// Len is the next index Append would assign — "the current op-number" the
// generator's control-flow emission contracts stamp onto jump slots.
func (s *Stream) Len() int { return len(s.Ops) }

func (s *Stream) At(i int) *Opcode { return s.Ops[i] }

// Destroy releases every Opcode's operand references — "destruction of the
// opcode stream is the guaranteed release" (spec.md §5).
func (s *Stream) Destroy() {
	for _, op := range s.Ops {
		op.Release()
	}
	s.Ops = nil
}
