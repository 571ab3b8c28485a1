// Package bytecode implements the persisted wire format for an
// opcode.Stream — the ".cvmb" file the CLI writes (for its demo program,
// into internal/config's bytecode cache directory or an explicit path) and
// replays with "clever run". Files are not keyed on a source path and
// nothing consults them in place of running the code generator.
//
// Only the shape spec.md §6 labels stable across builds is persisted: the
// Tag sequence, jump addresses, and CONST literal operands. A NAMED or
// TEMP operand carries no serialisable payload of its own — it is a
// pointer into a live scope tree and SSA tracker that only exist for the
// Generator run that produced it — so those slots are written as bare
// placeholders that only a fresh compile could supply; a stream containing
// one cannot be replayed from the file alone. Low-level tag/varint framing comes from
// google.golang.org/protobuf/encoding/protowire, grounded the same way
// ProbeChain's trie package reaches for a wire-format helper rather than
// hand-rolling one; loading mmaps the file (github.com/edsrzf/mmap-go)
// instead of reading it into a heap-allocated slice, the same pattern
// ProbeChain's trie.go uses for its on-disk binary tree.
package bytecode

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/value"
)

func doubleBits(f float64) uint64    { return math.Float64bits(f) }
func doubleFromBits(b uint64) float64 { return math.Float64frombits(b) }

// magic identifies a .cvmb file; version guards against a future wire
// format change being loaded by an older build.
const (
	magic   = "CVMB"
	version = 1
)

// slotKind tags how an operand was encoded.
type slotKind byte

const (
	slotNil       slotKind = iota // the operand pointer was nil
	slotConst                     // a CONST literal, payload follows
	slotRuntime                   // NAMED/TEMP — rebuilt by recompiling, not persisted
)

// Operand is a decoded operand slot: either a reconstructed CONST Value,
// or a Runtime placeholder a fresh compile must supply before the
// opcode can execute.
type Operand struct {
	Const   *value.Value // non-nil only when Kind == slotConst
	Kind    slotKind
}

func (o *Operand) IsRuntime() bool { return o.Kind == slotRuntime }
func (o *Operand) IsNil() bool     { return o.Kind == slotNil }

// Op is one decoded instruction.
type Op struct {
	Tag              opcode.Tag
	Op1, Op2, Result *Operand
	Jmp1, Jmp2       int
}

// Stream is a decoded .cvmb payload.
type Stream struct {
	Ops []Op
}

// Encode serialises s to its wire form.
func Encode(s *opcode.Stream) []byte {
	buf := []byte(magic)
	buf = protowire.AppendVarint(buf, version)
	buf = protowire.AppendVarint(buf, uint64(s.Len()))
	for i := 0; i < s.Len(); i++ {
		op := s.At(i)
		buf = protowire.AppendVarint(buf, uint64(op.Tag))
		buf = appendZigzag(buf, int64(op.Jmp1))
		buf = appendZigzag(buf, int64(op.Jmp2))
		buf = appendOperand(buf, op.Op1)
		buf = appendOperand(buf, op.Op2)
		buf = appendOperand(buf, op.Result)
	}
	return buf
}

func appendOperand(buf []byte, v *value.Value) []byte {
	if v == nil {
		return protowire.AppendVarint(buf, uint64(slotNil))
	}
	if v.Kind != value.CONST {
		return protowire.AppendVarint(buf, uint64(slotRuntime))
	}
	buf = protowire.AppendVarint(buf, uint64(slotConst))
	buf = protowire.AppendVarint(buf, uint64(v.Type))
	switch v.Type {
	case value.INTEGER:
		buf = appendZigzag(buf, v.Int())
	case value.DOUBLE:
		buf = protowire.AppendFixed64(buf, doubleBits(v.Double()))
	case value.BOOLEAN:
		b := uint64(0)
		if v.Bool() {
			b = 1
		}
		buf = protowire.AppendVarint(buf, b)
	case value.STRING:
		buf = protowire.AppendBytes(buf, []byte(v.Str().Bytes))
	}
	return buf
}

// Decode parses a .cvmb payload produced by Encode.
func Decode(data []byte) (*Stream, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("bytecode: bad magic")
	}
	data = data[len(magic):]
	ver, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, fmt.Errorf("bytecode: truncated version")
	}
	if ver != version {
		return nil, fmt.Errorf("bytecode: unsupported version %d", ver)
	}
	data = data[n:]
	count, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, fmt.Errorf("bytecode: truncated opcode count")
	}
	data = data[n:]

	s := &Stream{Ops: make([]Op, 0, count)}
	for i := uint64(0); i < count; i++ {
		tagRaw, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, fmt.Errorf("bytecode: truncated tag at op %d", i)
		}
		data = data[n:]

		jmp1, n := consumeZigzag(data)
		if n < 0 {
			return nil, fmt.Errorf("bytecode: truncated jmp1 at op %d", i)
		}
		data = data[n:]

		jmp2, n := consumeZigzag(data)
		if n < 0 {
			return nil, fmt.Errorf("bytecode: truncated jmp2 at op %d", i)
		}
		data = data[n:]

		op1, rest, err := consumeOperand(data)
		if err != nil {
			return nil, fmt.Errorf("bytecode: op %d op1: %w", i, err)
		}
		data = rest

		op2, rest, err := consumeOperand(data)
		if err != nil {
			return nil, fmt.Errorf("bytecode: op %d op2: %w", i, err)
		}
		data = rest

		result, rest, err := consumeOperand(data)
		if err != nil {
			return nil, fmt.Errorf("bytecode: op %d result: %w", i, err)
		}
		data = rest

		s.Ops = append(s.Ops, Op{
			Tag:    opcode.Tag(tagRaw),
			Jmp1:   int(jmp1),
			Jmp2:   int(jmp2),
			Op1:    op1,
			Op2:    op2,
			Result: result,
		})
	}
	return s, nil
}

func consumeOperand(data []byte) (*Operand, []byte, error) {
	kindRaw, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, nil, fmt.Errorf("truncated operand kind")
	}
	data = data[n:]
	kind := slotKind(kindRaw)
	switch kind {
	case slotNil:
		return &Operand{Kind: slotNil}, data, nil
	case slotRuntime:
		return &Operand{Kind: slotRuntime}, data, nil
	case slotConst:
		typRaw, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, nil, fmt.Errorf("truncated operand type")
		}
		data = data[n:]
		typ := value.ValueType(typRaw)
		var v *value.Value
		switch typ {
		case value.INTEGER:
			iv, n := consumeZigzag(data)
			if n < 0 {
				return nil, nil, fmt.Errorf("truncated integer operand")
			}
			data = data[n:]
			v = value.NewInt(value.CONST, iv)
		case value.DOUBLE:
			bits, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, nil, fmt.Errorf("truncated double operand")
			}
			data = data[n:]
			v = value.NewDouble(value.CONST, doubleFromBits(bits))
		case value.BOOLEAN:
			b, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, nil, fmt.Errorf("truncated bool operand")
			}
			data = data[n:]
			v = value.NewBool(value.CONST, b != 0)
		case value.STRING:
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, nil, fmt.Errorf("truncated string operand")
			}
			data = data[n:]
			v = value.NewString(value.CONST, cstring.NonInterned(string(raw)))
		default:
			return nil, nil, fmt.Errorf("unsupported CONST operand type %d", typ)
		}
		return &Operand{Kind: slotConst, Const: v}, data, nil
	default:
		return nil, nil, fmt.Errorf("unknown operand kind %d", kind)
	}
}

func appendZigzag(buf []byte, v int64) []byte {
	zz := uint64((v << 1) ^ (v >> 63))
	return protowire.AppendVarint(buf, zz)
}

func consumeZigzag(data []byte) (int64, int) {
	zz, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, n
	}
	v := int64(zz>>1) ^ -int64(zz&1)
	return v, n
}
