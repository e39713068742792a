package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Instr is one 64-bit instruction word: the low 16 bits hold the opcode and
// the remaining 48 bits a signed immediate.
type Instr uint64

const (
	ImmBits = 48

	MaxImm int64 = 1<<(ImmBits-1) - 1
	MinImm int64 = -1 << (ImmBits - 1)

	// SlotSize is the width in bytes of one stack slot.
	SlotSize = 8
)

// FitsImm reports whether v can be stored in the immediate field.
func FitsImm(v int64) bool {
	return v >= MinImm && v <= MaxImm
}

// Encode packs op and imm. Bits of imm above the 48-bit field are discarded;
// callers check FitsImm first.
func Encode(op Opcode, imm int64) Instr {
	return Instr(uint64(op) | uint64(imm)<<16)
}

func (i Instr) Opcode() Opcode { return Opcode(i & 0xFFFF) }

// Imm returns the sign-extended immediate.
func (i Instr) Imm() int64 { return int64(i) >> 16 }

// String disassembles a single instruction.
func (i Instr) String() string {
	op := i.Opcode()
	if !op.Valid() {
		return fmt.Sprintf("? (%016x)", uint64(i))
	}
	if op.Layout() == LayoutImm48 {
		return fmt.Sprintf("%s %d", op.Mnemonic(), i.Imm())
	}
	return op.Mnemonic()
}

// Bytecode is the assembled program handed to the interpreter. Execution
// starts at Instrs[0].
type Bytecode struct {
	Instrs []Instr
}

func (b *Bytecode) Add(instr Instr) {
	b.Instrs = append(b.Instrs, instr)
}

func (b *Bytecode) Len() int { return len(b.Instrs) }

// WriteTo writes one disassembled instruction per line, prefixed with its index.
func (b *Bytecode) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for idx, instr := range b.Instrs {
		n, err := fmt.Fprintf(w, "%04d  %016x  %s\n", idx, uint64(instr), instr)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (b *Bytecode) String() string {
	var sb strings.Builder
	_, _ = b.WriteTo(&sb)
	return sb.String()
}
