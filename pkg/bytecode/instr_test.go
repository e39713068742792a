package bytecode

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		op  Opcode
		imm int64
	}{
		{OpCALL, 0},
		{OpPUSHQ, 1},
		{OpRLOADQ, -24},
		{OpJMP, MaxImm},
		{OpJZ, MinImm},
	}
	for _, tc := range tests {
		instr := Encode(tc.op, tc.imm)
		be.Equal(t, instr.Opcode(), tc.op)
		be.Equal(t, instr.Imm(), tc.imm)
	}
}

func TestEncodeLayout(t *testing.T) {
	// opcode in the low 16 bits, immediate above it
	be.Equal(t, uint64(Encode(OpPUSHQ, 5)), uint64(0x0000_0000_0005_0003))
	be.Equal(t, uint64(Encode(OpEXIT, 0)), uint64(OpEXIT))
}

func TestFitsImm(t *testing.T) {
	be.True(t, FitsImm(0))
	be.True(t, FitsImm(MaxImm))
	be.True(t, FitsImm(MinImm))
	be.True(t, !FitsImm(MaxImm+1))
	be.True(t, !FitsImm(MinImm-1))
}

func TestMnemonics(t *testing.T) {
	for op := Opcode(0); op < numOpcodes; op++ {
		got, ok := LookupMnemonic(op.Mnemonic())
		be.True(t, ok)
		be.Equal(t, got, op)
	}
	_, ok := LookupMnemonic("frobnicate")
	be.True(t, !ok)
	be.True(t, !Opcode(0x7777).Valid())
}

func TestDisassemble(t *testing.T) {
	var b Bytecode
	b.Add(Encode(OpCALL, 2))
	b.Add(Encode(OpEXIT, 0))
	b.Add(Encode(OpPUSHQ, -3))
	be.Equal(t, b.Len(), 3)

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	be.Equal(t, len(lines), 3)
	be.True(t, strings.HasSuffix(lines[0], "call 2"))
	be.True(t, strings.HasSuffix(lines[1], "exit"))
	be.True(t, strings.HasSuffix(lines[2], "pushq -3"))
	be.True(t, strings.HasPrefix(Instr(0x7777).String(), "?"))
}
