// Package bytecode defines the instruction set of the fuco stack machine and
// the fixed-width encoding shared by the assembler and the interpreter.
package bytecode

import "fmt"

// Opcode occupies the low 16 bits of an instruction.
type Opcode uint16

const (
	OpNOP    Opcode = 0x00
	OpCALL   Opcode = 0x01
	OpRETQ   Opcode = 0x02
	OpPUSHQ  Opcode = 0x03
	OpRLOADQ Opcode = 0x04
	OpIADD   Opcode = 0x05
	OpISUB   Opcode = 0x06
	OpIMUL   Opcode = 0x07
	OpIDIV   Opcode = 0x08
	OpIMOD   Opcode = 0x09
	OpIEQ    Opcode = 0x0A
	OpINE    Opcode = 0x0B
	OpIGT    Opcode = 0x0C
	OpIGE    Opcode = 0x0D
	OpILT    Opcode = 0x0E
	OpILE    Opcode = 0x0F
	OpJMP    Opcode = 0x10
	OpJZ     Opcode = 0x11
	OpEXIT   Opcode = 0x12

	numOpcodes = 0x13
)

// Layout tells whether an instruction uses its immediate field.
type Layout int

const (
	LayoutNoImm Layout = iota
	LayoutImm48
)

type descriptor struct {
	mnemonic string
	layout   Layout
}

// descriptors is indexed by Opcode.
var descriptors = [numOpcodes]descriptor{
	OpNOP:    {"nop", LayoutNoImm},
	OpCALL:   {"call", LayoutImm48},
	OpRETQ:   {"retq", LayoutImm48},
	OpPUSHQ:  {"pushq", LayoutImm48},
	OpRLOADQ: {"rloadq", LayoutImm48},
	OpIADD:   {"iadd", LayoutNoImm},
	OpISUB:   {"isub", LayoutNoImm},
	OpIMUL:   {"imul", LayoutNoImm},
	OpIDIV:   {"idiv", LayoutNoImm},
	OpIMOD:   {"imod", LayoutNoImm},
	OpIEQ:    {"ieq", LayoutNoImm},
	OpINE:    {"ine", LayoutNoImm},
	OpIGT:    {"igt", LayoutNoImm},
	OpIGE:    {"ige", LayoutNoImm},
	OpILT:    {"ilt", LayoutNoImm},
	OpILE:    {"ile", LayoutNoImm},
	OpJMP:    {"jmp", LayoutImm48},
	OpJZ:     {"jz", LayoutImm48},
	OpEXIT:   {"exit", LayoutNoImm},
}

// Valid reports whether op names a known instruction.
func (op Opcode) Valid() bool {
	return int(op) < len(descriptors)
}

// Mnemonic returns the lower-case assembler name of op.
func (op Opcode) Mnemonic() string {
	if !op.Valid() {
		return fmt.Sprintf("op(%#x)", uint16(op))
	}
	return descriptors[op].mnemonic
}

func (op Opcode) String() string { return op.Mnemonic() }

// Layout returns the immediate layout of op. Unknown opcodes report LayoutNoImm.
func (op Opcode) Layout() Layout {
	if !op.Valid() {
		return LayoutNoImm
	}
	return descriptors[op].layout
}

// LookupMnemonic maps an assembler name back to its opcode.
func LookupMnemonic(name string) (Opcode, bool) {
	for i, d := range descriptors {
		if d.mnemonic == name {
			return Opcode(i), true
		}
	}
	return 0, false
}
