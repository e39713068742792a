package vm

import (
	"testing"

	"github.com/nalgeon/be"

	"fuco/pkg/bytecode"
)

func program(instrs ...bytecode.Instr) *bytecode.Bytecode {
	return &bytecode.Bytecode{Instrs: instrs}
}

func op(o bytecode.Opcode) bytecode.Instr { return bytecode.Encode(o, 0) }

func imm(o bytecode.Opcode, v int64) bytecode.Instr { return bytecode.Encode(o, v) }

func TestExit(t *testing.T) {
	code, err := Run(program(imm(bytecode.OpPUSHQ, 7), op(bytecode.OpEXIT)), Options{})
	be.Err(t, err, nil)
	be.Equal(t, code, int64(7))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op   bytecode.Opcode
		a, b int64
		want int64
	}{
		{bytecode.OpIADD, 2, 3, 5},
		{bytecode.OpISUB, 2, 3, -1},
		{bytecode.OpIMUL, -4, 3, -12},
		{bytecode.OpIDIV, 7, 2, 3},
		{bytecode.OpIDIV, -7, 2, -3},
		{bytecode.OpIMOD, 7, 3, 1},
		{bytecode.OpIEQ, 3, 3, 1},
		{bytecode.OpINE, 3, 3, 0},
		{bytecode.OpIGT, 4, 3, 1},
		{bytecode.OpIGE, 3, 4, 0},
		{bytecode.OpILT, 3, 4, 1},
		{bytecode.OpILE, 4, 4, 1},
	}
	for _, tc := range tests {
		t.Run(tc.op.String(), func(t *testing.T) {
			code, err := Run(program(
				imm(bytecode.OpPUSHQ, tc.a),
				imm(bytecode.OpPUSHQ, tc.b),
				op(tc.op),
				op(bytecode.OpEXIT),
			), Options{})
			be.Err(t, err, nil)
			be.Equal(t, code, tc.want)
		})
	}
}

// sub(a, b) called as sub(10, 3): arguments pushed last first.
func TestCallFrame(t *testing.T) {
	m := New(program(
		imm(bytecode.OpPUSHQ, 3),    // 0
		imm(bytecode.OpPUSHQ, 10),   // 1
		imm(bytecode.OpCALL, 5),     // 2
		op(bytecode.OpEXIT),         // 3
		op(bytecode.OpNOP),          // 4
		imm(bytecode.OpRLOADQ, -24), // 5: a
		imm(bytecode.OpRLOADQ, -32), // 6: b
		op(bytecode.OpISUB),         // 7
		imm(bytecode.OpRETQ, 16),    // 8
	), Options{})

	for m.IP != 5 {
		be.Err(t, m.Step(), nil)
	}
	// arguments, return slot, saved ip, saved bp
	be.Equal(t, m.SP, int64(5*bytecode.SlotSize))
	be.Equal(t, m.BP, int64(4*bytecode.SlotSize))

	code, err := m.Run()
	be.Err(t, err, nil)
	be.Equal(t, code, int64(7))
	// the parameters were popped by RETQ and the result by EXIT
	be.Equal(t, m.SP, int64(0))
	be.True(t, m.Halted)
	be.Equal(t, m.Steps, int64(8))
}

func TestJumps(t *testing.T) {
	code, err := Run(program(
		imm(bytecode.OpPUSHQ, 1),  // 0
		imm(bytecode.OpJZ, 5),     // 1: not taken
		imm(bytecode.OpPUSHQ, 0),  // 2
		imm(bytecode.OpJZ, 6),     // 3: taken
		op(bytecode.OpNOP),        // 4
		imm(bytecode.OpPUSHQ, 99), // 5
		imm(bytecode.OpPUSHQ, 42), // 6
		imm(bytecode.OpJMP, 9),    // 7
		imm(bytecode.OpPUSHQ, 13), // 8
		op(bytecode.OpEXIT),       // 9
	), Options{})
	be.Err(t, err, nil)
	be.Equal(t, code, int64(42))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		code *bytecode.Bytecode
		opts Options
		want error
	}{
		{"underflow", program(op(bytecode.OpEXIT)), Options{}, ErrStackUnderflow},
		{"divide by zero", program(imm(bytecode.OpPUSHQ, 1), imm(bytecode.OpPUSHQ, 0), op(bytecode.OpIDIV)), Options{}, ErrDivideByZero},
		{"modulo by zero", program(imm(bytecode.OpPUSHQ, 1), imm(bytecode.OpPUSHQ, 0), op(bytecode.OpIMOD)), Options{}, ErrDivideByZero},
		{"ip out of range", program(imm(bytecode.OpJMP, 40)), Options{}, ErrIPOutOfRange},
		{"run off the end", program(op(bytecode.OpNOP)), Options{}, ErrIPOutOfRange},
		{"invalid opcode", program(bytecode.Instr(0xFFFF)), Options{}, ErrInvalidOpcode},
		{"bad address", program(imm(bytecode.OpRLOADQ, -8)), Options{}, ErrBadAddress},
		{"overflow", program(imm(bytecode.OpCALL, 0)), Options{StackSize: 64}, ErrStackOverflow},
		{"step limit", program(imm(bytecode.OpJMP, 0)), Options{MaxSteps: 100}, ErrStepLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.code, tc.opts)
			be.Err(t, err, tc.want)
		})
	}
}

func TestStepAfterHalt(t *testing.T) {
	m := New(program(imm(bytecode.OpPUSHQ, 2), op(bytecode.OpEXIT)), Options{})
	_, err := m.Run()
	be.Err(t, err, nil)
	be.Err(t, m.Step(), nil)
	be.Equal(t, m.Steps, int64(2))
}
