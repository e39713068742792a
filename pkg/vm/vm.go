// Package vm executes assembled fuco bytecode on a byte-addressed stack of
// 8-byte slots.
package vm

import (
	"errors"
	"fmt"

	"fuco/pkg/bytecode"
)

const (
	DefaultStackSize = 1 << 16
	DefaultMaxSteps  = 0 // unlimited
)

var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrBadAddress     = errors.New("invalid stack address")
	ErrDivideByZero   = errors.New("division by zero")
	ErrInvalidOpcode  = errors.New("invalid opcode")
	ErrIPOutOfRange   = errors.New("instruction pointer out of range")
	ErrStepLimit      = errors.New("step limit exceeded")
)

// Options configure a Machine. Zero values pick the defaults.
type Options struct {
	StackSize int   // bytes
	MaxSteps  int64 // 0 means no limit
}

// Machine is the interpreter state. IP indexes Code; SP and BP are byte
// addresses into the stack, SP pointing at the next free slot.
type Machine struct {
	Code []bytecode.Instr

	IP int64
	SP int64
	BP int64

	Halted   bool
	ExitCode int64
	Steps    int64

	stack    []int64
	maxSteps int64
}

func New(code *bytecode.Bytecode, opts Options) *Machine {
	size := opts.StackSize
	if size <= 0 {
		size = DefaultStackSize
	}
	return &Machine{
		Code:     code.Instrs,
		stack:    make([]int64, size/bytecode.SlotSize),
		maxSteps: opts.MaxSteps,
	}
}

// Run executes from instruction 0 until EXIT and returns the exit code.
func Run(code *bytecode.Bytecode, opts Options) (int64, error) {
	return New(code, opts).Run()
}

func (m *Machine) Run() (int64, error) {
	for !m.Halted {
		if m.maxSteps > 0 && m.Steps >= m.maxSteps {
			return 0, fmt.Errorf("after %d steps: %w", m.Steps, ErrStepLimit)
		}
		if err := m.Step(); err != nil {
			return 0, err
		}
	}
	return m.ExitCode, nil
}

func (m *Machine) slot(addr int64) (*int64, error) {
	if addr < 0 || addr%bytecode.SlotSize != 0 || addr/bytecode.SlotSize >= int64(len(m.stack)) {
		return nil, fmt.Errorf("%w: %d", ErrBadAddress, addr)
	}
	return &m.stack[addr/bytecode.SlotSize], nil
}

func (m *Machine) load(addr int64) (int64, error) {
	p, err := m.slot(addr)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

func (m *Machine) store(addr, v int64) error {
	p, err := m.slot(addr)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (m *Machine) push(v int64) error {
	if m.SP/bytecode.SlotSize >= int64(len(m.stack)) {
		return ErrStackOverflow
	}
	m.stack[m.SP/bytecode.SlotSize] = v
	m.SP += bytecode.SlotSize
	return nil
}

func (m *Machine) pop() (int64, error) {
	if m.SP <= 0 {
		return 0, ErrStackUnderflow
	}
	m.SP -= bytecode.SlotSize
	return m.stack[m.SP/bytecode.SlotSize], nil
}

func (m *Machine) pop2() (a, b int64, err error) {
	if b, err = m.pop(); err != nil {
		return 0, 0, err
	}
	if a, err = m.pop(); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	if m.IP < 0 || m.IP >= int64(len(m.Code)) {
		return fmt.Errorf("%w: %d", ErrIPOutOfRange, m.IP)
	}
	ip := m.IP
	if err := m.exec(m.Code[ip]); err != nil {
		return fmt.Errorf("at %d (%s): %w", ip, m.Code[ip], err)
	}
	m.Steps++
	return nil
}

func (m *Machine) exec(instr bytecode.Instr) error {
	op, imm := instr.Opcode(), instr.Imm()
	m.IP++

	switch op {
	case bytecode.OpNOP:

	case bytecode.OpCALL:
		// return value slot, saved ip, saved bp
		if err := m.push(0); err != nil {
			return err
		}
		if err := m.push(m.IP); err != nil {
			return err
		}
		if err := m.push(m.BP); err != nil {
			return err
		}
		m.BP = m.SP - bytecode.SlotSize
		m.IP = imm

	case bytecode.OpRETQ:
		v, err := m.pop()
		if err != nil {
			return err
		}
		retSlot := m.BP - 2*bytecode.SlotSize
		if err := m.store(retSlot, v); err != nil {
			return err
		}
		savedIP, err := m.load(m.BP - bytecode.SlotSize)
		if err != nil {
			return err
		}
		savedBP, err := m.load(m.BP)
		if err != nil {
			return err
		}
		m.SP = retSlot - imm
		if m.SP < 0 {
			return ErrStackUnderflow
		}
		m.IP, m.BP = savedIP, savedBP
		return m.push(v)

	case bytecode.OpPUSHQ:
		return m.push(imm)

	case bytecode.OpRLOADQ:
		v, err := m.load(m.BP + imm)
		if err != nil {
			return err
		}
		return m.push(v)

	case bytecode.OpIADD, bytecode.OpISUB, bytecode.OpIMUL, bytecode.OpIDIV, bytecode.OpIMOD,
		bytecode.OpIEQ, bytecode.OpINE, bytecode.OpIGT, bytecode.OpIGE, bytecode.OpILT, bytecode.OpILE:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		v, err := arith(op, a, b)
		if err != nil {
			return err
		}
		return m.push(v)

	case bytecode.OpJMP:
		m.IP = imm

	case bytecode.OpJZ:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			m.IP = imm
		}

	case bytecode.OpEXIT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.ExitCode = v
		m.Halted = true

	default:
		return ErrInvalidOpcode
	}
	return nil
}

func arith(op bytecode.Opcode, a, b int64) (int64, error) {
	switch op {
	case bytecode.OpIADD:
		return a + b, nil
	case bytecode.OpISUB:
		return a - b, nil
	case bytecode.OpIMUL:
		return a * b, nil
	case bytecode.OpIDIV:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	case bytecode.OpIMOD:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a % b, nil
	case bytecode.OpIEQ:
		return boolInt(a == b), nil
	case bytecode.OpINE:
		return boolInt(a != b), nil
	case bytecode.OpIGT:
		return boolInt(a > b), nil
	case bytecode.OpIGE:
		return boolInt(a >= b), nil
	case bytecode.OpILT:
		return boolInt(a < b), nil
	case bytecode.OpILE:
		return boolInt(a <= b), nil
	}
	return 0, ErrInvalidOpcode
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
