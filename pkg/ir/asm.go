package ir

import (
	"fmt"

	"fuco/pkg/bytecode"
)

// Assembler turns a Program into bytecode in two passes: the first assigns
// every label the index of the instruction following it, the second packs
// the instructions with their label references replaced.
type Assembler struct {
	defs    []int64
	defined []bool
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble runs both passes over p. p is not modified, so assembling the same
// program again yields identical bytecode.
func Assemble(p *Program) (*bytecode.Bytecode, error) {
	return NewAssembler().Assemble(p)
}

func (a *Assembler) Assemble(p *Program) (*bytecode.Bytecode, error) {
	if len(p.Objects) == 0 || p.Objects[0].Label != StartupLabel {
		return nil, fmt.Errorf("first object must be the startup object")
	}
	if err := a.pass1(p); err != nil {
		return nil, err
	}
	return a.pass2(p)
}

func (a *Assembler) define(l Label, v int64, numLabels Label) error {
	if l < 0 || l >= numLabels {
		return fmt.Errorf("label .L%d out of range [0, %d)", int64(l), int64(numLabels))
	}
	if a.defined[l] {
		return fmt.Errorf("label .L%d defined more than once", int64(l))
	}
	a.defs[l] = v
	a.defined[l] = true
	return nil
}

func (a *Assembler) pass1(p *Program) error {
	n := p.NumLabels()
	a.defs = make([]int64, n)
	a.defined = make([]bool, n)

	for l, v := range p.Equates {
		if err := a.define(l, v, n); err != nil {
			return err
		}
	}

	var count int64
	for _, obj := range p.Objects {
		for _, u := range obj.Units {
			if u.Kind == UnitInstr {
				count++
				continue
			}
			if err := a.define(u.Label, count, n); err != nil {
				return fmt.Errorf("object %s: %w", obj.Name, err)
			}
		}
	}
	return nil
}

func (a *Assembler) pass2(p *Program) (*bytecode.Bytecode, error) {
	code := &bytecode.Bytecode{}
	for _, obj := range p.Objects {
		for _, u := range obj.Units {
			if u.Kind != UnitInstr {
				continue
			}
			instr, err := a.encode(u)
			if err != nil {
				return nil, fmt.Errorf("object %s: %w", obj.Name, err)
			}
			code.Add(instr)
		}
	}
	return code, nil
}

func (a *Assembler) encode(u Unit) (bytecode.Instr, error) {
	if !u.Op.Valid() {
		return 0, fmt.Errorf("invalid opcode %#x", uint16(u.Op))
	}
	if u.Op.Layout() == bytecode.LayoutNoImm {
		if u.Imm != nil {
			return 0, fmt.Errorf("%s takes no immediate", u.Op)
		}
		return bytecode.Encode(u.Op, 0), nil
	}

	var imm int64
	switch v := u.Imm.(type) {
	case nil:
	case Literal:
		imm = int64(v)
	case LabelRef:
		l := Label(v)
		if l < 0 || int(l) >= len(a.defs) || !a.defined[l] {
			return 0, fmt.Errorf("%s references undefined label .L%d", u.Op, int64(l))
		}
		imm = a.defs[l]
	}
	if !bytecode.FitsImm(imm) {
		return 0, fmt.Errorf("%s immediate %d does not fit in %d bits", u.Op, imm, bytecode.ImmBits)
	}
	return bytecode.Encode(u.Op, imm), nil
}
