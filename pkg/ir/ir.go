// Package ir holds the label-based intermediate representation produced by
// the compiler and assembles it into bytecode.
package ir

import (
	"fmt"
	"io"
	"strings"

	"fuco/pkg/bytecode"
)

// Label is a symbolic instruction address. Labels form one dense integer
// space [0, Program.NumLabels()).
type Label int64

// StartupLabel names the startup object, which always comes first.
const StartupLabel Label = 0

// Immediate is the operand of an instruction unit: a Literal or a LabelRef.
type Immediate interface {
	immediate()
	String() string
}

// Literal is a raw 48-bit value.
type Literal int64

// LabelRef is replaced by the label's value during assembly.
type LabelRef Label

func (Literal) immediate()  {}
func (LabelRef) immediate() {}

func (v Literal) String() string  { return fmt.Sprintf("%d", int64(v)) }
func (l LabelRef) String() string { return fmt.Sprintf(".L%d", int64(l)) }

type UnitKind int

const (
	UnitInstr UnitKind = iota
	UnitLabel
)

// Unit is one element of an object: a label definition or an instruction
// with an optional immediate.
type Unit struct {
	Kind  UnitKind
	Op    bytecode.Opcode
	Imm   Immediate // nil when the instruction has no immediate
	Label Label     // defined label, for UnitLabel
}

func (u Unit) String() string {
	if u.Kind == UnitLabel {
		return fmt.Sprintf(".L%d:", int64(u.Label))
	}
	if u.Imm == nil {
		return "  " + u.Op.Mnemonic()
	}
	return "  " + u.Op.Mnemonic() + " " + u.Imm.String()
}

// Object is the unit sequence of one function, or of the startup code.
type Object struct {
	Label Label
	Name  string

	// SizeLabel is equated to the parameter block size of the function.
	SizeLabel Label

	Units []Unit
}

func (o *Object) AddLabel(l Label) {
	o.Units = append(o.Units, Unit{Kind: UnitLabel, Label: l})
}

func (o *Object) AddInstr(op bytecode.Opcode) {
	o.Units = append(o.Units, Unit{Kind: UnitInstr, Op: op})
}

func (o *Object) AddInstrImm(op bytecode.Opcode, v int64) {
	o.Units = append(o.Units, Unit{Kind: UnitInstr, Op: op, Imm: Literal(v)})
}

func (o *Object) AddInstrLabel(op bytecode.Opcode, l Label) {
	o.Units = append(o.Units, Unit{Kind: UnitInstr, Op: op, Imm: LabelRef(l)})
}

// NumInstrs counts the instruction units of o.
func (o *Object) NumInstrs() int {
	n := 0
	for _, u := range o.Units {
		if u.Kind == UnitInstr {
			n++
		}
	}
	return n
}

// Program is the whole IR of a compilation unit.
type Program struct {
	Objects []*Object

	// Equates give labels a constant value instead of an address, e.g.
	// frame offsets of parameters.
	Equates map[Label]int64

	next Label
}

// NewProgram returns an empty program whose fresh labels start at first.
// Labels below first are reserved for the caller (symbol ids).
func NewProgram(first Label) *Program {
	return &Program{Equates: make(map[Label]int64), next: first}
}

// NewLabel allocates a fresh label.
func (p *Program) NewLabel() Label {
	l := p.next
	p.next++
	return l
}

// NumLabels is one past the highest label allocated so far.
func (p *Program) NumLabels() Label { return p.next }

// AddObject appends an object whose first unit defines label.
func (p *Program) AddObject(label Label, name string) *Object {
	obj := &Object{Label: label, Name: name, SizeLabel: -1}
	obj.AddLabel(label)
	p.Objects = append(p.Objects, obj)
	return obj
}

// Equate fixes the value of l.
func (p *Program) Equate(l Label, v int64) error {
	if _, ok := p.Equates[l]; ok {
		return fmt.Errorf("label .L%d equated twice", int64(l))
	}
	p.Equates[l] = v
	return nil
}

// CreateStartup adds the startup object: call the entry point, then exit
// with its result. It must be the first object.
func (p *Program) CreateStartup(entry Label) error {
	if len(p.Objects) != 0 {
		return fmt.Errorf("startup object must be created first")
	}
	obj := p.AddObject(StartupLabel, "<startup>")
	obj.AddInstrLabel(bytecode.OpCALL, entry)
	obj.AddInstr(bytecode.OpEXIT)
	return nil
}

// WriteTo dumps the program in a readable assembler-like form.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, obj := range p.Objects {
		fmt.Fprintf(&sb, "object %d %s {\n", int64(obj.Label), obj.Name)
		for _, u := range obj.Units {
			sb.WriteString(u.String() + "\n")
		}
		sb.WriteString("}\n")
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (p *Program) String() string {
	var sb strings.Builder
	_, _ = p.WriteTo(&sb)
	return sb.String()
}
