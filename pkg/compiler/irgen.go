package compiler

import (
	"fmt"

	"fuco/pkg/bytecode"
	"fuco/pkg/ir"
)

// Generator lowers a resolved AST into IR. Function objects are labelled
// with their symbol ids; fresh labels start at the symbol table size so the
// two never collide.
type Generator struct {
	prog *ir.Program
	obj  *ir.Object // object being generated
}

// Generate lowers root. entry is the function called by the startup object.
func Generate(root *Filebody, table *SymbolTable, entry *Symbol) (*ir.Program, error) {
	g := &Generator{prog: ir.NewProgram(ir.Label(table.Size()))}
	if err := g.prog.CreateStartup(ir.Label(entry.ID)); err != nil {
		return nil, err
	}
	if err := g.generate(root); err != nil {
		return nil, err
	}
	return g.prog, nil
}

func (g *Generator) generate(node Node) error {
	switch n := node.(type) {
	case *Filebody:
		for _, fn := range n.Functions {
			if err := g.generate(fn); err != nil {
				return err
			}
		}
		return nil

	case *Function:
		return g.genFunction(n)

	case *Body:
		for _, stmt := range n.Stmts {
			if err := g.generate(stmt); err != nil {
				return err
			}
		}
		return nil

	case *Return:
		if err := g.generate(n.Value); err != nil {
			return err
		}
		g.obj.AddInstrLabel(bytecode.OpRETQ, g.obj.SizeLabel)
		return nil

	case *IfElse:
		return g.genIfElse(n)

	case *While:
		return g.genWhile(n)

	case *Empty:
		return nil

	case *Call:
		if n.Symbol == nil {
			return fmt.Errorf("%s: call to '%s' was not resolved", n.Token.Pos, n.Name())
		}
		if err := g.generate(n.Args); err != nil {
			return err
		}
		g.obj.AddInstrLabel(bytecode.OpCALL, ir.Label(n.Symbol.ID))
		return nil

	case *ArgList:
		// last argument first, so the first one ends up next to the frame
		for i := len(n.Args) - 1; i >= 0; i-- {
			if err := g.generate(n.Args[i]); err != nil {
				return err
			}
		}
		return nil

	case *Instr:
		for _, arg := range n.Args.Args {
			if err := g.generate(arg); err != nil {
				return err
			}
		}
		g.obj.AddInstr(n.Op)
		return nil

	case *Variable:
		if n.Symbol == nil {
			return fmt.Errorf("%s: variable '%s' was not resolved", n.Token.Pos, n.Token.Lexeme)
		}
		g.obj.AddInstrLabel(bytecode.OpRLOADQ, ir.Label(n.Symbol.ID))
		return nil

	case *Integer:
		g.obj.AddInstrImm(bytecode.OpPUSHQ, n.Value())
		return nil
	}
	return fmt.Errorf("%s: cannot generate code for %s node", Pos(node), node.Kind())
}

// genFunction opens a new object for fn. Parameter symbols are equated to
// their frame offsets and the object's size label to the parameter block
// size, so RLOADQ and RETQ can refer to them symbolically.
func (g *Generator) genFunction(fn *Function) error {
	obj := g.prog.AddObject(ir.Label(fn.Symbol.ID), fn.Name())
	fn.Symbol.Object = len(g.prog.Objects) - 1

	obj.SizeLabel = g.prog.NewLabel()
	if err := g.prog.Equate(obj.SizeLabel, fn.ParamSize); err != nil {
		return err
	}
	for _, param := range fn.Params.Params {
		if err := g.prog.Equate(ir.Label(param.Symbol.ID), param.Offset); err != nil {
			return err
		}
	}

	prev := g.obj
	g.obj = obj
	defer func() { g.obj = prev }()

	if err := g.generate(fn.Body); err != nil {
		return err
	}
	// falling off the end returns 0
	obj.AddInstrImm(bytecode.OpPUSHQ, 0)
	obj.AddInstrLabel(bytecode.OpRETQ, obj.SizeLabel)
	return nil
}

func (g *Generator) genIfElse(n *IfElse) error {
	if err := g.generate(n.Cond); err != nil {
		return err
	}
	end := g.prog.NewLabel()
	body, hasElse := n.Else.(*Body)
	if !hasElse {
		g.obj.AddInstrLabel(bytecode.OpJZ, end)
		if err := g.generate(n.Then); err != nil {
			return err
		}
		g.obj.AddLabel(end)
		return nil
	}

	otherwise := g.prog.NewLabel()
	g.obj.AddInstrLabel(bytecode.OpJZ, otherwise)
	if err := g.generate(n.Then); err != nil {
		return err
	}
	g.obj.AddInstrLabel(bytecode.OpJMP, end)
	g.obj.AddLabel(otherwise)
	if err := g.generate(body); err != nil {
		return err
	}
	g.obj.AddLabel(end)
	return nil
}

func (g *Generator) genWhile(n *While) error {
	top := g.prog.NewLabel()
	end := g.prog.NewLabel()
	g.obj.AddLabel(top)
	if err := g.generate(n.Cond); err != nil {
		return err
	}
	g.obj.AddInstrLabel(bytecode.OpJZ, end)
	if err := g.generate(n.Body); err != nil {
		return err
	}
	g.obj.AddInstrLabel(bytecode.OpJMP, top)
	g.obj.AddLabel(end)
	return nil
}
