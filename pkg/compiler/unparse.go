package compiler

import (
	"fmt"
	"strings"
)

// Unparse renders node back to source text. Binary operators are fully
// parenthesized, so parsing the result yields the same tree.
func Unparse(node Node) string {
	var sb strings.Builder
	u := unparser{sb: &sb}
	u.node(node)
	return sb.String()
}

type unparser struct {
	sb    *strings.Builder
	depth int
}

func (u *unparser) write(s ...string) {
	for _, part := range s {
		u.sb.WriteString(part)
	}
}

func (u *unparser) indent() {
	u.sb.WriteString(strings.Repeat("    ", u.depth))
}

func (u *unparser) node(node Node) {
	switch n := node.(type) {
	case *Filebody:
		for i, fn := range n.Functions {
			if i > 0 {
				u.write("\n")
			}
			u.node(fn)
		}

	case *Function:
		u.write("def ")
		if n.Inline {
			u.write("inline ")
		}
		if n.Bracketed {
			u.write("[", n.Name(), "]")
		} else {
			u.write(n.Name())
		}
		u.node(n.Params)
		u.write(" -> ", n.RetType.Token.Lexeme, " ")
		u.node(n.Body)
		u.write("\n")

	case *ParamList:
		u.write("(")
		for i, param := range n.Params {
			if i > 0 {
				u.write(", ")
			}
			u.write(param.Token.Lexeme, ": ", param.Type.Token.Lexeme)
		}
		u.write(")")

	case *Body:
		u.write("{\n")
		u.depth++
		for _, stmt := range n.Stmts {
			u.indent()
			u.node(stmt)
			u.write("\n")
		}
		u.depth--
		u.indent()
		u.write("}")

	case *Return:
		u.write("return ")
		u.node(n.Value)
		u.write(";")

	case *IfElse:
		u.write("if ")
		u.node(n.Cond)
		u.write(" ")
		u.node(n.Then)
		if body, ok := n.Else.(*Body); ok {
			u.write(" else ")
			u.node(body)
		}

	case *While:
		u.write("while ")
		u.node(n.Cond)
		u.write(" ")
		u.node(n.Body)

	case *Call:
		if n.IsOperator() && len(n.Args.Args) == 2 {
			u.write("(")
			u.node(n.Args.Args[0])
			u.write(" ", n.Name(), " ")
			u.node(n.Args.Args[1])
			u.write(")")
			return
		}
		u.write(n.Name())
		u.node(n.Args)

	case *Instr:
		u.write("%", n.Token.Lexeme)
		u.node(n.Args)

	case *ArgList:
		u.write("(")
		for i, arg := range n.Args {
			if i > 0 {
				u.write(", ")
			}
			u.node(arg)
		}
		u.write(")")

	case *Variable:
		u.write(n.Token.Lexeme)

	case *Integer:
		u.write(n.Token.Lexeme)

	case *TypeIdentifier:
		u.write(n.Token.Lexeme)

	case *Empty:
	}
}

// Dump renders node as an S-expression of node kinds and token texts, e.g.
//
//	(function main (params) (type Int) (body (return (integer 1))))
func Dump(node Node) string {
	var sb strings.Builder
	dump(&sb, node)
	return sb.String()
}

func dump(sb *strings.Builder, node Node) {
	open := func(head string) { fmt.Fprintf(sb, "(%s", head) }
	child := func(n Node) {
		sb.WriteString(" ")
		dump(sb, n)
	}

	switch n := node.(type) {
	case *Filebody:
		open("filebody")
		for _, fn := range n.Functions {
			child(fn)
		}
	case *Function:
		head := "function"
		if n.Inline {
			head = "function inline"
		}
		open(head + " " + n.Name())
		child(n.Params)
		child(n.RetType)
		child(n.Body)
	case *ParamList:
		open("params")
		for _, param := range n.Params {
			child(param)
		}
	case *Param:
		open("param " + n.Token.Lexeme)
		child(n.Type)
	case *TypeIdentifier:
		open("type " + n.Token.Lexeme)
	case *Body:
		open("body")
		for _, stmt := range n.Stmts {
			child(stmt)
		}
	case *Return:
		open("return")
		child(n.Value)
	case *IfElse:
		open("if")
		child(n.Cond)
		child(n.Then)
		child(n.Else)
	case *While:
		open("while")
		child(n.Cond)
		child(n.Body)
	case *Call:
		open("call " + n.Name())
		child(n.Args)
	case *Instr:
		open("instr " + n.Token.Lexeme)
		child(n.Args)
	case *ArgList:
		open("args")
		for _, arg := range n.Args {
			child(arg)
		}
	case *Variable:
		open("variable " + n.Token.Lexeme)
	case *Integer:
		open("integer " + n.Token.Lexeme)
	case *Empty:
		open("empty")
	default:
		open("?")
	}
	sb.WriteString(")")
}
