package compiler

import (
	"fuco/pkg/bytecode"
	"fuco/pkg/diag"
)

// NodeKind tags the concrete type of a Node.
type NodeKind int

const (
	NodeFilebody NodeKind = iota
	NodeBody
	NodeFunction
	NodeParamList
	NodeParam
	NodeCall
	NodeInstr
	NodeArgList
	NodeVariable
	NodeInteger
	NodeReturn
	NodeIfElse
	NodeWhile
	NodeTypeIdentifier
	NodeEmpty
)

var nodeKindNames = [...]string{
	NodeFilebody:       "filebody",
	NodeBody:           "body",
	NodeFunction:       "function",
	NodeParamList:      "params",
	NodeParam:          "param",
	NodeCall:           "call",
	NodeInstr:          "instr",
	NodeArgList:        "args",
	NodeVariable:       "variable",
	NodeInteger:        "integer",
	NodeReturn:         "return",
	NodeIfElse:         "if",
	NodeWhile:          "while",
	NodeTypeIdentifier: "type",
	NodeEmpty:          "empty",
}

func (k NodeKind) String() string { return nodeKindNames[k] }

// Node is implemented by every AST node. Each node keeps the token it was
// built from.
type Node interface {
	Kind() NodeKind
	Tok() Token
}

// Pos returns the source position of n.
func Pos(n Node) diag.Pos { return n.Tok().Pos }

// Expr is implemented by value-producing nodes. The resolver stores the
// inferred type (a Type symbol id) on each of them.
type Expr interface {
	Node
	ValueType() SymbolID
	setValueType(SymbolID)
}

type typed struct {
	Datatype SymbolID
}

func (t *typed) ValueType() SymbolID      { return t.Datatype }
func (t *typed) setValueType(id SymbolID) { t.Datatype = id }

//  Declarations

// Filebody is the root of a compilation unit.
type Filebody struct {
	Token     Token
	Functions []*Function
	Scope     *Scope
}

// Function is a function declaration.
//
//	def inline [+](a: Int, b: Int) -> Int { ... }
type Function struct {
	Token     Token // name
	Inline    bool
	Bracketed bool // name was written as [name]
	Params    *ParamList
	RetType   *TypeIdentifier
	Body      *Body

	Scope  *Scope
	Symbol *Symbol

	// ParamSize is the byte size of the parameter block popped on return.
	ParamSize int64
}

type ParamList struct {
	Token  Token
	Params []*Param
}

// Param is one declared parameter; Offset is relative to the frame base
// pointer.
type Param struct {
	Token  Token
	Type   *TypeIdentifier
	Symbol *Symbol
	Offset int64
}

type TypeIdentifier struct {
	Token  Token
	Symbol *Symbol
}

//  Statements

type Body struct {
	Token Token
	Stmts []Node
}

type Return struct {
	Token Token
	Value Expr
}

// IfElse has an *Empty Else when the else branch is absent.
type IfElse struct {
	Token Token
	Cond  Expr
	Then  *Body
	Else  Node
}

type While struct {
	Token Token
	Cond  Expr
	Body  *Body
}

type Empty struct {
	Token Token
}

//  Expressions

// Call is a function call. Binary operators are calls whose token is the
// operator and whose arguments are [left, right].
type Call struct {
	typed
	Token  Token
	Args   *ArgList
	Symbol *Symbol
}

// IsOperator reports whether the call was written as a binary operator.
func (c *Call) IsOperator() bool { return c.Token.Type.Kind() == KindOperator }

// Instr is an instruction literal: %mnemonic(args).
type Instr struct {
	typed
	Token Token // mnemonic
	Op    bytecode.Opcode
	Args  *ArgList
}

type ArgList struct {
	Token Token
	Args  []Expr
}

type Variable struct {
	typed
	Token  Token
	Symbol *Symbol
}

type Integer struct {
	typed
	Token Token
}

func (n *Integer) Value() int64 { return n.Token.Value }

func (*Filebody) Kind() NodeKind       { return NodeFilebody }
func (*Body) Kind() NodeKind           { return NodeBody }
func (*Function) Kind() NodeKind       { return NodeFunction }
func (*ParamList) Kind() NodeKind      { return NodeParamList }
func (*Param) Kind() NodeKind          { return NodeParam }
func (*Call) Kind() NodeKind           { return NodeCall }
func (*Instr) Kind() NodeKind          { return NodeInstr }
func (*ArgList) Kind() NodeKind        { return NodeArgList }
func (*Variable) Kind() NodeKind       { return NodeVariable }
func (*Integer) Kind() NodeKind        { return NodeInteger }
func (*Return) Kind() NodeKind         { return NodeReturn }
func (*IfElse) Kind() NodeKind         { return NodeIfElse }
func (*While) Kind() NodeKind          { return NodeWhile }
func (*TypeIdentifier) Kind() NodeKind { return NodeTypeIdentifier }
func (*Empty) Kind() NodeKind          { return NodeEmpty }

func (n *Filebody) Tok() Token       { return n.Token }
func (n *Body) Tok() Token           { return n.Token }
func (n *Function) Tok() Token       { return n.Token }
func (n *ParamList) Tok() Token      { return n.Token }
func (n *Param) Tok() Token          { return n.Token }
func (n *Call) Tok() Token           { return n.Token }
func (n *Instr) Tok() Token          { return n.Token }
func (n *ArgList) Tok() Token        { return n.Token }
func (n *Variable) Tok() Token       { return n.Token }
func (n *Integer) Tok() Token        { return n.Token }
func (n *Return) Tok() Token         { return n.Token }
func (n *IfElse) Tok() Token         { return n.Token }
func (n *While) Tok() Token          { return n.Token }
func (n *TypeIdentifier) Tok() Token { return n.Token }
func (n *Empty) Tok() Token          { return n.Token }

// Name is the declared name of the function, e.g. "main" or "+".
func (n *Function) Name() string { return n.Token.Text() }

// Name is the callee name, e.g. "f" or "==".
func (n *Call) Name() string { return n.Token.Text() }
