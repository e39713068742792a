package compiler

import (
	"fmt"
	"strings"

	"fuco/pkg/bytecode"
	"fuco/pkg/diag"
)

// frameHeaderSlots is the number of stack slots between the parameters and
// the base pointer: return value slot, saved ip and saved bp.
const frameHeaderSlots = 3

// Resolver binds names to symbols and annotates the AST with types and frame
// offsets. It runs as a sequence of full-tree passes; a failing pass stops
// the sequence.
type Resolver struct {
	table *SymbolTable
	fn    *Function // function whose body is being resolved
}

func NewResolver(table *SymbolTable) *Resolver {
	return &Resolver{table: table}
}

// Resolve runs every resolution pass over root.
func Resolve(root *Filebody, table *SymbolTable) error {
	return NewResolver(table).Resolve(root)
}

func (r *Resolver) Resolve(root *Filebody) error {
	passes := []func(*Filebody) error{
		r.setupScopes,
		r.gatherFunctions,
		r.resolveLocals,
		r.setupFrames,
	}
	for _, pass := range passes {
		if err := pass(root); err != nil {
			return err
		}
	}
	return nil
}

// setupScopes creates the scope of the file body and of every function.
func (r *Resolver) setupScopes(root *Filebody) error {
	root.Scope = NewScope(nil)
	r.table.BindBuiltins(root.Scope)
	for _, fn := range root.Functions {
		fn.Scope = NewScope(root.Scope)
	}
	return nil
}

// gatherFunctions declares every function in the file scope before any body
// is looked at, so calls may refer to functions declared later.
func (r *Resolver) gatherFunctions(root *Filebody) error {
	for _, fn := range root.Functions {
		sym, err := r.table.Insert(root.Scope, fn.Token, fn, SymFunction)
		fn.Symbol = sym
		if err != nil {
			return err
		}
		if err := r.resolveType(root.Scope, fn.RetType); err != nil {
			return err
		}
		for _, param := range fn.Params.Params {
			if err := r.resolveType(root.Scope, param.Type); err != nil {
				return err
			}
			sym, err := r.table.Insert(fn.Scope, param.Token, param, SymVariable)
			param.Symbol = sym
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) resolveType(scope *Scope, typ *TypeIdentifier) error {
	ids := scope.Lookup(typ.Token.Lexeme)
	if ids == nil {
		return r.undeclared(typ.Token)
	}
	sym := r.table.Get(ids[0])
	if sym.Kind != SymType {
		return diag.New(diag.CodeExpectedType, typ.Token.Pos, "expected type, '%s' is a %s", typ.Token.Lexeme, sym.Kind)
	}
	typ.Symbol = sym
	return nil
}

func (r *Resolver) undeclared(tok Token) error {
	return diag.New(diag.CodeUndeclared, tok.Pos, "'%s' was not declared in this scope", tok.Text())
}

func (r *Resolver) resolveLocals(root *Filebody) error {
	for _, fn := range root.Functions {
		r.fn = fn
		if err := r.resolveBody(fn.Body); err != nil {
			return err
		}
	}
	r.fn = nil
	return nil
}

func (r *Resolver) resolveBody(body *Body) error {
	for _, stmt := range body.Stmts {
		if err := r.resolveStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveStmt(stmt Node) error {
	switch n := stmt.(type) {
	case *Return:
		if err := r.resolveExpr(n.Value); err != nil {
			return err
		}
		return r.coerce(n.Value, r.fn.RetType.Symbol.ID, "return value")

	case *IfElse:
		if err := r.resolveCond(n.Cond); err != nil {
			return err
		}
		if err := r.resolveBody(n.Then); err != nil {
			return err
		}
		if body, ok := n.Else.(*Body); ok {
			return r.resolveBody(body)
		}
		return nil

	case *While:
		if err := r.resolveCond(n.Cond); err != nil {
			return err
		}
		return r.resolveBody(n.Body)

	case *Body:
		return r.resolveBody(n)

	case *Empty:
		return nil
	}
	return diag.New(diag.CodeInternal, Pos(stmt), "unexpected %s node in statement position", stmt.Kind())
}

func (r *Resolver) resolveCond(cond Expr) error {
	if err := r.resolveExpr(cond); err != nil {
		return err
	}
	return r.coerce(cond, TypeBool, "condition")
}

// coerce checks that expr can be used where a value of type want is
// expected.
func (r *Resolver) coerce(expr Expr, want SymbolID, what string) error {
	if matchType(expr.ValueType(), want) > rankNoMatch {
		return nil
	}
	return diag.New(diag.CodeTypeMismatch, Pos(expr), "%s has type '%s', expected '%s'",
		what, r.typeName(expr.ValueType()), r.typeName(want))
}

func (r *Resolver) typeName(id SymbolID) string {
	if sym := r.table.Get(id); sym != nil {
		return sym.Name()
	}
	return "?"
}

func (r *Resolver) resolveExpr(expr Expr) error {
	switch n := expr.(type) {
	case *Integer:
		n.setValueType(TypeInt)
		return nil

	case *Variable:
		ids := r.fn.Scope.Lookup(n.Token.Lexeme)
		if ids == nil {
			return r.undeclared(n.Token)
		}
		sym := r.table.Get(ids[0])
		if sym.Kind != SymVariable {
			return diag.New(diag.CodeExpectedVariable, n.Token.Pos, "expected variable, '%s' is a %s", n.Token.Lexeme, sym.Kind)
		}
		n.Symbol = sym
		n.setValueType(sym.Def.(*Param).Type.Symbol.ID)
		return nil

	case *Call:
		if err := r.resolveArgs(n.Args); err != nil {
			return err
		}
		return r.resolveCall(n)

	case *Instr:
		if err := r.resolveArgs(n.Args); err != nil {
			return err
		}
		return r.resolveInstr(n)
	}
	return diag.New(diag.CodeInternal, Pos(expr), "unexpected %s node in expression position", expr.Kind())
}

func (r *Resolver) resolveArgs(args *ArgList) error {
	for _, arg := range args.Args {
		if err := r.resolveExpr(arg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveInstr(n *Instr) error {
	sig := instrTable[n.Op.Mnemonic()]
	if len(n.Args.Args) != len(sig.params) {
		return diag.New(diag.CodeTypeMismatch, n.Token.Pos, "instruction '%s' takes %d arguments, got %d",
			n.Token.Lexeme, len(sig.params), len(n.Args.Args))
	}
	for i, arg := range n.Args.Args {
		if err := r.coerce(arg, sig.params[i], fmt.Sprintf("argument %d of '%s'", i+1, n.Token.Lexeme)); err != nil {
			return err
		}
	}
	n.setValueType(sig.ret)
	return nil
}

// matchRank orders how well an argument fits a parameter. Higher is better.
type matchRank int

const (
	rankNoMatch matchRank = iota
	rankMatch

	numRanks
)

// matchType ranks passing a value of type arg to a parameter of type param.
// Only exact matches are accepted; implicit conversions would add ranks
// between rankNoMatch and rankMatch.
func matchType(arg, param SymbolID) matchRank {
	if arg == param {
		return rankMatch
	}
	return rankNoMatch
}

// candidates returns the overload chain a call named tok may resolve to.
// A type name stands for its constructors.
func (r *Resolver) candidates(tok Token) ([]*Symbol, error) {
	ids := r.fn.Scope.Lookup(tok.Text())
	if ids == nil {
		return nil, r.undeclared(tok)
	}
	primary := r.table.Get(ids[0])
	switch primary.Kind {
	case SymType:
		ids = ids[1:]
	case SymFunction:
	default:
		return nil, diag.New(diag.CodeExpectedFunction, tok.Pos, "expected function, '%s' is a %s", tok.Text(), primary.Kind)
	}
	syms := make([]*Symbol, 0, len(ids))
	for _, id := range ids {
		syms = append(syms, r.table.Get(id))
	}
	return syms, nil
}

// resolveCall performs overload resolution. Every candidate with the right
// arity is ranked by the worst match among its arguments. The best
// non-empty rank wins; more than one candidate in it is ambiguous.
func (r *Resolver) resolveCall(call *Call) error {
	cands, err := r.candidates(call.Token)
	if err != nil {
		return err
	}

	var buckets [numRanks][]*Symbol
	for _, cand := range cands {
		fn := cand.Def.(*Function)
		params := fn.Params.Params
		if len(params) != len(call.Args.Args) {
			continue
		}
		rank := rankMatch
		for i, arg := range call.Args.Args {
			rank = min(rank, matchType(arg.ValueType(), params[i].Type.Symbol.ID))
		}
		buckets[rank] = append(buckets[rank], cand)
	}

	for rank := numRanks - 1; rank > rankNoMatch; rank-- {
		bucket := buckets[rank]
		if len(bucket) == 0 {
			continue
		}
		if len(bucket) > 1 {
			return diag.New(diag.CodeAmbiguousCall, call.Token.Pos, "call to '%s' is ambiguous; candidates: %s",
				r.signature(call), r.candidateList(bucket))
		}
		call.Symbol = bucket[0]
		call.setValueType(bucket[0].Def.(*Function).RetType.Symbol.ID)
		return nil
	}
	return diag.New(diag.CodeNoMatchingCall, call.Token.Pos, "no matching function for call to '%s'", r.signature(call))
}

// signature renders a call site as name(T1, T2).
func (r *Resolver) signature(call *Call) string {
	types := make([]string, len(call.Args.Args))
	for i, arg := range call.Args.Args {
		types[i] = r.typeName(arg.ValueType())
	}
	return call.Name() + "(" + strings.Join(types, ", ") + ")"
}

func (r *Resolver) candidateList(syms []*Symbol) string {
	where := make([]string, len(syms))
	for i, sym := range syms {
		where[i] = sym.Token.Pos.String()
	}
	return strings.Join(where, ", ")
}

// setupFrames assigns parameter offsets for every function.
func (r *Resolver) setupFrames(root *Filebody) error {
	for _, fn := range root.Functions {
		fn.ParamSize = setupOffsets(fn)
	}
	return nil
}

// setupOffsets places the parameters below the call frame header, the first
// parameter closest to it, and returns the byte size of the parameter block.
func setupOffsets(fn *Function) int64 {
	offset := int64(-frameHeaderSlots * bytecode.SlotSize)
	for _, param := range fn.Params.Params {
		param.Offset = offset
		offset -= bytecode.SlotSize
	}
	return int64(len(fn.Params.Params)) * bytecode.SlotSize
}

// FindEntry looks up the entry point: the parameterless function named
// "main" in the file scope.
func FindEntry(root *Filebody, table *SymbolTable) (*Symbol, error) {
	const name = "main"
	var found []*Symbol
	for _, id := range root.Scope.LookupLocal(name) {
		sym := table.Get(id)
		if sym.Kind != SymFunction {
			continue
		}
		if len(sym.Def.(*Function).Params.Params) == 0 {
			found = append(found, sym)
		}
	}
	switch len(found) {
	case 0:
		return nil, diag.NoPos(diag.CodeMissingEntry, "entry point '%s' was not defined", name)
	case 1:
		return found[0], nil
	}
	return nil, diag.New(diag.CodeAmbiguousCall, found[1].Token.Pos, "entry point '%s' is defined more than once", name)
}
