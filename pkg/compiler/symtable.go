package compiler

import (
	"fmt"
	"sort"
	"strings"

	"fuco/pkg/diag"
)

// SymbolID is the dense index of a symbol in its table. IR labels below the
// table size are symbol ids.
type SymbolID int

const symbolChunkSize = 512

// Ids of the null symbol and the built-in types.
const (
	NullSymbol SymbolID = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeNone

	numBuiltins
)

var builtinNames = [numBuiltins]string{
	TypeInt:   "Int",
	TypeFloat: "Float",
	TypeBool:  "Bool",
	TypeNone:  "None",
}

type SymbolKind int

const (
	SymNull SymbolKind = iota
	SymVariable
	SymType
	SymFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymType:
		return "type"
	case SymFunction:
		return "function"
	}
	return "null"
}

// Symbol is one declared name.
type Symbol struct {
	Token Token
	ID    SymbolID
	Kind  SymbolKind
	Def   Node // declaring node; nil for the null symbol and built-ins

	// Object is the index of the IR object generated for a function, or -1.
	Object int
}

func (s *Symbol) Name() string { return s.Token.Text() }

// Scope binds names to symbols. Several symbols share a name only as an
// overload chain: the primary symbol (a Type or the first Function) comes
// first, further Functions follow in declaration order.
type Scope struct {
	Parent *Scope
	names  map[string][]SymbolID
}

func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, names: make(map[string][]SymbolID)}
}

// Lookup walks the scope chain outward and returns the chain bound to name
// in the innermost scope that has one.
func (s *Scope) Lookup(name string) []SymbolID {
	for sc := s; sc != nil; sc = sc.Parent {
		if ids, ok := sc.names[name]; ok {
			return ids
		}
	}
	return nil
}

// LookupLocal only consults s itself.
func (s *Scope) LookupLocal(name string) []SymbolID {
	return s.names[name]
}

// Names returns the names bound in s, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SymbolTable is an append-only table of every symbol of a compilation
// unit. Symbols live in fixed-size chunks so pointers to them stay valid.
type SymbolTable struct {
	chunks [][]Symbol
	size   int
}

// NewSymbolTable returns a table holding the null symbol and the built-in
// types at their fixed ids.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	t.alloc(Token{}, nil, SymNull)
	for id := TypeInt; id < numBuiltins; id++ {
		tok := Token{Type: IDENTIFIER, Lexeme: builtinNames[id], Pos: diag.Pos{File: "<builtin>"}}
		t.alloc(tok, nil, SymType)
	}
	return t
}

// Size is the number of symbols, and so the first id never used by a symbol.
func (t *SymbolTable) Size() int { return t.size }

// Get returns the symbol with the given id, or nil if it is out of range.
func (t *SymbolTable) Get(id SymbolID) *Symbol {
	if id < 0 || int(id) >= t.size {
		return nil
	}
	return &t.chunks[int(id)/symbolChunkSize][int(id)%symbolChunkSize]
}

func (t *SymbolTable) alloc(tok Token, def Node, kind SymbolKind) *Symbol {
	if t.size%symbolChunkSize == 0 {
		t.chunks = append(t.chunks, make([]Symbol, 0, symbolChunkSize))
	}
	last := len(t.chunks) - 1
	t.chunks[last] = append(t.chunks[last], Symbol{
		Token:  tok,
		ID:     SymbolID(t.size),
		Kind:   kind,
		Def:    def,
		Object: -1,
	})
	t.size++
	return &t.chunks[last][len(t.chunks[last])-1]
}

// BindBuiltins makes the built-in types visible in scope.
func (t *SymbolTable) BindBuiltins(scope *Scope) {
	for id := TypeInt; id < numBuiltins; id++ {
		scope.names[builtinNames[id]] = []SymbolID{id}
	}
}

// Insert creates a symbol with the next id and, if scope is non-nil, binds
// it there. The symbol is allocated even when binding fails.
func (t *SymbolTable) Insert(scope *Scope, tok Token, def Node, kind SymbolKind) (*Symbol, error) {
	sym := t.alloc(tok, def, kind)
	if scope == nil {
		return sym, nil
	}
	if err := t.bind(scope, sym); err != nil {
		return sym, err
	}
	return sym, nil
}

func (t *SymbolTable) bind(scope *Scope, sym *Symbol) error {
	name := sym.Name()
	ids, ok := scope.names[name]
	if !ok {
		scope.names[name] = []SymbolID{sym.ID}
		return nil
	}
	primary := t.Get(ids[0])

	switch {
	case sym.Kind == SymFunction && (primary.Kind == SymType || primary.Kind == SymFunction):
		scope.names[name] = append(ids, sym.ID)
		return nil
	case sym.Kind == SymType && primary.Kind == SymFunction:
		chain := make([]SymbolID, 0, len(ids)+1)
		chain = append(chain, sym.ID)
		scope.names[name] = append(chain, ids...)
		return nil
	}
	return diag.New(diag.CodeRedeclared, sym.Token.Pos,
		"redeclaration of '%s' (previously declared as %s at %s)", name, primary.Kind, primary.Token.Pos)
}

// String returns a dump of every symbol in id order.
func (t *SymbolTable) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Symbols (%d):\n", t.size)
	for id := SymbolID(0); int(id) < t.size; id++ {
		sym := t.Get(id)
		where := ""
		if sym.Token.Pos.File != "" {
			where = sym.Token.Pos.String()
		}
		fmt.Fprintf(&sb, "  %4d  %-9s %-12s %s\n", id, sym.Kind, sym.Name(), where)
	}
	return sb.String()
}
