package compiler

import (
	"fmt"

	"fuco/pkg/diag"
)

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	NONE TokenType = iota

	// Synthetic markers
	SOURCE_START // start of the whole token stream
	SOURCE_END   // end of the whole token stream
	FILE_END     // boundary after every source file

	// Literals
	INTEGER    // decimal integer literal
	IDENTIFIER // variable / function / type name

	// Keywords
	DEF    // "def"
	INLINE // "inline"
	RETURN // "return"
	IF     // "if"
	ELSE   // "else"
	WHILE  // "while"

	// Separators
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :

	// Operators
	ARROW      // ->
	PLUS       // +
	MINUS      // -
	STAR       // *
	SLASH      // /
	PERCENT    // %
	EQUALS     // ==
	NOT_EQ     // !=
	GREATER    // >
	GREATER_EQ // >=
	LESS       // <
	LESS_EQ    // <=

	numTokenTypes
)

// TokenKind partitions token types.
type TokenKind int

const (
	KindSynthetic TokenKind = iota
	KindLiteral
	KindKeyword
	KindSeparator
	KindOperator
)

type tokenDescriptor struct {
	kind TokenKind
	text string // display string; source text for keywords, separators and operators
}

// tokenDescriptors is indexed by TokenType.
var tokenDescriptors = [numTokenTypes]tokenDescriptor{
	NONE:         {KindSynthetic, "<none>"},
	SOURCE_START: {KindSynthetic, "<start of source>"},
	SOURCE_END:   {KindSynthetic, "<end of source>"},
	FILE_END:     {KindSynthetic, "<end of file>"},

	INTEGER:    {KindLiteral, "integer"},
	IDENTIFIER: {KindLiteral, "identifier"},

	DEF:    {KindKeyword, "def"},
	INLINE: {KindKeyword, "inline"},
	RETURN: {KindKeyword, "return"},
	IF:     {KindKeyword, "if"},
	ELSE:   {KindKeyword, "else"},
	WHILE:  {KindKeyword, "while"},

	LPAREN:    {KindSeparator, "("},
	RPAREN:    {KindSeparator, ")"},
	LBRACE:    {KindSeparator, "{"},
	RBRACE:    {KindSeparator, "}"},
	LBRACKET:  {KindSeparator, "["},
	RBRACKET:  {KindSeparator, "]"},
	DOT:       {KindSeparator, "."},
	COMMA:     {KindSeparator, ","},
	SEMICOLON: {KindSeparator, ";"},
	COLON:     {KindSeparator, ":"},

	ARROW:      {KindOperator, "->"},
	PLUS:       {KindOperator, "+"},
	MINUS:      {KindOperator, "-"},
	STAR:       {KindOperator, "*"},
	SLASH:      {KindOperator, "/"},
	PERCENT:    {KindOperator, "%"},
	EQUALS:     {KindOperator, "=="},
	NOT_EQ:     {KindOperator, "!="},
	GREATER:    {KindOperator, ">"},
	GREATER_EQ: {KindOperator, ">="},
	LESS:       {KindOperator, "<"},
	LESS_EQ:    {KindOperator, "<="},
}

// registry maps source text to token type for one kind of token.
func registry(kind TokenKind) map[string]TokenType {
	m := make(map[string]TokenType)
	for tt, d := range tokenDescriptors {
		if d.kind == kind {
			m[d.text] = TokenType(tt)
		}
	}
	return m
}

var (
	keywords   = registry(KindKeyword)
	separators = registry(KindSeparator)
	operators  = registry(KindOperator)
)

func (tt TokenType) Kind() TokenKind {
	if tt < 0 || tt >= numTokenTypes {
		return KindSynthetic
	}
	return tokenDescriptors[tt].kind
}

func (tt TokenType) String() string {
	if tt < 0 || tt >= numTokenTypes {
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
	return tokenDescriptors[tt].text
}

// Token is a single lexical unit produced by the Lexer. Only literal tokens
// carry a lexeme; Value is set for INTEGER.
type Token struct {
	Type   TokenType
	Lexeme string
	Value  int64
	Pos    diag.Pos
}

// Text returns the source text of the token.
func (t Token) Text() string {
	if t.Type.Kind() == KindLiteral {
		return t.Lexeme
	}
	return t.Type.String()
}

// Describe renders the token for diagnostics, e.g. "identifier 'x'" or "';'".
func (t Token) Describe() string {
	switch t.Type.Kind() {
	case KindLiteral:
		return fmt.Sprintf("%s '%s'", t.Type, t.Lexeme)
	case KindSynthetic:
		return t.Type.String()
	}
	return "'" + t.Type.String() + "'"
}

func (t Token) String() string {
	return fmt.Sprintf("%-18s %-12q  %s", t.Type, t.Text(), t.Pos)
}
