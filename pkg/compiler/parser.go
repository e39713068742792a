package compiler

import (
	"fuco/pkg/diag"
)

// Parser consumes the token stream produced by the Lexer and builds an AST.
//
// Grammar:
//
//	filebody      = SOURCE_START (function_decl | FILE_END)* SOURCE_END
//	function_decl = "def" "inline"? (IDENTIFIER | "[" (IDENTIFIER | operator) "]") param_list "->" type block
//	param_list    = "(" (param ("," param)*)? ")"
//	param         = IDENTIFIER ":" type
//	block         = "{" statement* "}"
//	statement     = return | if_else | while
//	return        = "return" expression ";"
//	if_else       = "if" expression block ("else" block)?
//	while         = "while" expression block
//	expression    = equality
//	equality      = relational (("==" | "!=") relational)*
//	relational    = additive ((">" | ">=" | "<" | "<=") additive)*
//	additive      = term (("+" | "-") term)*
//	term          = value (("*" | "/" | "%") value)*
//	value         = INTEGER | IDENTIFIER call_args? | "%" IDENTIFIER call_args | "(" expression ")"
//	call_args     = "(" (expression ("," expression)*)? ")"
//	type          = IDENTIFIER
type Parser struct {
	tokens []Token
	pos    int
}

// precedence lists the binary operator tiers from lowest to highest.
var precedence = [][]TokenType{
	{EQUALS, NOT_EQ},
	{GREATER, GREATER_EQ, LESS, LESS_EQ},
	{PLUS, MINUS},
	{STAR, SLASH, PERCENT},
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse builds the AST of a whole token stream. The first error aborts the
// parse and no partial tree is returned.
func Parse(tokens []Token) (*Filebody, error) {
	return NewParser(tokens).parseFilebody()
}

// curr returns the current token; past the end of the stream it keeps
// returning the final SOURCE_END.
func (p *Parser) curr() Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1]
		}
		return Token{Type: SOURCE_END}
	}
	return p.tokens[p.pos]
}

// advance steps the cursor. It is a no-op on SOURCE_END.
func (p *Parser) advance() {
	if p.curr().Type != SOURCE_END {
		p.pos++
	}
}

// accept consumes the current token if it matches tt.
func (p *Parser) accept(tt TokenType) bool {
	if p.curr().Type != tt {
		return false
	}
	p.advance()
	return true
}

// expect consumes and returns the current token if it matches tt.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.curr()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", describeType(tt), tok.Describe())
	}
	p.advance()
	return tok, nil
}

func describeType(tt TokenType) string {
	switch tt.Kind() {
	case KindLiteral, KindSynthetic:
		return tt.String()
	}
	return "'" + tt.String() + "'"
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return diag.New(diag.CodeSyntax, tok.Pos, format, args...)
}

func (p *Parser) parseFilebody() (*Filebody, error) {
	start, err := p.expect(SOURCE_START)
	if err != nil {
		return nil, err
	}
	root := &Filebody{Token: start}
	for {
		switch tok := p.curr(); tok.Type {
		case SOURCE_END:
			return root, nil
		case FILE_END:
			p.advance()
		case DEF:
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			root.Functions = append(root.Functions, fn)
		default:
			return nil, p.errorf(tok, "expected function definition, got %s", tok.Describe())
		}
	}
}

func (p *Parser) parseFunction() (*Function, error) {
	if _, err := p.expect(DEF); err != nil {
		return nil, err
	}
	fn := &Function{Inline: p.accept(INLINE)}

	if p.accept(LBRACKET) {
		tok := p.curr()
		if tok.Type != IDENTIFIER && tok.Type.Kind() != KindOperator {
			return nil, p.errorf(tok, "expected identifier or operator, got %s", tok.Describe())
		}
		p.advance()
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		fn.Token = tok
		fn.Bracketed = true
	} else {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		fn.Token = tok
	}

	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	fn.Params = params

	if _, err := p.expect(ARROW); err != nil {
		return nil, err
	}
	if fn.RetType, err = p.parseType(); err != nil {
		return nil, err
	}
	if fn.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) parseParamList() (*ParamList, error) {
	open, err := p.expect(LPAREN)
	if err != nil {
		return nil, err
	}
	list := &ParamList{Token: open}
	if p.accept(RPAREN) {
		return list, nil
	}
	for {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		list.Params = append(list.Params, param)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseParam() (*Param, error) {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &Param{Token: name, Type: typ}, nil
}

func (p *Parser) parseType() (*TypeIdentifier, error) {
	tok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	return &TypeIdentifier{Token: tok}, nil
}

func (p *Parser) parseBlock() (*Body, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	body := &Body{Token: open}
	for !p.accept(RBRACE) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body.Stmts = append(body.Stmts, stmt)
	}
	return body, nil
}

func (p *Parser) parseStatement() (Node, error) {
	switch tok := p.curr(); tok.Type {
	case RETURN:
		return p.parseReturn()
	case IF:
		return p.parseIfElse()
	case WHILE:
		return p.parseWhile()
	default:
		return nil, p.errorf(tok, "expected statement, got %s", tok.Describe())
	}
}

func (p *Parser) parseReturn() (*Return, error) {
	tok, err := p.expect(RETURN)
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Return{Token: tok, Value: value}, nil
}

func (p *Parser) parseIfElse() (*IfElse, error) {
	tok, err := p.expect(IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &IfElse{Token: tok, Cond: cond, Then: then}

	elseTok := p.curr()
	if !p.accept(ELSE) {
		node.Else = &Empty{Token: elseTok}
		return node, nil
	}
	if node.Else, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseWhile() (*While, error) {
	tok, err := p.expect(WHILE)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{Token: tok, Cond: cond, Body: body}, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseOperatorLevel(0)
}

// parseOperatorLevel parses a left-associative chain over precedence tier
// level. Every operator becomes a Call on the operator token.
func (p *Parser) parseOperatorLevel(level int) (Expr, error) {
	if level == len(precedence) {
		return p.parseValue()
	}
	left, err := p.parseOperatorLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op := p.curr()
		if !inTier(op.Type, precedence[level]) {
			return left, nil
		}
		p.advance()
		right, err := p.parseOperatorLevel(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Call{
			Token: op,
			Args:  &ArgList{Token: op, Args: []Expr{left, right}},
		}
	}
}

func inTier(tt TokenType, tier []TokenType) bool {
	for _, t := range tier {
		if t == tt {
			return true
		}
	}
	return false
}

func (p *Parser) parseValue() (Expr, error) {
	tok := p.curr()
	switch tok.Type {
	case INTEGER:
		p.advance()
		return &Integer{Token: tok}, nil

	case IDENTIFIER:
		p.advance()
		if p.curr().Type != LPAREN {
			return &Variable{Token: tok}, nil
		}
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &Call{Token: tok, Args: args}, nil

	case PERCENT:
		p.advance()
		return p.parseInstr()

	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorf(tok, "expected expression, got %s", tok.Describe())
}

// parseInstr parses the instruction literal following '%'. The mnemonic is
// checked here, not during resolution.
func (p *Parser) parseInstr() (*Instr, error) {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	sig, ok := instrTable[name.Lexeme]
	if !ok {
		return nil, diag.New(diag.CodeUnknownInstruction, name.Pos, "unknown instruction '%s'", name.Lexeme)
	}
	args, err := p.parseCallArgs()
	if err != nil {
		return nil, err
	}
	return &Instr{Token: name, Op: sig.op, Args: args}, nil
}

func (p *Parser) parseCallArgs() (*ArgList, error) {
	open, err := p.expect(LPAREN)
	if err != nil {
		return nil, err
	}
	list := &ArgList{Token: open}
	if p.accept(RPAREN) {
		return list, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list.Args = append(list.Args, arg)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return list, nil
}
