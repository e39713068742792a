package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fuco/pkg/bytecode"
	"fuco/pkg/diag"
)

const (
	eofChar = -1

	readBufferSize = 4096
)

// Source is one named input of a compilation unit.
type Source struct {
	Name   string
	Reader io.Reader
}

// StringSource wraps in-memory source text.
func StringSource(name, text string) Source {
	return Source{Name: name, Reader: strings.NewReader(text)}
}

// Lexer holds all mutable state for scanning a queue of sources.
type Lexer struct {
	queue []Source

	r    *bufio.Reader
	file string
	ch   rune // current character, eofChar at end of file

	curr  diag.Pos // position of ch
	start diag.Pos // position of the first character of the token being scanned

	buf    strings.Builder
	tokens []Token
}

func newLexer(sources []Source) *Lexer {
	return &Lexer{queue: sources}
}

// Lex converts sources into one token stream: SOURCE_START, the tokens of
// every source each followed by FILE_END, and a final SOURCE_END. The first
// error aborts lexing and no stream is returned.
func Lex(sources ...Source) ([]Token, error) {
	l := newLexer(sources)
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

// LexFiles reads every file fully before tokenizing.
func LexFiles(paths ...string) ([]Token, error) {
	sources, err := ReadSources(paths...)
	if err != nil {
		return nil, err
	}
	return Lex(sources...)
}

// ReadSources loads files from disk into in-memory sources.
func ReadSources(paths ...string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &diag.Error{Code: diag.CodeIO, Msg: fmt.Sprintf("could not read '%s': %v", path, err)}
		}
		sources = append(sources, StringSource(path, string(data)))
	}
	return sources, nil
}

func (l *Lexer) run() error {
	l.emit(SOURCE_START, diag.Pos{})
	for _, src := range l.queue {
		if err := l.open(src); err != nil {
			return err
		}
		if err := l.scanFile(); err != nil {
			return err
		}
	}
	l.emit(SOURCE_END, l.curr)
	return nil
}

func (l *Lexer) open(src Source) error {
	l.r = bufio.NewReaderSize(src.Reader, readBufferSize)
	l.file = src.Name
	l.curr = diag.Pos{File: src.Name, Row: 1, Col: 1}
	return l.read()
}

// read loads the next character into l.ch without moving the position.
func (l *Lexer) read() error {
	ch, _, err := l.r.ReadRune()
	if errors.Is(err, io.EOF) {
		l.ch = eofChar
		return nil
	}
	if err != nil {
		return diag.New(diag.CodeIO, l.curr, "read error: %v", err)
	}
	l.ch = ch
	return nil
}

// advance consumes the current character.
func (l *Lexer) advance() error {
	if l.ch == eofChar {
		return nil
	}
	if l.ch == '\n' {
		l.curr.Row++
		l.curr.Col = 1
	} else {
		l.curr.Col++
	}
	return l.read()
}

func (l *Lexer) emit(tt TokenType, pos diag.Pos) {
	l.tokens = append(l.tokens, Token{Type: tt, Pos: pos})
}

func (l *Lexer) errorf(code diag.Code, format string, args ...any) error {
	return diag.New(code, l.start, format, args...)
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isOperatorChar(ch rune) bool {
	return strings.ContainsRune("+-*/%=!<>", ch)
}

// skipBlank discards whitespace and '#' comments up to the next token.
func (l *Lexer) skipBlank() error {
	for {
		switch {
		case isSpace(l.ch):
			if err := l.advance(); err != nil {
				return err
			}
		case l.ch == '#':
			for l.ch != '\n' && l.ch != eofChar {
				if err := l.advance(); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}

// accumulate consumes characters matching pred into l.buf.
func (l *Lexer) accumulate(pred func(rune) bool) error {
	l.buf.Reset()
	for l.ch != eofChar && pred(l.ch) {
		l.buf.WriteRune(l.ch)
		if err := l.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lexer) scanFile() error {
	for {
		if err := l.skipBlank(); err != nil {
			return err
		}
		l.start = l.curr

		var err error
		switch ch := l.ch; {
		case ch == eofChar:
			l.emit(FILE_END, l.start)
			return nil
		case isIdentStart(ch):
			err = l.scanIdent()
		case isDigit(ch):
			err = l.scanInt()
		case isOperatorChar(ch):
			err = l.scanOperator()
		default:
			err = l.scanSeparator()
		}
		if err != nil {
			return err
		}
	}
}

func (l *Lexer) scanIdent() error {
	if err := l.accumulate(isIdentChar); err != nil {
		return err
	}
	text := l.buf.String()
	if kw, ok := keywords[text]; ok {
		l.emit(kw, l.start)
		return nil
	}
	l.tokens = append(l.tokens, Token{Type: IDENTIFIER, Lexeme: text, Pos: l.start})
	return nil
}

// scanInt reads a decimal literal. Values that do not fit an instruction
// immediate are rejected rather than wrapped.
func (l *Lexer) scanInt() error {
	if err := l.accumulate(isDigit); err != nil {
		return err
	}
	text := l.buf.String()
	if isIdentStart(l.ch) {
		return l.errorf(diag.CodeIntegerRange, "invalid integer literal '%s%c'", text, l.ch)
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil || v > uint64(bytecode.MaxImm) {
		return l.errorf(diag.CodeIntegerRange, "integer literal '%s' out of range", text)
	}
	l.tokens = append(l.tokens, Token{Type: INTEGER, Lexeme: text, Value: int64(v), Pos: l.start})
	return nil
}

func (l *Lexer) scanOperator() error {
	if err := l.accumulate(isOperatorChar); err != nil {
		return err
	}
	text := l.buf.String()
	tt, ok := operators[text]
	if !ok {
		return l.errorf(diag.CodeInvalidOperator, "invalid operator '%s'", text)
	}
	l.emit(tt, l.start)
	return nil
}

func (l *Lexer) scanSeparator() error {
	tt, ok := separators[string(l.ch)]
	if !ok {
		return l.errorf(diag.CodeInvalidCharacter, "invalid character %q", l.ch)
	}
	l.emit(tt, l.start)
	return l.advance()
}
