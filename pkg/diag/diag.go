// Package diag carries positioned compiler diagnostics and renders them to
// an error stream.
package diag

import (
	"errors"
	"fmt"
)

// Pos is a location in a source file. Rows and columns are 1-based.
type Pos struct {
	File string
	Row  int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Row, p.Col)
}

// Code classifies a diagnostic.
type Code int

const (
	CodeInvalidCharacter Code = iota + 1
	CodeInvalidOperator
	CodeIntegerRange
	CodeIO

	CodeSyntax
	CodeUnknownInstruction

	CodeUndeclared
	CodeRedeclared
	CodeTypeMismatch
	CodeAmbiguousCall
	CodeNoMatchingCall
	CodeExpectedType
	CodeExpectedVariable
	CodeExpectedFunction
	CodeMissingEntry

	CodeInternal
)

// Stage groups codes by the pipeline stage that produces them.
type Stage int

const (
	StageLexical Stage = iota
	StageSyntax
	StageResolution
	StageInternal
)

func (c Code) Stage() Stage {
	switch {
	case c <= CodeIO:
		return StageLexical
	case c <= CodeUnknownInstruction:
		return StageSyntax
	case c <= CodeMissingEntry:
		return StageResolution
	default:
		return StageInternal
	}
}

func (s Stage) String() string {
	switch s {
	case StageLexical:
		return "lexical error"
	case StageSyntax:
		return "syntax error"
	case StageResolution:
		return "error"
	default:
		return "internal error"
	}
}

// Error is a single diagnostic. Pos is nil when no source location applies,
// e.g. for a missing entry point.
type Error struct {
	Code Code
	Pos  *Pos
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos == nil {
		return e.Msg
	}
	return e.Pos.String() + ": " + e.Msg
}

// New builds a positioned diagnostic.
func New(code Code, pos Pos, format string, args ...any) *Error {
	return &Error{Code: code, Pos: &pos, Msg: fmt.Sprintf(format, args...)}
}

// NoPos builds a diagnostic with no source location.
func NoPos(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps err as an internal diagnostic. Internal errors indicate an
// inconsistency between compiler stages, never a problem in user code.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Msg: err.Error()}
}

// CodeOf extracts the diagnostic code from err, or 0 if err is not a
// diagnostic.
func CodeOf(err error) Code {
	var d *Error
	if errors.As(err, &d) {
		return d.Code
	}
	return 0
}
