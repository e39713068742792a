package compiler

import (
	_ "embed"
	"errors"
	"fmt"

	"fuco/pkg/bytecode"
	"fuco/pkg/diag"
	"fuco/pkg/ir"
)

//go:embed prelude.fc
var prelude string

// PreludeName is the source name under which the prelude is lexed.
const PreludeName = "<prelude>"

// PreludeSource returns the built-in operator definitions as a source.
func PreludeSource() Source {
	return StringSource(PreludeName, prelude)
}

// Options control a compilation.
type Options struct {
	// NoPrelude leaves out the built-in operator definitions.
	NoPrelude bool
}

// Result holds the artifact of every pipeline stage.
type Result struct {
	Tokens   []Token
	Root     *Filebody
	Table    *SymbolTable
	Entry    *Symbol
	IR       *ir.Program
	Bytecode *bytecode.Bytecode
}

// Compile runs the whole pipeline over sources. The first failing stage
// stops it and no bytecode is produced.
func Compile(opts Options, sources ...Source) (*Result, error) {
	if !opts.NoPrelude {
		sources = append([]Source{PreludeSource()}, sources...)
	}

	res := &Result{}
	var err error

	if res.Tokens, err = Lex(sources...); err != nil {
		return nil, err
	}
	if res.Root, err = Parse(res.Tokens); err != nil {
		return nil, err
	}

	res.Table = NewSymbolTable()
	if err = Resolve(res.Root, res.Table); err != nil {
		return nil, err
	}
	if res.Entry, err = FindEntry(res.Root, res.Table); err != nil {
		return nil, err
	}

	if res.IR, err = Generate(res.Root, res.Table, res.Entry); err != nil {
		return nil, internal("ir generation", err)
	}
	if res.Bytecode, err = ir.Assemble(res.IR); err != nil {
		return nil, internal("assembly", err)
	}
	return res, nil
}

// CompileFiles reads paths and compiles them as one unit.
func CompileFiles(opts Options, paths ...string) (*Result, error) {
	sources, err := ReadSources(paths...)
	if err != nil {
		return nil, err
	}
	return Compile(opts, sources...)
}

// CompileString compiles a single in-memory source.
func CompileString(opts Options, name, text string) (*Result, error) {
	return Compile(opts, StringSource(name, text))
}

func internal(stage string, err error) error {
	var d *diag.Error
	if errors.As(err, &d) {
		return err
	}
	return diag.Internal(fmt.Errorf("%s: %w", stage, err))
}
