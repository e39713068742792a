// Package compiler implements the fuco front end and code generator.
//
// Pipeline: source files → Lex → Parse → Resolve → Generate (IR) → ir.Assemble → bytecode
package compiler
