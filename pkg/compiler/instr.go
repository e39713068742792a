package compiler

import "fuco/pkg/bytecode"

// instrSig is the static signature of an instruction usable as an
// instruction literal. Operands are popped in reverse, so params[0] is the
// first argument written in source.
type instrSig struct {
	op     bytecode.Opcode
	params []SymbolID
	ret    SymbolID
}

// instrTable maps mnemonics accepted after '%' to their signatures. Only
// pure stack arithmetic and comparisons can be written directly; control
// flow and frame instructions are emitted by the compiler alone.
var instrTable = buildInstrTable()

func buildInstrTable() map[string]instrSig {
	binary := func(op bytecode.Opcode, ret SymbolID) instrSig {
		return instrSig{op: op, params: []SymbolID{TypeInt, TypeInt}, ret: ret}
	}
	sigs := []instrSig{
		binary(bytecode.OpIADD, TypeInt),
		binary(bytecode.OpISUB, TypeInt),
		binary(bytecode.OpIMUL, TypeInt),
		binary(bytecode.OpIDIV, TypeInt),
		binary(bytecode.OpIMOD, TypeInt),
		binary(bytecode.OpIEQ, TypeBool),
		binary(bytecode.OpINE, TypeBool),
		binary(bytecode.OpIGT, TypeBool),
		binary(bytecode.OpIGE, TypeBool),
		binary(bytecode.OpILT, TypeBool),
		binary(bytecode.OpILE, TypeBool),
	}
	table := make(map[string]instrSig, len(sigs))
	for _, sig := range sigs {
		table[sig.op.Mnemonic()] = sig
	}
	return table
}
