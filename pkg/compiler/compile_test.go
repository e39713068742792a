package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"

	"fuco/pkg/bytecode"
	"fuco/pkg/diag"
	"fuco/pkg/ir"
	"fuco/pkg/vm"
)

// runCode compiles src with the prelude and returns the program's exit code.
func runCode(t *testing.T, src string) int64 {
	t.Helper()
	res, err := CompileString(Options{}, "test.fc", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	code, err := vm.Run(res.Bytecode, vm.Options{MaxSteps: 1_000_000})
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, res.Bytecode)
	}
	return code
}

func compileError(t *testing.T, src string) error {
	t.Helper()
	res, err := CompileString(Options{}, "test.fc", src)
	be.True(t, res == nil)
	be.True(t, err != nil)
	return err
}

func TestCompileReturnOne(t *testing.T) {
	res, err := CompileString(Options{}, "test.fc", "def main() -> Int { return 1; }")
	be.Err(t, err, nil)

	code := res.Bytecode.Instrs
	be.Equal(t, code[0].Opcode(), bytecode.OpCALL)
	be.Equal(t, code[1].Opcode(), bytecode.OpEXIT)

	// the call lands on the first instruction of main's object
	var target int64 = 2
	for _, obj := range res.IR.Objects[1:res.Entry.Object] {
		target += int64(obj.NumInstrs())
	}
	be.Equal(t, code[0].Imm(), target)
	be.Equal(t, code[target], bytecode.Encode(bytecode.OpPUSHQ, 1))
	be.Equal(t, code[target+1].Opcode(), bytecode.OpRETQ)

	exit, err := vm.Run(res.Bytecode, vm.Options{})
	be.Err(t, err, nil)
	be.Equal(t, exit, int64(1))
}

func TestCompileOverloadByExactMatch(t *testing.T) {
	exit := runCode(t, `
def f(x: Int) -> Int { return x + 1; }
def f(x: Float) -> Float { return x; }
def main() -> Int { return f(1); }
`)
	be.Equal(t, exit, int64(2))
}

func TestCompileAmbiguous(t *testing.T) {
	err := compileError(t, `
def f(x: Int) -> Int { return 1; }
def f(y: Int) -> Int { return 2; }
def main() -> Int { return f(0); }
`)
	be.Equal(t, diag.CodeOf(err), diag.CodeAmbiguousCall)
}

func TestCompileUndeclared(t *testing.T) {
	err := compileError(t, "def main() -> Int { return g(1, 2); }")
	be.Equal(t, diag.CodeOf(err), diag.CodeUndeclared)
	be.Equal(t, diag.CodeOf(err).Stage(), diag.StageResolution)
}

func TestCompileMissingMain(t *testing.T) {
	err := compileError(t, "def helper() -> Int { return 1; }")
	be.Equal(t, diag.CodeOf(err), diag.CodeMissingEntry)
}

func TestCompileShadowing(t *testing.T) {
	exit := runCode(t, `
def x() -> Int { return 100; }
def f(x: Int) -> Int { return x * 2; }
def main() -> Int { return f(4) + x(); }
`)
	be.Equal(t, exit, int64(108))
}

func TestCompileStagesStopEarly(t *testing.T) {
	tests := []struct {
		src   string
		stage diag.Stage
	}{
		{"def main() -> Int { return 1 @ 2; }", diag.StageLexical},
		{"def main() -> Int { return 1 }", diag.StageSyntax},
		{"def main() -> Bool { return 1; }", diag.StageResolution},
	}
	for _, tc := range tests {
		err := compileError(t, tc.src)
		be.Equal(t, diag.CodeOf(err).Stage(), tc.stage)
	}
}

func TestArithmetic_E2E(t *testing.T) {
	tests := []struct {
		expr     string
		expected int64
	}{
		{"6 * 7", 42},
		{"100 / 10", 10},
		{"10 % 3", 1},
		{"2 - 5", -3},
		{"1 + 2 * 3 - 4", 3},
		{"(1 + 2) * (3 - 4)", -3},
		{"(0 - 7) / 2", -3},
		{"140737488355327 + 0", bytecode.MaxImm},
	}
	for _, tt := range tests {
		src := fmt.Sprintf("def main() -> Int { return %s; }", tt.expr)
		if got := runCode(t, src); got != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.expr, tt.expected, got)
		}
	}
}

func TestComparison_E2E(t *testing.T) {
	tests := []struct {
		cond     string
		expected int64
	}{
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"2 > 1", 1},
		{"2 >= 3", 0},
		{"1 < 2", 1},
		{"3 <= 2", 0},
	}
	for _, tt := range tests {
		src := fmt.Sprintf("def main() -> Int { if %s { return 1; } return 0; }", tt.cond)
		if got := runCode(t, src); got != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.cond, tt.expected, got)
		}
	}
}

func TestRecursion_E2E(t *testing.T) {
	exit := runCode(t, `
def fib(n: Int) -> Int {
    if n < 2 { return n; }
    return fib(n - 1) + fib(n - 2);
}
def main() -> Int { return fib(15); }
`)
	be.Equal(t, exit, int64(610))
}

func TestWhileReturnsFromLoop_E2E(t *testing.T) {
	exit := runCode(t, `
def down(n: Int) -> Int {
    while n > 0 { return down(n - 1) + 1; }
    return 0;
}
def main() -> Int { return down(20); }
`)
	be.Equal(t, exit, int64(20))
}

func TestFallOffEndReturnsZero_E2E(t *testing.T) {
	exit := runCode(t, "def main() -> Int { if 1 == 2 { return 5; } }")
	be.Equal(t, exit, int64(0))
}

func TestDivideByZeroTraps(t *testing.T) {
	res, err := CompileString(Options{}, "test.fc", "def main() -> Int { return 1 / 0; }")
	be.Err(t, err, nil)
	_, err = vm.Run(res.Bytecode, vm.Options{})
	be.Err(t, err, vm.ErrDivideByZero)
}

func TestCompileWithoutPrelude(t *testing.T) {
	_, err := CompileString(Options{NoPrelude: true}, "test.fc", "def main() -> Int { return 1 + 1; }")
	be.Equal(t, diag.CodeOf(err), diag.CodeUndeclared)

	res, err := CompileString(Options{NoPrelude: true}, "test.fc", "def main() -> Int { return %iadd(1, 1); }")
	be.Err(t, err, nil)
	exit, err := vm.Run(res.Bytecode, vm.Options{})
	be.Err(t, err, nil)
	be.Equal(t, exit, int64(2))
}

// User code may add operator overloads next to the prelude's.
func TestCompileUserOperator(t *testing.T) {
	exit := runCode(t, `
def [+](a: Bool, b: Bool) -> Int { return 40; }
def main() -> Int { return (1 == 1) + (2 == 3) + 2; }
`)
	be.Equal(t, exit, int64(42))
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.fc")
	entry := filepath.Join(dir, "main.fc")
	be.Err(t, os.WriteFile(lib, []byte("def answer() -> Int { return 42; }\n"), 0o644), nil)
	be.Err(t, os.WriteFile(entry, []byte("def main() -> Int { return answer(); }\n"), 0o644), nil)

	res, err := CompileFiles(Options{}, entry, lib)
	be.Err(t, err, nil)
	exit, err := vm.Run(res.Bytecode, vm.Options{})
	be.Err(t, err, nil)
	be.Equal(t, exit, int64(42))

	_, err = CompileFiles(Options{}, filepath.Join(dir, "nope.fc"))
	be.Equal(t, diag.CodeOf(err), diag.CodeIO)
}

// Assembling the IR again gives the same bytecode.
func TestCompileReassemble(t *testing.T) {
	res, err := CompileString(Options{}, "test.fc", `
def f(n: Int) -> Int { while n > 3 { return f(n - 3); } return n; }
def main() -> Int { return f(11); }
`)
	be.Err(t, err, nil)
	again, err := ir.Assemble(res.IR)
	be.Err(t, err, nil)
	be.Equal(t, again.Instrs, res.Bytecode.Instrs)
}
