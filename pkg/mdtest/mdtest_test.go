package mdtest

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func doc(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestExtractTestCases(t *testing.T) {
	md := doc(
		"# Arithmetic",
		"",
		"Some prose that is ignored.",
		"",
		fence,
		"plain block without a language",
		fence,
		"",
		"## Test: returns one",
		"",
		fence+"fuco",
		"def main() -> Int { return 1; }",
		fence,
		"",
		fence+"exit",
		"1",
		fence,
		"",
		"## Test: missing main",
		"",
		fence+"fuco",
		"def f() -> Int { return 1; }",
		fence,
		"",
		fence+"compile-error",
		"entry point 'main' was not defined",
		fence,
		"",
		fence+"ast",
		"(filebody (function f (params) (type Int) (body (return (integer 1)))))",
		fence,
	)

	cases, err := ExtractTestCases(md)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	first := cases[0]
	be.Equal(t, first.Name, "returns one")
	be.Equal(t, first.Input, "def main() -> Int { return 1; }\n")
	be.Equal(t, len(first.Assertions), 1)
	be.Equal(t, first.Assertions[0].Type, AssertionExit)
	code, err := first.Assertions[0].ExitCode()
	be.Err(t, err, nil)
	be.Equal(t, code, int64(1))

	second := cases[1]
	be.Equal(t, second.Name, "missing main")
	be.Equal(t, len(second.Assertions), 2)
	be.Equal(t, second.Assertions[0].Type, AssertionCompileError)
	be.Equal(t, second.Assertions[0].Content, "entry point 'main' was not defined")
	be.Equal(t, second.Assertions[1].Type, AssertionAST)
}

func TestExtractTestCasesErrors(t *testing.T) {
	tests := []struct {
		name string
		md   []byte
		want string
	}{
		{
			name: "fence outside test",
			md:   doc(fence+"fuco", "def main() -> Int { return 0; }", fence),
			want: "outside of test case",
		},
		{
			name: "unknown language",
			md:   doc("## Test: x", "", fence+"fuco", "def main() -> Int { return 0; }", fence, "", fence+"python", "print()", fence),
			want: "unknown fence language 'python'",
		},
		{
			name: "no input",
			md:   doc("## Test: x", "", fence+"exit", "0", fence),
			want: "has no fuco fence",
		},
		{
			name: "no assertions",
			md:   doc("## Test: x", "", fence+"fuco", "def main() -> Int { return 0; }", fence),
			want: "has no assertion fences",
		},
		{
			name: "two inputs",
			md:   doc("## Test: x", "", fence+"fuco", "a", fence, "", fence+"fuco", "b", fence),
			want: "multiple input fences",
		},
		{
			name: "bad exit code",
			md:   doc("## Test: x", "", fence+"fuco", "a", fence, "", fence+"exit", "one", fence),
			want: "invalid exit code",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractTestCases(tc.md)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tc.want))
		})
	}
}
