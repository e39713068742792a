// Package mdtest extracts fuco test programs from Markdown documents.
//
// A test case starts at a heading "Test: <name>" and is made of one fuco
// fence holding the program, followed by assertion fences:
//
//	## Test: returns one
//
//	```fuco
//	def main() -> Int { return 1; }
//	```
//
//	```exit
//	1
//	```
package mdtest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputFence is the fence language holding the program.
const InputFence = "fuco"

// AssertionType names an assertion fence.
type AssertionType string

const (
	// AssertionAST compares the Dump of the parsed tree of the program
	// (without the prelude).
	AssertionAST AssertionType = "ast"
	// AssertionExit expects the program to run and exit with the given code.
	AssertionExit AssertionType = "exit"
	// AssertionCompileError expects compilation to fail with a message
	// containing the fence content.
	AssertionCompileError AssertionType = "compile-error"
)

// Assertion is one assertion fence.
type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

// ExitCode parses the content of an exit assertion.
func (a Assertion) ExitCode() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(a.Content), 10, 64)
}

// TestCase is one program with its assertions.
type TestCase struct {
	Name       string
	Line       int
	Input      string
	Assertions []Assertion
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionAST, AssertionExit, AssertionCompileError:
		return true
	}
	return false
}

// ExtractTestCases parses a Markdown document and returns its test cases in
// document order.
func ExtractTestCases(markdown []byte) ([]TestCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []TestCase
	var current *TestCase

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, markdown)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{
				Name: strings.TrimPrefix(heading, "Test: "),
				Line: lineNumber(n, markdown),
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(markdown))
			line := lineNumber(n, markdown)
			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
				}
				return ast.WalkContinue, nil
			}
			content := fenceContent(n, markdown)

			switch {
			case language == InputFence:
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", line, current.Name)
				}
				current.Input = content
			case isAssertionFence(language):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func validate(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no %s fence", tc.Name, InputFence)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	for _, a := range tc.Assertions {
		if a.Type != AssertionExit {
			continue
		}
		if _, err := a.ExitCode(); err != nil {
			return fmt.Errorf("line %d: test '%s': invalid exit code %q", a.Line, tc.Name, a.Content)
		}
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// lineNumber returns the 1-based line of the first line of node. Headings
// report the line of their text.
func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:start], []byte("\n")) + 1
}
