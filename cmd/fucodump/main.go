// Command fucodump runs the compiler pipeline stage by stage and prints what
// each stage produced, up to the first failing one.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/sanity-io/litter"

	"fuco/pkg/compiler"
	"fuco/pkg/diag"
	"fuco/pkg/ir"
)

var allStages = []string{"tokens", "ast", "symbols", "ir", "bytecode"}

type dumper struct {
	w           io.Writer
	stages      map[string]bool
	astGo       bool
	showPrelude bool
}

func main() {
	stages := flag.String("stages", strings.Join(allStages, ","), "comma separated stages to print: "+strings.Join(allStages, ", "))
	astGo := flag.Bool("ast-go", false, "print the AST as Go values instead of S-expressions")
	noPrelude := flag.Bool("no-prelude", false, "do not compile in the built-in operator definitions")
	showPrelude := flag.Bool("show-prelude", false, "include prelude tokens and functions in the output")
	color := flag.String("color", "auto", "color diagnostics: auto, always or never")
	flag.Parse()

	mode, err := diag.ParseColorMode(*color)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: fucodump [flags] file.fc ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	d := &dumper{w: os.Stdout, stages: map[string]bool{}, astGo: *astGo, showPrelude: *showPrelude}
	for _, s := range strings.Split(*stages, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !slices.Contains(allStages, s) {
			fmt.Fprintf(os.Stderr, "unknown stage %q\n", s)
			os.Exit(2)
		}
		d.stages[s] = true
	}

	sources, err := compiler.ReadSources(flag.Args()...)
	if err == nil {
		if !*noPrelude {
			sources = append([]compiler.Source{compiler.PreludeSource()}, sources...)
		}
		err = d.run(sources)
	}
	if err != nil {
		diag.NewPrinter(os.Stderr, mode).Print(err)
		os.Exit(1)
	}
}

func (d *dumper) run(sources []compiler.Source) error {
	tokens, err := compiler.Lex(sources...)
	if err != nil {
		return err
	}
	if d.stages["tokens"] {
		d.dumpTokens(tokens)
	}

	root, err := compiler.Parse(tokens)
	if err != nil {
		return err
	}
	// the AST is printed before resolution so the Go dump stays free of
	// symbol and scope back-references
	if d.stages["ast"] {
		d.dumpAST(root)
	}

	table := compiler.NewSymbolTable()
	if err := compiler.Resolve(root, table); err != nil {
		return err
	}
	if d.stages["symbols"] {
		d.section("Symbols")
		fmt.Fprint(d.w, table)
	}

	entry, err := compiler.FindEntry(root, table)
	if err != nil {
		return err
	}
	prog, err := compiler.Generate(root, table, entry)
	if err != nil {
		return diag.Internal(err)
	}
	if d.stages["ir"] {
		d.section("IR")
		if _, err := prog.WriteTo(d.w); err != nil {
			return err
		}
		d.dumpEquates(prog)
	}

	code, err := ir.Assemble(prog)
	if err != nil {
		return diag.Internal(err)
	}
	if d.stages["bytecode"] {
		d.section(fmt.Sprintf("Bytecode (%d instructions)", code.Len()))
		if _, err := code.WriteTo(d.w); err != nil {
			return err
		}
	}
	return nil
}

func (d *dumper) section(title string) {
	fmt.Fprintf(d.w, "\n%s\n", title)
}

func (d *dumper) fromPrelude(pos diag.Pos) bool {
	return !d.showPrelude && pos.File == compiler.PreludeName
}

func (d *dumper) dumpTokens(tokens []compiler.Token) {
	d.section(fmt.Sprintf("Tokens (%d)", len(tokens)))
	for _, tok := range tokens {
		if d.fromPrelude(tok.Pos) {
			continue
		}
		fmt.Fprintln(d.w, " ", tok)
	}
}

func (d *dumper) dumpAST(root *compiler.Filebody) {
	shown := &compiler.Filebody{Token: root.Token}
	for _, fn := range root.Functions {
		if !d.fromPrelude(fn.Token.Pos) {
			shown.Functions = append(shown.Functions, fn)
		}
	}

	d.section("AST")
	if d.astGo {
		sq := litter.Options{StripPackageNames: true, HidePrivateFields: true, HideZeroValues: true}
		fmt.Fprintln(d.w, sq.Sdump(shown))
		return
	}
	fmt.Fprintln(d.w, compiler.Dump(shown))
	d.section("Source")
	fmt.Fprint(d.w, compiler.Unparse(shown))
}

func (d *dumper) dumpEquates(prog *ir.Program) {
	labels := make([]ir.Label, 0, len(prog.Equates))
	for l := range prog.Equates {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	fmt.Fprintln(d.w, "equates {")
	for _, l := range labels {
		fmt.Fprintf(d.w, "  .L%d = %d\n", int64(l), prog.Equates[l])
	}
	fmt.Fprintln(d.w, "}")
}
