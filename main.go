package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"fuco/pkg/compiler"
	"fuco/pkg/config"
	"fuco/pkg/diag"
	"fuco/pkg/vm"
)

// Exit codes used when the program itself did not run to completion.
const (
	exitUsage   = 2
	exitCompile = 1
	exitRuntime = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// settings is the merged result of fuco.yaml and the command line.
type settings struct {
	sources   []string
	noPrelude bool
	vmOpts    vm.Options
	color     diag.ColorMode
	check     bool
	verbose   bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fuco", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "project file (default: fuco.yaml in the current directory or a parent, if no sources are given)")
	noPrelude := fs.Bool("no-prelude", false, "do not compile in the built-in operator definitions")
	stackSize := fs.Int("stack", 0, "interpreter stack size in bytes")
	maxSteps := fs.Int64("max-steps", -1, "abort after this many instructions (0: no limit)")
	color := fs.String("color", "", "color diagnostics: auto, always or never")
	check := fs.Bool("check", false, "compile only, do not run")
	verbose := fs.Bool("v", false, "print the exit code and step count after running")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fuco [flags] [file.fc ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	s, err := loadSettings(*configPath, fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, "fuco:", err)
		return exitUsage
	}

	// flags override the project file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "no-prelude":
			s.noPrelude = *noPrelude
		case "stack":
			s.vmOpts.StackSize = *stackSize
		case "max-steps":
			s.vmOpts.MaxSteps = *maxSteps
		}
	})
	if *color != "" {
		mode, err := diag.ParseColorMode(*color)
		if err != nil {
			fmt.Fprintln(stderr, "fuco:", err)
			return exitUsage
		}
		s.color = mode
	}
	if s.vmOpts.StackSize < 0 || s.vmOpts.MaxSteps < 0 {
		fmt.Fprintln(stderr, "fuco: -stack and -max-steps must not be negative")
		return exitUsage
	}
	s.check = *check
	s.verbose = *verbose

	return execute(s, stdout, stderr)
}

// loadSettings takes the sources from the command line when there are any,
// and from a project file otherwise.
func loadSettings(configPath string, files []string) (*settings, error) {
	s := &settings{color: diag.ColorAuto}
	if configPath == "" && len(files) > 0 {
		s.sources = files
		return s, nil
	}

	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := config.FindConfig(wd)
		if err != nil {
			return nil, err
		}
		if found == "" {
			return nil, fmt.Errorf("no source files given and no %s found", config.FileName)
		}
		configPath = found
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	sources, err := cfg.SourcePaths()
	if err != nil {
		return nil, err
	}
	s.sources = append(sources, files...)
	s.noPrelude = !cfg.UsePrelude()
	s.vmOpts = cfg.VMOptions()
	if s.color, err = diag.ParseColorMode(cfg.Color); err != nil {
		return nil, err
	}
	return s, nil
}

func execute(s *settings, stdout, stderr io.Writer) int {
	printer := diag.NewPrinter(stderr, s.color)

	res, err := compiler.CompileFiles(compiler.Options{NoPrelude: s.noPrelude}, s.sources...)
	if err != nil {
		printer.Print(err)
		return exitCompile
	}
	if s.check {
		return 0
	}

	m := vm.New(res.Bytecode, s.vmOpts)
	code, err := m.Run()
	if err != nil {
		fmt.Fprintf(stderr, "fuco: runtime error: %v\n", err)
		return exitRuntime
	}
	if s.verbose {
		fmt.Fprintf(stdout, "exit code %d after %d steps\n", code, m.Steps)
	}
	return int(code)
}
