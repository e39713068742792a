package diag

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// ColorMode selects when the printer emits ANSI escapes.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts "", "auto", "always" and "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, ColorNever:
		return ColorMode(s), nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Printer renders diagnostics as "<file>:<row>:<col>: <stage>: <message>".
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a printer for w. In auto mode color is enabled only
// when w is a terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer, mode ColorMode) *Printer {
	return &Printer{w: w, color: useColor(w, mode)}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes err. Diagnostics get their stage label, other errors are
// written as-is.
func (p *Printer) Print(err error) {
	var d *Error
	if !errors.As(err, &d) {
		p.line("", "error", err.Error())
		return
	}
	where := ""
	if d.Pos != nil {
		where = d.Pos.String() + ": "
	}
	p.line(where, d.Code.Stage().String(), d.Msg)
}

func (p *Printer) line(where, label, msg string) {
	if p.color {
		fmt.Fprintf(p.w, "%s%s%s%s:%s %s\n", ansiBold, where, ansiRed, label, ansiReset, msg)
		return
	}
	fmt.Fprintf(p.w, "%s%s: %s\n", where, label, msg)
}
