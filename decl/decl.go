package decl

import (
	"bufio"
	"io"
	"strings"

	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/mltype"
)

// Func describes one exported function.
type Func struct {
	Name   string
	Symbol string
	Args   []mltype.Type
	Ret    mltype.Type
}

// symbol returns the native symbol, defaulting to the function name.
func (f Func) symbol() string {
	if f.Symbol != "" {
		return f.Symbol
	}
	return f.Name
}

// Signature renders "a1 -> ... -> aN -> ret".
func (f Func) Signature() string {
	var b strings.Builder
	for _, a := range f.Args {
		b.WriteString(a.Name())
		b.WriteString(" -> ")
	}
	b.WriteString(f.Ret.Name())
	return b.String()
}

// Line renders the external declaration of f without a trailing newline.
func Line(f Func) string {
	return "external " + f.Name + " : " + f.Signature() + ` = "` + f.symbol() + `"`
}

// Emit writes one declaration line per function, then flushes.
func Emit(w io.Writer, funcs []Func) error {
	bw := bufio.NewWriter(w)
	for _, f := range funcs {
		if err := validate(f); err != nil {
			return err
		}
		if _, err := bw.WriteString(Line(f) + "\n"); err != nil {
			return errors.Wrap(errors.PhaseDeclare, errors.KindInvalidData, err, "write declaration "+f.Name)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.PhaseDeclare, errors.KindInvalidData, err, "flush declarations")
	}
	return nil
}

func validate(f Func) error {
	if f.Name == "" {
		return errors.InvalidInput(errors.PhaseDeclare, "function without a name")
	}
	if len(f.Args) == 0 {
		return errors.New(errors.PhaseDeclare, errors.KindInvalidInput).
			Detail("%s: exported functions take at least one argument", f.Name).
			Build()
	}
	return nil
}
