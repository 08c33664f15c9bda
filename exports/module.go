package exports

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/decl"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

// PrintModule is the name of the declaration entry point every module has.
const PrintModule = "print_module"

// Body implements an exported function. args are bound to s and typed
// after the function's declaration.
type Body func(s *bridge.Scope, args []bridge.Value) bridge.Value

// Func is one exported function.
type Func struct {
	Name string
	Args []mltype.Type
	Ret  mltype.Type
	Body Body
}

// Decl returns the function's declaration.
func (f Func) Decl() decl.Func {
	return decl.Func{Name: f.Name, Args: f.Args, Ret: f.Ret}
}

// Module is a named list of exported functions.
type Module struct {
	name  string
	out   io.Writer
	funcs []Func
	index map[string]int
}

// NewModule creates an empty module. Declarations and example output go
// to out, or stdout when out is nil.
func NewModule(name string, out io.Writer) *Module {
	if out == nil {
		out = os.Stdout
	}
	return &Module{name: name, out: out, index: make(map[string]int)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Out returns the writer used for declarations and printing functions.
func (m *Module) Out() io.Writer {
	return m.out
}

// Add registers f.
func (m *Module) Add(f Func) error {
	switch {
	case f.Name == "" || f.Name == PrintModule:
		return errors.Registration(errors.PhaseHost, m.name, f.Name, errors.InvalidInput(errors.PhaseHost, "reserved or empty name"))
	case len(f.Args) == 0:
		return errors.Registration(errors.PhaseHost, m.name, f.Name, errors.InvalidInput(errors.PhaseHost, "at least one argument required"))
	case f.Body == nil:
		return errors.Registration(errors.PhaseHost, m.name, f.Name, errors.InvalidInput(errors.PhaseHost, "nil body"))
	}
	if _, dup := m.index[f.Name]; dup {
		return errors.Registration(errors.PhaseHost, m.name, f.Name, errors.InvalidInput(errors.PhaseHost, "duplicate name"))
	}
	m.index[f.Name] = len(m.funcs)
	m.funcs = append(m.funcs, f)
	return nil
}

// MustAdd registers f and panics on error.
func (m *Module) MustAdd(f Func) {
	if err := m.Add(f); err != nil {
		panic(err)
	}
}

// Funcs returns the registered functions in registration order.
func (m *Module) Funcs() []Func {
	return append([]Func(nil), m.funcs...)
}

// Lookup finds a registered function.
func (m *Module) Lookup(name string) (Func, bool) {
	i, ok := m.index[name]
	if !ok {
		return Func{}, false
	}
	return m.funcs[i], true
}

// Arity returns the number of word arguments the entry point name takes.
func (m *Module) Arity(name string) (int, bool) {
	if name == PrintModule {
		return 1, true
	}
	f, ok := m.Lookup(name)
	return len(f.Args), ok
}

// Declarations returns the declarations of the registered functions.
func (m *Module) Declarations() []decl.Func {
	out := make([]decl.Func, len(m.funcs))
	for i, f := range m.funcs {
		out[i] = f.Decl()
	}
	return out
}

// Call invokes the entry point name with raw argument words. Contract
// violations inside the body panic with *errors.Error.
func (m *Module) Call(ctx context.Context, chain *bridge.Chain, name string, args ...mlbridge.Word) (mlbridge.Word, error) {
	if name == PrintModule {
		if len(args) != 1 {
			return 0, errors.New(errors.PhaseHost, errors.KindInvalidInput).
				Detail("%s takes 1 argument, got %d", PrintModule, len(args)).
				Build()
		}
		if err := decl.Emit(m.out, m.Declarations()); err != nil {
			return 0, err
		}
		return layout.Unit, nil
	}

	f, ok := m.Lookup(name)
	if !ok {
		return 0, errors.NotFound(errors.PhaseHost, "export", name)
	}
	if len(args) != len(f.Args) {
		return 0, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Detail("%s takes %d argument(s), got %d", name, len(f.Args), len(args)).
			Build()
	}

	Logger().Debug("call", zap.String("module", m.name), zap.String("func", name), zap.Int("args", len(args)))
	return chain.With(ctx, func(s *bridge.Scope) mlbridge.Word {
		vals := make([]bridge.Value, len(args))
		for i, w := range args {
			vals[i] = s.Wrap(w, f.Args[i])
		}
		ret := f.Body(s, vals)
		if !f.Ret.Polymorphic() && !ret.Type().Equal(f.Ret) {
			fail(errors.New(errors.PhaseEncode, errors.KindKindMismatch).
				Path(name).
				HostType(f.Ret.Name()).
				Detail("body returned %s", ret.Type().Name()).
				Build())
		}
		return ret.Word()
	}), nil
}
