package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/exports"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/internal/wasmgen"
)

// Defaults for Config fields left zero.
const (
	DefaultGuestPages = 4
	DefaultHeapBase   = 1024
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// GuestPages is the initial memory of generated guests in pages.
	// 0 means DefaultGuestPages.
	GuestPages uint32

	// Heap lays out the arena in each guest memory. A zero Base means
	// DefaultHeapBase.
	Heap heap.Config

	// Capacity is the number of slots per root table. 0 means
	// bridge.DefaultCapacity.
	Capacity int
}

// Engine runs guest modules whose imports are bound to exported function
// modules. Every guest instance gets its own heap and roots chain.
type Engine struct {
	runtime  wazero.Runtime
	bound    map[string]*exports.Module
	sessions map[string]*Instance
	cfg      Config
	mu       sync.Mutex
}

// New creates an engine. cfg may be nil.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.GuestPages == 0 {
		c.GuestPages = DefaultGuestPages
	}
	if c.Heap.Base == 0 {
		c.Heap.Base = DefaultHeapBase
	}
	if c.Capacity < 0 || c.Capacity > bridge.MaxCapacity {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Capacity).
			Detail("root table capacity %d outside 0..%d", c.Capacity, bridge.MaxCapacity).
			Build()
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if c.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
	}
	return &Engine{
		runtime:  wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		bound:    make(map[string]*exports.Module),
		sessions: make(map[string]*Instance),
		cfg:      c,
	}, nil
}

// Close releases the wazero runtime and every instance.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.sessions = make(map[string]*Instance)
	e.mu.Unlock()
	return e.runtime.Close(ctx)
}

// Bind installs mod as a host module named after it. Each export, plus
// print_module, becomes a host function taking and returning i64 words.
func (e *Engine) Bind(ctx context.Context, mod *exports.Module) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.bound[mod.Name()]; dup {
		return errors.Registration(errors.PhaseHost, mod.Name(), "", errors.InvalidInput(errors.PhaseHost, "module already bound"))
	}

	builder := e.runtime.NewHostModuleBuilder(mod.Name())
	names := append([]string{exports.PrintModule}, funcNames(mod)...)
	for _, name := range names {
		arity, _ := mod.Arity(name)
		params := make([]api.ValueType, arity)
		for i := range params {
			params[i] = api.ValueTypeI64
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(e.hostFunc(mod, name, arity), params, []api.ValueType{api.ValueTypeI64}).
			WithName(name).
			Export(name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Registration(errors.PhaseHost, mod.Name(), "", err)
	}
	e.bound[mod.Name()] = mod

	Logger().Debug("host module bound", zap.String("module", mod.Name()), zap.Int("funcs", len(names)))
	return nil
}

func (e *Engine) hostFunc(mod *exports.Module, name string, arity int) api.GoModuleFunc {
	return func(ctx context.Context, caller api.Module, stack []uint64) {
		inst := e.instance(caller.Name())
		if inst == nil {
			panic(errors.NotFound(errors.PhaseRuntime, "heap for caller", caller.Name()))
		}
		args := make([]mlbridge.Word, arity)
		for i := range args {
			args[i] = mlbridge.Word(stack[i])
		}
		out, err := mod.Call(ctx, inst.chain, name, args...)
		if err != nil {
			panic(err)
		}
		stack[0] = uint64(out)
	}
}

// Instantiate runs a guest binary under name and lays out a heap in its
// exported memory.
func (e *Engine) Instantiate(ctx context.Context, name string, wasm []byte) (*Instance, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "guest instances need a name")
	}
	m, err := e.runtime.InstantiateWithConfig(ctx, wasm, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	mem := m.ExportedMemory(wasmgen.MemoryExport)
	if mem == nil {
		m.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "memory export", wasmgen.MemoryExport)
	}
	arena, err := heap.NewArena(NewMemory(mem), e.cfg.Heap)
	if err != nil {
		m.Close(ctx)
		return nil, err
	}

	inst := &Instance{
		engine: e,
		module: m,
		arena:  arena,
		chain:  bridge.NewChain(arena, bridge.Options{Capacity: e.cfg.Capacity}),
	}
	e.mu.Lock()
	e.sessions[name] = inst
	e.mu.Unlock()

	Logger().Debug("guest instantiated",
		zap.String("name", name),
		zap.Uint32("memory", mem.Size()),
		zap.Uint32("roots", arena.Roots().Base))
	return inst, nil
}

// InstantiateGuest generates a guest that forwards every export of the
// bound module modName, including print_module, and instantiates it.
func (e *Engine) InstantiateGuest(ctx context.Context, name, modName string) (*Instance, error) {
	e.mu.Lock()
	mod, ok := e.bound[modName]
	e.mu.Unlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "bound module", modName)
	}
	return e.Instantiate(ctx, name, GuestFor(mod, e.cfg.GuestPages))
}

// GuestFor renders a forwarding guest for mod.
func GuestFor(mod *exports.Module, pages uint32) []byte {
	g := wasmgen.Guest{Module: mod.Name(), Pages: pages}
	for _, name := range append([]string{exports.PrintModule}, funcNames(mod)...) {
		arity, _ := mod.Arity(name)
		g.Imports = append(g.Imports, wasmgen.Import{Name: name, Arity: arity})
	}
	return g.Encode()
}

func (e *Engine) instance(name string) *Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[name]
}

func (e *Engine) forget(name string) {
	e.mu.Lock()
	delete(e.sessions, name)
	e.mu.Unlock()
}

func funcNames(mod *exports.Module) []string {
	funcs := mod.Funcs()
	names := make([]string, len(funcs))
	for i, f := range funcs {
		names[i] = f.Name
	}
	return names
}
