package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
)

// Instance is a running guest with its heap. It is not safe for concurrent
// use: calls share one roots chain.
type Instance struct {
	engine  *Engine
	module  api.Module
	arena   *heap.Arena
	chain   *bridge.Chain
	aborted error
}

// Heap returns the arena laid out in the guest's memory.
func (i *Instance) Heap() *heap.Arena {
	return i.arena
}

// Chain returns the roots chain of the guest's heap.
func (i *Instance) Chain() *bridge.Chain {
	return i.chain
}

// Module returns the underlying wazero module.
func (i *Instance) Module() api.Module {
	return i.module
}

// Call invokes the guest export name with raw argument words. A contract
// violation in a host function aborts the call; the instance then refuses
// further calls because its roots chain is no longer balanced.
func (i *Instance) Call(ctx context.Context, name string, args ...mlbridge.Word) (mlbridge.Word, error) {
	if i.aborted != nil {
		return 0, errors.Wrap(errors.PhaseRuntime, errors.KindUnbalanced, i.aborted, "instance aborted by an earlier call")
	}
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseRuntime, "guest export", name)
	}
	params := make([]uint64, len(args))
	for j, a := range args {
		params[j] = uint64(a)
	}

	res, err := fn.Call(ctx, params...)
	if err != nil {
		if i.chain.Depth() != 0 {
			i.aborted = err
		}
		Logger().Debug("guest call failed", zap.String("func", name), zap.Error(err))
		return 0, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Path(name).
			Cause(err).
			Detail("guest call failed").
			Build()
	}
	if len(res) != 1 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Detail("%s returned %d results", name, len(res)).
			Build()
	}
	return mlbridge.Word(res[0]), nil
}

// Close closes the guest module.
func (i *Instance) Close(ctx context.Context) error {
	i.engine.forget(i.module.Name())
	return i.module.Close(ctx)
}
