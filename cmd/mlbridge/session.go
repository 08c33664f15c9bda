package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/engine"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/exports"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/internal/literal"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

const guestName = "mlbridge-guest"

// session owns one heap and the means to call mod's functions on it.
// A contract violation during a call discards the heap and starts over.
type session struct {
	cfg   config
	mod   *exports.Module
	log   *zap.Logger
	eng   *engine.Engine
	inst  *engine.Instance
	chain *bridge.Chain
	arena *heap.Arena
}

func newSession(ctx context.Context, cfg config, mod *exports.Module, log *zap.Logger) (*session, error) {
	s := &session{cfg: cfg, mod: mod, log: log}
	if cfg.mode == modeWasm {
		eng, err := engine.New(ctx, cfg.engineConfig())
		if err != nil {
			return nil, err
		}
		if err := eng.Bind(ctx, mod); err != nil {
			eng.Close(ctx)
			return nil, err
		}
		s.eng = eng
	}
	if err := s.start(ctx); err != nil {
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *session) start(ctx context.Context) error {
	if s.eng != nil {
		inst, err := s.eng.InstantiateGuest(ctx, guestName, s.mod.Name())
		if err != nil {
			return err
		}
		s.inst, s.chain, s.arena = inst, inst.Chain(), inst.Heap()
		return nil
	}
	arena, err := heap.NewArena(heap.NewMemory(s.cfg.memorySize), s.cfg.heap)
	if err != nil {
		return err
	}
	s.arena = arena
	s.chain = bridge.NewChain(arena, bridge.Options{Capacity: s.cfg.capacity})
	return nil
}

// reset discards the heap and every value on it.
func (s *session) reset(ctx context.Context) error {
	if s.inst != nil {
		s.inst.Close(ctx)
		s.inst = nil
	}
	s.log.Info("session reset", zap.String("mode", s.cfg.mode))
	return s.start(ctx)
}

func (s *session) close(ctx context.Context) {
	if s.inst != nil {
		s.inst.Close(ctx)
	}
	if s.eng != nil {
		s.eng.Close(ctx)
	}
}

// printModule runs the declaration entry point.
func (s *session) printModule(ctx context.Context) error {
	_, err := s.invoke(ctx, exports.PrintModule, []mlbridge.Word{layout.Unit})
	return err
}

// call builds args, a ';'-separated list of literals, calls name and
// renders the result along with its type.
func (s *session) call(ctx context.Context, name, args string) (result string, typ mltype.Type, err error) {
	f, ok := s.mod.Lookup(name)
	if !ok {
		return "", typ, errors.NotFound(errors.PhaseHost, "export", name)
	}
	srcs, err := literal.ParseList(args)
	if err != nil {
		return "", typ, err
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fatal, ok := errors.AsFatal(r)
		if !ok {
			panic(r)
		}
		result, err = "", fatal
		if rerr := s.reset(ctx); rerr != nil {
			s.log.Error("session reset failed", zap.Error(rerr))
		}
	}()

	// Bigstring arguments live only until the result is formatted.
	arena, mark := s.arena, s.arena.ExternalMark()
	defer func() {
		if rerr := arena.RewindExternal(mark); rerr != nil {
			s.log.Error("external store rewind failed", zap.Error(rerr))
		}
	}()

	b := literal.NewBuilder(arena.StoreExternal)
	words, err := b.Args(ctx, s.chain, f.Args, srcs)
	if err != nil {
		return "", typ, err
	}
	out, err := s.invoke(ctx, name, words)
	if err != nil {
		return "", typ, err
	}

	typ = b.Resolve(f.Ret)
	sc := s.chain.Open(ctx)
	result = literal.Format(sc.Wrap(out, typ))
	sc.Close()
	return result, typ, nil
}

func (s *session) invoke(ctx context.Context, name string, args []mlbridge.Word) (mlbridge.Word, error) {
	if s.inst == nil {
		return s.mod.Call(ctx, s.chain, name, args...)
	}
	out, err := s.inst.Call(ctx, name, args...)
	if err != nil && s.chain.Depth() != 0 {
		s.log.Warn("guest call aborted inside a scope", zap.String("func", name), zap.Error(err))
		if rerr := s.reset(ctx); rerr != nil {
			return 0, rerr
		}
	}
	return out, err
}
