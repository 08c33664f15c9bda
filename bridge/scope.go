package bridge

import (
	"context"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

// Scope is the dynamic extent of one call during which its root table is
// registered with the host collector.
type Scope struct {
	ctx    context.Context
	chain  *Chain
	parent *Scope
	table  layout.RootTable
	closed bool
}

// Context returns the context passed to heap allocations in this scope.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Chain returns the chain the scope belongs to.
func (s *Scope) Chain() *Chain {
	return s.chain
}

// Slots returns the number of occupied root slots.
func (s *Scope) Slots() int {
	return int(s.table.Items())
}

// Close pops the scope's root table. The scope must be the chain head and
// every root acquired in it must have been released.
func (s *Scope) Close() {
	if s.closed {
		fail(errors.New(errors.PhaseScope, errors.KindScopeClosed).
			Detail("scope closed twice").
			Build())
	}
	c := s.chain
	mem := c.heap.Memory()
	if c.current != s || layout.ReadHead(mem, c.region.Head) != s.table.Addr {
		fail(errors.New(errors.PhaseScope, errors.KindUnbalanced).
			Detail("closing scope at %#x, chain head is %#x", s.table.Addr, layout.ReadHead(mem, c.region.Head)).
			Build())
	}
	if n := s.table.Items(); n != 0 {
		fail(errors.New(errors.PhaseScope, errors.KindSlotsLeaked).
			Value(n).
			Detail("%d root slot(s) still occupied at scope exit", n).
			Build())
	}

	layout.WriteHead(mem, c.region.Head, s.table.Next())
	c.top = s.table.Addr
	c.current = s.parent
	c.depth--
	s.closed = true
}

// Wrap binds a word received from the host to this scope as a value of type t.
// The word is trusted to be live now; its layout is checked on access.
func (s *Scope) Wrap(w mlbridge.Word, t mltype.Type) Value {
	s.mustBeActive("wrap")
	return Value{scope: s, typ: t, word: w, gen: s.chain.gen}
}

// Token issues a single-use allocation capability for this scope.
func (s *Scope) Token() *Token {
	s.mustBeActive("token")
	return &Token{scope: s}
}

// Call marks a raw result against this scope and evaluates it.
func (s *Scope) Call(r Raw) Value {
	return r.Mark(s).Eval(s)
}

func (s *Scope) mustBeOpen(op string) {
	if s == nil {
		fail(errors.New(errors.PhaseScope, errors.KindScopeClosed).
			Detail("%s: nil scope", op).
			Build())
	}
	if s.closed {
		fail(errors.New(errors.PhaseScope, errors.KindScopeClosed).
			Detail("%s: scope already closed", op).
			Build())
	}
}

func (s *Scope) mustBeActive(op string) {
	s.mustBeOpen(op)
	if s.chain.current != s {
		fail(errors.New(errors.PhaseScope, errors.KindUnbalanced).
			Detail("%s: scope is not the chain head", op).
			Build())
	}
}

func (s *Scope) allocate(wosize uint32, tag uint8) mlbridge.Word {
	return s.chain.allocate(s.ctx, wosize, tag)
}

// allocWith allocates a block while keeping the block-valued inputs rooted,
// and returns the block with the inputs' current words.
func (s *Scope) allocWith(wosize uint32, tag uint8, inputs []Value) (mlbridge.Word, []mlbridge.Word) {
	words := make([]mlbridge.Word, len(inputs))
	roots := make([]*Root, len(inputs))
	for i, v := range inputs {
		w := v.Word()
		if layout.IsBlock(w) {
			roots[i] = s.Root(v)
		} else {
			words[i] = w
		}
	}

	blk := s.allocate(wosize, tag)

	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i] != nil {
			words[i] = roots[i].load()
			roots[i].Release()
		}
	}
	return blk, words
}
