package bridge

import (
	"testing"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

func TestChain_OpenClose(t *testing.T) {
	c, arena := newTestChain(t, heap.Config{}, Options{})
	mem := arena.Memory()
	head := arena.Roots().Head

	outer := c.Open(ctx)
	if got := layout.ReadHead(mem, head); got != outer.table.Addr {
		t.Fatalf("head = %#x, want %#x", got, outer.table.Addr)
	}
	inner := c.Open(ctx)
	if inner.table.Next() != outer.table.Addr {
		t.Errorf("inner links to %#x, want %#x", inner.table.Next(), outer.table.Addr)
	}
	if c.Depth() != 2 || c.Current() != inner {
		t.Errorf("depth = %d, current = %p", c.Depth(), c.Current())
	}

	inner.Close()
	if got := layout.ReadHead(mem, head); got != outer.table.Addr {
		t.Errorf("head after inner close = %#x", got)
	}
	outer.Close()
	if got := layout.ReadHead(mem, head); got != 0 {
		t.Errorf("head after outer close = %#x, want 0", got)
	}
	if c.Depth() != 0 || c.Current() != nil {
		t.Errorf("chain not empty: depth %d", c.Depth())
	}
}

func TestChain_ReusesTableArea(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	first := c.Open(ctx)
	addr := first.table.Addr
	first.Close()
	second := c.Open(ctx)
	defer second.Close()
	if second.table.Addr != addr {
		t.Errorf("second table at %#x, want %#x", second.table.Addr, addr)
	}
}

func TestChain_With(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	got := c.With(ctx, func(s *Scope) mlbridge.Word {
		if s.Slots() != 0 {
			t.Errorf("fresh scope has %d slots", s.Slots())
		}
		return s.Call(AllocString(s.Token(), "ok")).Word()
	})
	if !layout.IsBlock(got) {
		t.Errorf("result %#x is not a block", uint64(got))
	}
	if c.Depth() != 0 {
		t.Errorf("depth = %d after With", c.Depth())
	}
}

func TestScope_Violations(t *testing.T) {
	tests := []struct {
		name string
		kind errors.Kind
		run  func(c *Chain)
	}{
		{
			name: "leaked slot",
			kind: errors.KindSlotsLeaked,
			run: func(c *Chain) {
				s := c.Open(ctx)
				s.Root(Int(1))
				s.Close()
			},
		},
		{
			name: "close outer first",
			kind: errors.KindUnbalanced,
			run: func(c *Chain) {
				outer := c.Open(ctx)
				c.Open(ctx)
				outer.Close()
			},
		},
		{
			name: "double close",
			kind: errors.KindScopeClosed,
			run: func(c *Chain) {
				s := c.Open(ctx)
				s.Close()
				s.Close()
			},
		},
		{
			name: "wrap in inactive scope",
			kind: errors.KindUnbalanced,
			run: func(c *Chain) {
				outer := c.Open(ctx)
				c.Open(ctx)
				outer.Wrap(layout.EncodeInt(1), mltype.Int)
			},
		},
		{
			name: "token from closed scope",
			kind: errors.KindScopeClosed,
			run: func(c *Chain) {
				s := c.Open(ctx)
				s.Close()
				s.Token()
			},
		},
		{
			name: "leak inside With",
			kind: errors.KindSlotsLeaked,
			run: func(c *Chain) {
				c.With(ctx, func(s *Scope) mlbridge.Word {
					s.Root(Int(1))
					return layout.Unit
				})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestChain(t, heap.Config{}, Options{})
			expectFatal(t, tt.kind, func() { tt.run(c) })
		})
	}
}

func TestChain_TableAreaExhausted(t *testing.T) {
	size := layout.RootTableSize(DefaultCapacity)
	c, _ := newTestChain(t, heap.Config{RootArea: 2 * size}, Options{})
	c.Open(ctx)
	c.Open(ctx)
	expectFatal(t, errors.KindCapacity, func() { c.Open(ctx) })
}

func TestNewChain_Capacity(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	if c.Capacity() != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", c.Capacity(), DefaultCapacity)
	}
	expectFatal(t, errors.KindInvalidInput, func() {
		newTestChain(t, heap.Config{}, Options{Capacity: MaxCapacity + 1})
	})
}
