package bridge

import (
	"testing"

	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

func TestToken_SingleUse(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	tok := s.Token()
	AllocString(tok, "a")
	expectFatal(t, errors.KindTokenSpent, func() { AllocString(tok, "b") })
}

func TestStaged_Violations(t *testing.T) {
	tests := []struct {
		name string
		kind errors.Kind
		run  func(c *Chain)
	}{
		{
			name: "mark after another allocation",
			kind: errors.KindStale,
			run: func(c *Chain) {
				s := c.Open(ctx)
				raw := AllocString(s.Token(), "a")
				CopyInt64(s.Token(), 1)
				raw.Mark(s)
			},
		},
		{
			name: "mark against inactive scope",
			kind: errors.KindUnbalanced,
			run: func(c *Chain) {
				outer := c.Open(ctx)
				raw := AllocString(outer.Token(), "a")
				c.Open(ctx)
				raw.Mark(outer)
			},
		},
		{
			name: "eval in another scope",
			kind: errors.KindUnbalanced,
			run: func(c *Chain) {
				outer := c.Open(ctx)
				marked := AllocString(outer.Token(), "a").Mark(outer)
				inner := c.Open(ctx)
				marked.Eval(inner)
			},
		},
		{
			name: "eval after allocation",
			kind: errors.KindStale,
			run: func(c *Chain) {
				s := c.Open(ctx)
				marked := AllocString(s.Token(), "a").Mark(s)
				CopyFloat(s.Token(), 1)
				marked.Eval(s)
			},
		},
		{
			name: "zero raw",
			kind: errors.KindInvalidInput,
			run: func(c *Chain) {
				s := c.Open(ctx)
				Raw{}.Mark(s)
			},
		},
		{
			name: "nil token",
			kind: errors.KindInvalidInput,
			run: func(c *Chain) {
				c.Open(ctx)
				AllocString(nil, "a")
			},
		},
		{
			name: "opaque tag for pair",
			kind: errors.KindTagMismatch,
			run: func(c *Chain) {
				s := c.Open(ctx)
				AllocPair(s.Token(), layout.StringTag, Int(1), Int(2))
			},
		},
		{
			name: "cons onto non-list",
			kind: errors.KindKindMismatch,
			run: func(c *Chain) {
				s := c.Open(ctx)
				AllocCons(s.Token(), Int(1), Int(2))
			},
		},
		{
			name: "negative string length",
			kind: errors.KindInvalidInput,
			run: func(c *Chain) {
				s := c.Open(ctx)
				AllocBlankString(s.Token(), -1)
			},
		},
		{
			name: "external beyond memory",
			kind: errors.KindOutOfBounds,
			run: func(c *Chain) {
				s := c.Open(ctx)
				AllocExternal(s.Token(), 1<<16-4, 8)
			},
		},
		{
			name: "heap exhausted",
			kind: errors.KindAllocation,
			run: func(c *Chain) {
				s := c.Open(ctx)
				AllocBlankString(s.Token(), 1<<20)
			},
		},
		{
			name: "stale input",
			kind: errors.KindStale,
			run: func(c *Chain) {
				s := c.Open(ctx)
				a := s.Call(AllocString(s.Token(), "a"))
				s.Call(AllocString(s.Token(), "b"))
				AllocSome(s.Token(), a)
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

func TestAllocPair_KeepsInputsAcrossCollection(t *testing.T) {
	c, arena := newTestChain(t, heap.Config{CollectEvery: 1}, Options{})
	s := c.Open(ctx)

	left := s.Call(AllocString(s.Token(), "left")).Root(s)
	right := s.Call(AllocString(s.Token(), "right"))
	p := s.Call(AllocPair(s.Token(), layout.PairTag, left.Get(s), right))
	left.Release()

	if arena.Stats().Collections < 2 {
		t.Fatalf("collections = %d, want at least 2", arena.Stats().Collections)
	}
	if got := p.Fst().AsString(); got != "left" {
		t.Errorf("fst = %q", got)
	}
	if got := p.Snd().AsString(); got != "right" {
		t.Errorf("snd = %q", got)
	}
	if s.Slots() != 0 {
		t.Errorf("internal roots leaked: %d slots", s.Slots())
	}
	s.Close()
}

func TestAllocBlock_Record(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{CollectEvery: 1}, Options{})
	s := c.Open(ctx)
	point := mltype.Record("point", mltype.Int, mltype.String, mltype.Int)
	name := s.Call(AllocString(s.Token(), "origin"))
	v := s.Call(AllocBlock(s.Token(), point, 0, Int(3), name, Int(4)))

	if v.Type().Name() != "point" {
		t.Errorf("type = %s", v.Type())
	}
	if x := v.Field(0, mltype.Int).AsInt(); x != 3 {
		t.Errorf("x = %d", x)
	}
	if n := v.Field(1, mltype.String).AsString(); n != "origin" {
		t.Errorf("name = %q", n)
	}
	if y := v.Field(2, mltype.Int).AsInt(); y != 4 {
		t.Errorf("y = %d", y)
	}
	s.Close()
}

func TestNone_DoesNotAllocate(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	v := s.Call(AllocString(s.Token(), "still live"))
	gen := c.Generation()
	s.Call(None(s.Token(), mltype.Int))
	if c.Generation() != gen {
		t.Errorf("None bumped generation %d -> %d", gen, c.Generation())
	}
	if v.AsString() != "still live" {
		t.Error("value invalidated by None")
	}
	s.Close()
}
