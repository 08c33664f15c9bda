package bridge

import (
	"context"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
)

// Root table capacity bounds.
const (
	DefaultCapacity = 8
	MaxCapacity     = 64
)

// Options configures a Chain.
type Options struct {
	// Capacity is the number of local slots per root table.
	// 0 means DefaultCapacity.
	Capacity int
}

// Chain is the local roots chain of one heap: the explicit handle to the
// current scope. It is not safe for concurrent use.
type Chain struct {
	heap     mlbridge.Heap
	current  *Scope
	reader   layout.Reader
	region   mlbridge.RootRegion
	gen      uint64
	capacity int
	top      uint32
	depth    int
}

// NewChain creates the roots chain for h.
func NewChain(h mlbridge.Heap, opts Options) *Chain {
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 0 || capacity > MaxCapacity {
		fail(errors.New(errors.PhaseScope, errors.KindInvalidInput).
			Value(capacity).
			Detail("root table capacity %d outside 1..%d", capacity, MaxCapacity).
			Build())
	}
	region := h.Roots()
	return &Chain{
		heap:     h,
		reader:   layout.NewReader(h.Memory()),
		region:   region,
		capacity: capacity,
		top:      region.Base,
	}
}

// Heap returns the heap the chain registers roots for.
func (c *Chain) Heap() mlbridge.Heap {
	return c.heap
}

// Reader returns a layout reader over the heap's memory.
func (c *Chain) Reader() layout.Reader {
	return c.reader
}

// Capacity returns the number of slots per root table.
func (c *Chain) Capacity() int {
	return c.capacity
}

// Generation returns the number of allocations performed through the chain.
func (c *Chain) Generation() uint64 {
	return c.gen
}

// Current returns the active scope, or nil.
func (c *Chain) Current() *Scope {
	return c.current
}

// Depth returns the number of open scopes.
func (c *Chain) Depth() int {
	return c.depth
}

// Open pushes a new root table and makes its scope current.
// The caller must Close it before closing any enclosing scope.
func (c *Chain) Open(ctx context.Context) *Scope {
	size := layout.RootTableSize(c.capacity)
	end := uint64(c.region.Base) + uint64(c.region.Size)
	if uint64(c.top)+uint64(size) > end {
		fail(errors.Capacity(errors.PhaseScope, "root table area", int(c.region.Size/size)))
	}

	mem := c.heap.Memory()
	table := layout.OpenRootTable(mem, c.top)
	table.Init(layout.ReadHead(mem, c.region.Head))
	layout.WriteHead(mem, c.region.Head, table.Addr)

	s := &Scope{
		chain:  c,
		parent: c.current,
		ctx:    ctx,
		table:  table,
	}
	c.top += size
	c.current = s
	c.depth++
	return s
}

// With runs body in a fresh scope and returns its result word. The scope is
// closed when body returns; a violation inside body leaves the chain as it
// was at the point of failure.
func (c *Chain) With(ctx context.Context, body func(s *Scope) mlbridge.Word) mlbridge.Word {
	s := c.Open(ctx)
	result := body(s)
	s.Close()
	return result
}

func (c *Chain) allocate(ctx context.Context, wosize uint32, tag uint8) mlbridge.Word {
	w, err := c.heap.AllocBlock(ctx, wosize, tag)
	c.gen++
	if err != nil {
		fail(errors.AllocationFailed(errors.PhaseAlloc, wosize, tag, err))
	}
	return w
}
