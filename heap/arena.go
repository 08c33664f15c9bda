package heap

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
)

// Default region sizes.
const (
	DefaultRootArea     = 4096
	DefaultExternalArea = 4096

	minSemispace = 256
)

// Custom operations identifiers stored in field 0 of custom blocks.
const (
	Int64Ops    mlbridge.Word = 0x5f69363401
	BigarrayOps mlbridge.Word = 0x5f62617201
)

// Config configures an Arena. Zero values select defaults.
type Config struct {
	// Base is the first byte of memory the arena manages (rounded up to 8).
	Base uint32

	// Size is the number of bytes managed. 0 means up to the end of memory,
	// which requires a Memory that reports its size.
	Size uint32

	// RootArea is the number of bytes reserved for local root tables.
	RootArea uint32

	// ExternalArea is the number of bytes reserved for StoreExternal.
	ExternalArea uint32

	// CollectEvery forces a collection before every Nth allocation.
	// 0 collects only when the active semispace is full.
	CollectEvery int
}

// Stats reports allocation and collection counters.
type Stats struct {
	Allocations uint64
	Collections uint64
	LiveBytes   uint32
	FreeBytes   uint32
}

// Arena is a two-semispace copying heap. It is not safe for concurrent use.
type Arena struct {
	mem     mlbridge.Memory
	reader  layout.Reader
	globals []*mlbridge.Word
	roots   mlbridge.RootRegion
	cfg     Config
	stats   Stats

	// external store [extBase, extEnd), bump pointer extNext.
	extBase, extNext, extEnd uint32

	// active semispace [from, from+half), allocation pointer free.
	from, to, half uint32
	free           uint32
}

var _ mlbridge.Heap = (*Arena)(nil)

// NewArena lays out an arena in mem.
func NewArena(mem mlbridge.Memory, cfg Config) (*Arena, error) {
	if cfg.RootArea == 0 {
		cfg.RootArea = DefaultRootArea
	}
	if cfg.ExternalArea == 0 {
		cfg.ExternalArea = DefaultExternalArea
	}
	if cfg.CollectEvery < 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "negative collect interval")
	}
	base := align8(cfg.Base)
	end := uint64(base) + uint64(cfg.Size)
	if cfg.Size == 0 {
		sz, ok := mem.(mlbridge.MemorySizer)
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseConfig, "arena size required for a memory that does not report its size")
		}
		end = uint64(sz.Size())
	}
	if end > uint64(^uint32(0)) {
		end = uint64(^uint32(0))
	}
	end &^= 7

	roots := mlbridge.RootRegion{
		Head: base + layout.WordSize,
		Base: base + 2*layout.WordSize,
		Size: align8(cfg.RootArea),
	}
	extStart := uint64(roots.Base) + uint64(roots.Size)
	heapStart := extStart + uint64(align8(cfg.ExternalArea))
	if heapStart >= end {
		return nil, errors.New(errors.PhaseConfig, errors.KindCapacity).
			Detail("arena of %d bytes cannot hold %d bytes of roots and %d external bytes", end-uint64(base), roots.Size, cfg.ExternalArea).
			Build()
	}
	half := uint32((end-heapStart)/2) &^ 7
	if half < minSemispace {
		return nil, errors.New(errors.PhaseConfig, errors.KindCapacity).
			Detail("semispace of %d bytes is below the %d byte minimum", half, minSemispace).
			Build()
	}

	a := &Arena{
		mem:     mem,
		reader:  layout.NewReader(mem),
		roots:   roots,
		cfg:     cfg,
		extBase: uint32(extStart),
		extNext: uint32(extStart),
		extEnd:  uint32(heapStart),
		from:    uint32(heapStart),
		to:      uint32(heapStart) + half,
		half:    half,
	}
	a.free = a.from
	if err := mem.WriteU64(base, 0); err != nil {
		return nil, errors.MemoryFault(errors.PhaseConfig, err)
	}
	if err := mem.WriteU64(roots.Head, 0); err != nil {
		return nil, errors.MemoryFault(errors.PhaseConfig, err)
	}
	a.stats.FreeBytes = half

	Logger().Debug("arena created",
		zap.Uint32("base", base),
		zap.Uint32("semispace", half),
		zap.Uint32("root_area", roots.Size),
		zap.Uint32("external_area", a.extEnd-uint32(extStart)))
	return a, nil
}

// Memory returns the linear memory backing the arena.
func (a *Arena) Memory() mlbridge.Memory {
	return a.mem
}

// Roots returns the local root region.
func (a *Arena) Roots() mlbridge.RootRegion {
	return a.roots
}

// CustomOps returns the operations identifier for kind.
func (a *Arena) CustomOps(kind mlbridge.CustomKind) mlbridge.Word {
	switch kind {
	case mlbridge.CustomInt64:
		return Int64Ops
	case mlbridge.CustomBigarray:
		return BigarrayOps
	default:
		return 0
	}
}

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	s := a.stats
	s.LiveBytes = a.free - a.from
	s.FreeBytes = a.from + a.half - a.free
	return s
}

// Contains reports whether w is a block in the active semispace.
func (a *Arena) Contains(w mlbridge.Word) bool {
	return layout.IsBlock(w) && a.inFrom(uint64(w))
}

// AllocBlock allocates a block, collecting first when the active
// semispace cannot hold it or the collect interval is reached.
func (a *Arena) AllocBlock(ctx context.Context, wosize uint32, tag uint8) (mlbridge.Word, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "allocation cancelled")
	}
	if wosize == 0 || wosize > layout.MaxWosize {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(wosize).
			Detail("block size %d words outside 1..%d", wosize, layout.MaxWosize).
			Build()
	}
	size := (uint64(wosize) + 1) * layout.WordSize

	every := uint64(a.cfg.CollectEvery)
	if every > 0 && a.stats.Allocations > 0 && a.stats.Allocations%every == 0 {
		a.Collect()
	}
	if uint64(a.free)+size > uint64(a.from)+uint64(a.half) {
		a.Collect()
		if uint64(a.free)+size > uint64(a.from)+uint64(a.half) {
			return 0, errors.New(errors.PhaseAlloc, errors.KindAllocation).
				Value(wosize).
				Detail("heap exhausted: %d bytes requested, %d free after collection", size, a.from+a.half-a.free).
				Build()
		}
	}

	hdr := a.free
	blk := hdr + layout.WordSize
	a.free += uint32(size)
	a.stats.Allocations++

	h := layout.Header{Wosize: uint64(wosize), Tag: tag}
	a.reader.WriteHeader(blk, h)
	if h.Scannable() {
		for i := uint32(0); i < wosize; i++ {
			a.reader.StoreWord(blk+i*layout.WordSize, layout.Unit)
		}
	} else if err := a.mem.Write(blk, make([]byte, h.ByteSize())); err != nil {
		return 0, errors.MemoryFault(errors.PhaseAlloc, err)
	}
	return layout.BlockWord(blk), nil
}

// StoreExternal copies data into the external store and returns its
// address. External bytes are never moved by collection. They are released
// only by RewindExternal.
func (a *Arena) StoreExternal(data []byte) (uint32, error) {
	n := uint32(len(data))
	if uint64(a.extNext)+uint64(n) > uint64(a.extEnd) {
		return 0, errors.Capacity(errors.PhaseAlloc, "external store", int(a.extEnd-a.extNext))
	}
	addr := a.extNext
	if err := a.mem.Write(addr, data); err != nil {
		return 0, errors.MemoryFault(errors.PhaseAlloc, err)
	}
	a.extNext = align8(addr + n)
	if a.extNext > a.extEnd {
		a.extNext = a.extEnd
	}
	return addr, nil
}

// ExternalMark returns the current end of the external store, to be passed
// to RewindExternal later.
func (a *Arena) ExternalMark() uint32 {
	return a.extNext
}

// RewindExternal releases every buffer stored since mark. Blocks still
// pointing at those bytes must be dead before the rewind. A mark outside
// the used part of the store is rejected.
func (a *Arena) RewindExternal(mark uint32) error {
	if mark < a.extBase || mark > a.extNext {
		return errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Detail("external mark %#x outside used store [%#x, %#x]", mark, a.extBase, a.extNext).
			Build()
	}
	Logger().Debug("external store rewound",
		zap.Uint32("mark", mark),
		zap.Uint32("released", a.extNext-mark))
	a.extNext = mark
	return nil
}

// AddGlobalRoot registers a Go-held word the collector updates in place.
func (a *Arena) AddGlobalRoot(w *mlbridge.Word) {
	a.globals = append(a.globals, w)
}

// RemoveGlobalRoot unregisters w. It reports whether w was registered.
func (a *Arena) RemoveGlobalRoot(w *mlbridge.Word) bool {
	for i, g := range a.globals {
		if g == w {
			a.globals = append(a.globals[:i], a.globals[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Arena) inFrom(addr uint64) bool {
	return addr >= uint64(a.from)+layout.WordSize && addr < uint64(a.from)+uint64(a.half)
}

func align8(n uint32) uint32 {
	return (n + 7) &^ 7
}
