package heap

import (
	"go.uber.org/zap"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/layout"
)

const forwardedColor = 3

// Collect copies every block reachable from the local roots chain and the
// global roots into the other semispace, then makes it the active one.
// Blocks outside the active semispace are left untouched.
func (a *Arena) Collect() {
	before := a.free - a.from
	a.free = a.to

	layout.WalkRoots(a.mem, a.roots.Head, func(slot uint32) {
		a.reader.StoreWord(slot, a.forward(a.reader.LoadWord(slot)))
	})
	for _, g := range a.globals {
		*g = a.forward(*g)
	}

	for scan := a.to; scan < a.free; {
		blk := scan + layout.WordSize
		h := a.reader.Header(layout.BlockWord(blk))
		if h.Scannable() {
			for i := uint32(0); i < uint32(h.Wosize); i++ {
				field := blk + i*layout.WordSize
				a.reader.StoreWord(field, a.forward(a.reader.LoadWord(field)))
			}
		}
		scan = blk + uint32(h.ByteSize())
	}

	a.from, a.to = a.to, a.from
	a.stats.Collections++

	Logger().Debug("collection finished",
		zap.Uint64("collection", a.stats.Collections),
		zap.Uint32("before", before),
		zap.Uint32("live", a.free-a.from))
}

// forward returns the new word of w, copying its block on first visit.
// Called while a.from still names the semispace being evacuated.
func (a *Arena) forward(w mlbridge.Word) mlbridge.Word {
	if !layout.IsBlock(w) || !a.inFrom(uint64(w)) {
		return w
	}
	h := a.reader.Header(w)
	if h.Color == forwardedColor {
		return a.reader.LoadWord(layout.Addr(w))
	}

	blk := a.free + layout.WordSize
	a.reader.CopyBlock(blk, w)
	a.free = blk + uint32(h.ByteSize())

	h.Color = forwardedColor
	a.reader.WriteHeader(layout.Addr(w), h)
	moved := layout.BlockWord(blk)
	a.reader.StoreWord(layout.Addr(w), moved)
	return moved
}
