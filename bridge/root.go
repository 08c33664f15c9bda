package bridge

import (
	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/mltype"
)

// Root is a value registered in a root table slot. The host collector
// updates the slot when it moves the block, so Get always yields a word
// that is valid now.
type Root struct {
	scope    *Scope
	typ      mltype.Type
	slot     uint32
	released bool
}

// Root claims the next free slot of s and stores v in it.
func (s *Scope) Root(v Value) *Root {
	s.mustBeActive("root")
	w := v.Word()
	n := s.table.Items()
	if n >= uint64(s.chain.capacity) {
		fail(errors.Capacity(errors.PhaseRoot, "root table slots", s.chain.capacity))
	}
	slot := s.table.Slot(n)
	s.chain.reader.StoreWord(slot, w)
	s.table.SetItems(n + 1)
	return &Root{scope: s, typ: v.typ, slot: slot}
}

// Type returns the descriptor of the rooted value.
func (r *Root) Type() mltype.Type {
	return r.typ
}

// Get re-reads the slot and returns a view valid at the current generation.
// s must be the active scope, and the root's own scope must still be open.
func (r *Root) Get(s *Scope) Value {
	r.mustBeHeld("get")
	s.mustBeActive("get")
	if s.chain != r.scope.chain {
		fail(errors.New(errors.PhaseRoot, errors.KindInvalidInput).
			Detail("get: root belongs to another chain").
			Build())
	}
	return Value{scope: s, typ: r.typ, word: r.load(), gen: s.chain.gen}
}

// Set overwrites the slot with v.
func (r *Root) Set(v Value) {
	r.mustBeHeld("set")
	r.scope.chain.reader.StoreWord(r.slot, v.Word())
	r.typ = v.typ
}

// Release frees the slot. Roots of one scope are released in the reverse
// order of acquisition.
func (r *Root) Release() {
	if r.released {
		fail(errors.New(errors.PhaseRoot, errors.KindDoubleRelease).
			HostType(r.typ.Name()).
			Detail("slot %#x released twice", r.slot).
			Build())
	}
	s := r.scope
	s.mustBeOpen("release")
	n := s.table.Items()
	if n == 0 || s.table.Slot(n-1) != r.slot {
		fail(errors.New(errors.PhaseRoot, errors.KindOutOfOrder).
			Value(r.slot).
			Detail("slot %#x is not the top of its table (%d occupied)", r.slot, n).
			Build())
	}
	s.chain.reader.StoreWord(r.slot, 0)
	s.table.SetItems(n - 1)
	r.released = true
}

func (r *Root) load() mlbridge.Word {
	return r.scope.chain.reader.LoadWord(r.slot)
}

func (r *Root) mustBeHeld(op string) {
	if r.released {
		fail(errors.New(errors.PhaseRoot, errors.KindReleased).
			HostType(r.typ.Name()).
			Detail("%s: root already released", op).
			Build())
	}
	r.scope.mustBeOpen(op)
}
