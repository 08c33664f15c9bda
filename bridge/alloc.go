package bridge

import (
	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

// Token is a single-use capability acknowledging that the call it is spent
// on may allocate, and so may move every value that is not rooted.
type Token struct {
	scope *Scope
	spent bool
}

func (t *Token) consume(op string) *Scope {
	if t == nil {
		fail(errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("%s: nil token", op).
			Build())
	}
	if t.spent {
		fail(errors.New(errors.PhaseAlloc, errors.KindTokenSpent).
			Detail("%s: token already spent", op).
			Build())
	}
	t.spent = true
	t.scope.mustBeActive(op)
	return t.scope
}

// Raw is the unreadable result of an allocating call. It must be marked
// against the active scope before any further allocation.
type Raw struct {
	chain *Chain
	typ   mltype.Type
	word  mlbridge.Word
	gen   uint64
}

// Mark binds the result to s, the active scope.
func (r Raw) Mark(s *Scope) Marked {
	s.mustBeActive("mark")
	if r.chain == nil || s.chain != r.chain {
		fail(errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("mark: result does not belong to this chain").
			Build())
	}
	if r.gen != s.chain.gen {
		fail(errors.Stale(errors.PhaseAlloc, r.typ.Name(), r.gen, s.chain.gen))
	}
	return Marked{scope: s, typ: r.typ, word: r.word, gen: r.gen}
}

// Marked is an allocation result known to be valid in its scope.
type Marked struct {
	scope *Scope
	typ   mltype.Type
	word  mlbridge.Word
	gen   uint64
}

// Eval yields the result as a value of s.
func (m Marked) Eval(s *Scope) Value {
	s.mustBeActive("eval")
	if m.scope != s {
		fail(errors.New(errors.PhaseAlloc, errors.KindUnbalanced).
			Detail("eval: result was marked against another scope").
			Build())
	}
	if m.gen != s.chain.gen {
		fail(errors.Stale(errors.PhaseAlloc, m.typ.Name(), m.gen, s.chain.gen))
	}
	return Value{scope: s, typ: m.typ, word: m.word, gen: m.gen}
}

func (s *Scope) raw(w mlbridge.Word, t mltype.Type) Raw {
	return Raw{chain: s.chain, typ: t, word: w, gen: s.chain.gen}
}

// AllocPair allocates a two-field block with the given tag.
func AllocPair(tok *Token, tag uint8, a, b Value) Raw {
	s := tok.consume("alloc_pair")
	mustScan(tag)
	blk, w := s.allocWith(2, tag, []Value{a, b})
	s.chain.reader.SetField(blk, 0, w[0])
	s.chain.reader.SetField(blk, 1, w[1])
	return s.raw(blk, mltype.Pair(a.typ, b.typ))
}

// None returns the empty option. It spends the token without allocating.
func None(tok *Token, elem mltype.Type) Raw {
	s := tok.consume("none")
	return s.raw(layout.None, mltype.Option(elem))
}

// AllocSome allocates Some a.
func AllocSome(tok *Token, a Value) Raw {
	s := tok.consume("alloc_some")
	blk, w := s.allocWith(1, layout.SomeTag, []Value{a})
	s.chain.reader.SetField(blk, 0, w[0])
	return s.raw(blk, mltype.Option(a.typ))
}

// AllocCons allocates head :: tail.
func AllocCons(tok *Token, head, tail Value) Raw {
	s := tok.consume("alloc_cons")
	if tail.typ.Kind() != mltype.KindList {
		fail(errors.KindMismatch(errors.PhaseAlloc, nil, "cons tail", tail.typ.Name()))
	}
	blk, w := s.allocWith(2, layout.ConsTag, []Value{head, tail})
	s.chain.reader.SetField(blk, 0, w[0])
	s.chain.reader.SetField(blk, 1, w[1])
	return s.raw(blk, tail.typ)
}

// AllocBlock allocates a block of type t holding fields.
func AllocBlock(tok *Token, t mltype.Type, tag uint8, fields ...Value) Raw {
	s := tok.consume("alloc_block")
	mustScan(tag)
	if len(fields) == 0 || len(fields) > layout.MaxWosize {
		fail(errors.OutOfBounds(errors.PhaseAlloc, nil, len(fields), layout.MaxWosize))
	}
	blk, w := s.allocWith(uint32(len(fields)), tag, fields)
	for i, f := range w {
		s.chain.reader.SetField(blk, uint64(i), f)
	}
	return s.raw(blk, t)
}

// AllocBlankString allocates a zero-filled string of n bytes.
func AllocBlankString(tok *Token, n int) Raw {
	s := tok.consume("alloc_blank_string")
	return s.raw(s.blankString(n), mltype.String)
}

// AllocString allocates a string holding a copy of str.
func AllocString(tok *Token, str string) Raw {
	s := tok.consume("alloc_string")
	blk := s.blankString(len(str))
	s.chain.reader.WriteStringBytes(blk, []byte(str))
	return s.raw(blk, mltype.String)
}

// AllocBlankBytes allocates a zero-filled byte buffer of n bytes.
func AllocBlankBytes(tok *Token, n int) Raw {
	s := tok.consume("alloc_blank_bytes")
	return s.raw(s.blankString(n), mltype.Bytes)
}

// AllocBytes allocates a byte buffer holding a copy of b.
func AllocBytes(tok *Token, b []byte) Raw {
	s := tok.consume("alloc_bytes")
	blk := s.blankString(len(b))
	s.chain.reader.WriteStringBytes(blk, b)
	return s.raw(blk, mltype.Bytes)
}

// AllocExternal wraps length bytes of linear memory at data in an external
// buffer. The bytes are not copied and must outlive every use of the buffer.
func AllocExternal(tok *Token, data, length uint32) Raw {
	s := tok.consume("alloc_external")
	if uint64(data)+uint64(length) > uint64(^uint32(0)) {
		fail(errors.OutOfBounds(errors.PhaseAlloc, nil, int(data), int(length)))
	}
	if sz, ok := s.chain.heap.Memory().(mlbridge.MemorySizer); ok && data+length > sz.Size() {
		fail(errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Detail("external buffer [%#x, +%d) beyond memory size %d", data, length, sz.Size()).
			Build())
	}
	blk := s.allocate(layout.BigarrayWosize, layout.CustomTag)
	s.chain.reader.InitBigarray(blk, s.chain.heap.CustomOps(mlbridge.CustomBigarray), data, length)
	return s.raw(blk, mltype.Bigstring)
}

// CopyInt64 boxes n.
func CopyInt64(tok *Token, n int64) Raw {
	s := tok.consume("copy_int64")
	blk := s.allocate(layout.Int64Wosize, layout.CustomTag)
	s.chain.reader.InitInt64(blk, s.chain.heap.CustomOps(mlbridge.CustomInt64), n)
	return s.raw(blk, mltype.Int64)
}

// CopyFloat boxes f.
func CopyFloat(tok *Token, f float64) Raw {
	s := tok.consume("copy_float")
	blk := s.allocate(1, layout.DoubleTag)
	s.chain.reader.InitFloat(blk, f)
	return s.raw(blk, mltype.Float)
}

func (s *Scope) blankString(n int) mlbridge.Word {
	if n < 0 {
		fail(errors.InvalidInput(errors.PhaseAlloc, "negative string length"))
	}
	wosize := layout.StringWosize(uint64(n))
	if wosize > layout.MaxWosize {
		fail(errors.Capacity(errors.PhaseAlloc, "string block", layout.MaxWosize*layout.WordSize-1))
	}
	blk := s.allocate(uint32(wosize), layout.StringTag)
	s.chain.reader.InitString(blk, uint64(n))
	return blk
}

func mustScan(tag uint8) {
	if tag >= layout.NoScanTag {
		fail(errors.New(errors.PhaseAlloc, errors.KindTagMismatch).
			Value(tag).
			Detail("tag %d does not describe a block of values", tag).
			Build())
	}
}
