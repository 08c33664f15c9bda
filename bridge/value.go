package bridge

import (
	"unicode/utf8"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

// Value is a typed view of a heap word, valid in its scope until the next
// allocation unless it is a static immediate.
type Value struct {
	scope  *Scope
	typ    mltype.Type
	word   mlbridge.Word
	gen    uint64
	static bool
}

// Int returns the static immediate for n.
func Int(n int64) Value {
	return Value{typ: mltype.Int, word: layout.EncodeInt(n), static: true}
}

// Char returns the static immediate for c.
func Char(c byte) Value {
	return Value{typ: mltype.Char, word: layout.EncodeChar(c), static: true}
}

// Bool returns the static immediate for b.
func Bool(b bool) Value {
	return Value{typ: mltype.Bool, word: layout.EncodeBool(b), static: true}
}

// Unit returns the static unit immediate.
func Unit() Value {
	return Value{typ: mltype.Unit, word: layout.Unit, static: true}
}

// Nil returns the static empty list of element type elem.
func Nil(elem mltype.Type) Value {
	return Value{typ: mltype.List(elem), word: layout.EmptyList, static: true}
}

// Type returns the value's descriptor.
func (v Value) Type() mltype.Type {
	return v.typ
}

// Word returns the raw word, checking that the value is still live.
func (v Value) Word() mlbridge.Word {
	v.live("word")
	return v.word
}

// IsBlock reports whether the value is a block.
func (v Value) IsBlock() bool {
	v.live("is_block")
	return layout.IsBlock(v.word)
}

// Root protects the value in scope s.
func (v Value) Root(s *Scope) *Root {
	return s.Root(v)
}

// Field reads block field i as a value of type t.
func (v Value) Field(i int, t mltype.Type) Value {
	v.live("field")
	if i < 0 {
		fail(errors.OutOfBounds(errors.PhaseDecode, nil, i, 0))
	}
	w := v.reader().Field(v.word, uint64(i))
	return v.derive(w, t)
}

// AsInt decodes an int immediate.
func (v Value) AsInt() int64 {
	v.expect("as_int", mltype.KindInt)
	return layout.DecodeInt(v.word)
}

// AsChar decodes a char immediate.
func (v Value) AsChar() byte {
	v.expect("as_char", mltype.KindChar)
	return layout.DecodeChar(v.word)
}

// AsBool decodes a bool immediate, whose payload must be 0 or 1.
func (v Value) AsBool() bool {
	v.expect("as_bool", mltype.KindBool)
	switch n := layout.DecodeInt(v.word); n {
	case 0:
		return false
	case 1:
		return true
	default:
		fail(errors.New(errors.PhaseDecode, errors.KindInvalidData).
			HostType(v.typ.Name()).
			Value(n).
			Detail("bool payload %d", n).
			Build())
		return false
	}
}

// AsBytes copies the contents of a string or bytes block.
func (v Value) AsBytes() []byte {
	v.expect("as_bytes", mltype.KindString, mltype.KindBytes)
	return v.reader().StringBytes(v.word)
}

// AsString decodes a string or bytes block, which must hold valid UTF-8.
func (v Value) AsString() string {
	v.expect("as_str", mltype.KindString, mltype.KindBytes)
	b := v.reader().StringBytes(v.word)
	if !utf8.Valid(b) {
		fail(errors.InvalidUTF8(errors.PhaseDecode, nil, b))
	}
	return string(b)
}

// AsInt64 reads a boxed int64.
func (v Value) AsInt64() int64 {
	v.expect("as_i64", mltype.KindInt64)
	return v.reader().Int64(v.word, v.scope.chain.heap.CustomOps(mlbridge.CustomInt64))
}

// AsFloat reads a boxed float.
func (v Value) AsFloat() float64 {
	v.expect("as_float", mltype.KindFloat)
	return v.reader().Float(v.word)
}

// AsBuffer returns the linear-memory region wrapped by an external buffer.
func (v Value) AsBuffer() (data uint32, length uint32) {
	v.expect("as_buffer", mltype.KindBigstring)
	return v.reader().Bigarray(v.word, v.scope.chain.heap.CustomOps(mlbridge.CustomBigarray))
}

// AsSlice copies the bytes wrapped by an external buffer.
func (v Value) AsSlice() []byte {
	data, n := v.AsBuffer()
	src := v.reader().Bytes(data, n)
	out := make([]byte, len(src))
	copy(out, src)
	return out
}

// AsList splits a list. ok is false for the empty list.
func (v Value) AsList() (head, tail Value, ok bool) {
	v.expect("as_list", mltype.KindList)
	if layout.IsImmediate(v.word) {
		if v.word != layout.EmptyList {
			fail(errors.InvalidData(errors.PhaseDecode, nil, "list immediate is not the empty list"))
		}
		return Value{}, Value{}, false
	}
	v.reader().ExpectTag(v.word, layout.ConsTag)
	return v.Field(0, v.typ.Elem(0)), v.Field(1, v.typ), true
}

// AsOption unwraps an option. ok is false for None.
func (v Value) AsOption() (x Value, ok bool) {
	v.expect("as_option", mltype.KindOption)
	if layout.IsImmediate(v.word) {
		if v.word != layout.None {
			fail(errors.InvalidData(errors.PhaseDecode, nil, "option immediate is not None"))
		}
		return Value{}, false
	}
	v.reader().ExpectTag(v.word, layout.SomeTag)
	return v.Field(0, v.typ.Elem(0)), true
}

// Fst reads the first component of a pair.
func (v Value) Fst() Value {
	v.expect("fst", mltype.KindPair)
	return v.Field(0, v.typ.Elem(0))
}

// Snd reads the second component of a pair.
func (v Value) Snd() Value {
	v.expect("snd", mltype.KindPair)
	return v.Field(1, v.typ.Elem(1))
}

// Len returns the number of elements of a list.
func (v Value) Len() int {
	n := 0
	for {
		_, tail, ok := v.AsList()
		if !ok {
			return n
		}
		n++
		v = tail
	}
}

// derive views a word read out of v. A block under a type whose values
// are always immediates is rejected here rather than at first use.
func (v Value) derive(w mlbridge.Word, t mltype.Type) Value {
	if t.Kind().IsImmediate() && !layout.IsImmediate(w) {
		fail(errors.New(errors.PhaseDecode, errors.KindNotImmediate).
			HostType(t.Name()).
			Detail("field holds block %#x", uint64(w)).
			Build())
	}
	return Value{scope: v.scope, typ: t, word: w, gen: v.gen, static: v.static && layout.IsImmediate(w)}
}

func (v Value) reader() layout.Reader {
	if v.scope == nil {
		fail(errors.New(errors.PhaseDecode, errors.KindScopeClosed).
			HostType(v.typ.Name()).
			Detail("static immediate has no heap").
			Build())
	}
	return v.scope.chain.reader
}

func (v Value) expect(op string, kinds ...mltype.Kind) {
	v.live(op)
	for _, k := range kinds {
		if v.typ.Kind() == k {
			return
		}
	}
	fail(errors.KindMismatch(errors.PhaseDecode, nil, op, v.typ.Name()))
}

func (v Value) live(op string) {
	if v.static {
		return
	}
	if v.scope == nil {
		fail(errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("%s: uninitialized value", op).
			Build())
	}
	v.scope.mustBeOpen(op)
	if cur := v.scope.chain.gen; v.gen != cur {
		fail(errors.Stale(errors.PhaseDecode, v.typ.Name(), v.gen, cur))
	}
}
