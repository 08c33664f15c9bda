package mltype

import "strings"

// Type is a host type descriptor.
type Type struct {
	// name is the variable letter for KindVar and the type name for KindRecord.
	name  string
	elems []Type
	kind  Kind
}

// Scalar and opaque descriptors.
var (
	Int       = Type{kind: KindInt}
	Char      = Type{kind: KindChar}
	Bool      = Type{kind: KindBool}
	Unit      = Type{kind: KindUnit}
	Float     = Type{kind: KindFloat}
	String    = Type{kind: KindString}
	Bytes     = Type{kind: KindBytes}
	Int64     = Type{kind: KindInt64}
	Bigstring = Type{kind: KindBigstring}
)

// Type variables for polymorphic signatures.
var (
	A = Var("a")
	B = Var("b")
	C = Var("c")
	D = Var("d")
	E = Var("e")
)

// Pair describes a two-field tuple block.
func Pair(fst, snd Type) Type {
	return Type{kind: KindPair, elems: []Type{fst, snd}}
}

// List describes a cons list.
func List(elem Type) Type {
	return Type{kind: KindList, elems: []Type{elem}}
}

// Option describes an option.
func Option(elem Type) Type {
	return Type{kind: KindOption, elems: []Type{elem}}
}

// Var describes the type variable 'name.
func Var(name string) Type {
	return Type{kind: KindVar, name: name}
}

// Record describes a user record with the given host type name and field types.
func Record(name string, fields ...Type) Type {
	return Type{kind: KindRecord, name: name, elems: fields}
}

// Kind returns the descriptor's kind.
func (t Type) Kind() Kind {
	return t.kind
}

// Elem returns element type i: pair components, list/option element, record fields.
// Kinds without elements yield the type variable 'a, which decodes as an opaque word.
func (t Type) Elem(i int) Type {
	if i < 0 || i >= len(t.elems) {
		return A
	}
	return t.elems[i]
}

// NumElems returns the number of element types.
func (t Type) NumElems() int {
	return len(t.elems)
}

// Name renders the canonical host type name.
func (t Type) Name() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.Name()
}

func (t Type) write(b *strings.Builder) {
	switch t.kind {
	case KindVar:
		b.WriteByte('\'')
		b.WriteString(t.name)
	case KindRecord:
		b.WriteString(t.name)
	case KindBigstring:
		b.WriteString("Bigstring.t")
	case KindPair:
		b.WriteByte('(')
		t.elems[0].write(b)
		b.WriteString(" * ")
		t.elems[1].write(b)
		b.WriteByte(')')
	case KindList:
		t.elems[0].write(b)
		b.WriteString(" list")
	case KindOption:
		t.elems[0].write(b)
		b.WriteString(" option")
	default:
		b.WriteString(t.kind.String())
	}
}

// Equal reports whether two descriptors are structurally identical.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind || t.name != o.name || len(t.elems) != len(o.elems) {
		return false
	}
	for i := range t.elems {
		if !t.elems[i].Equal(o.elems[i]) {
			return false
		}
	}
	return true
}

// Polymorphic reports whether the descriptor mentions a type variable.
func (t Type) Polymorphic() bool {
	if t.kind == KindVar {
		return true
	}
	for _, e := range t.elems {
		if e.Polymorphic() {
			return true
		}
	}
	return false
}
