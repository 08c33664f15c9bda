package mltype

// Kind classifies a type descriptor by the heap representation of its
// values.
type Kind uint8

// Kinds. Int, Char, Bool and Unit values are always immediates. List and
// Option values are an immediate (the empty list, None) or a block. Every
// other kind except Var is a block: Float is tagged DoubleTag, String and
// Bytes share the StringTag layout, Int64 and Bigstring are custom blocks,
// and Pair and Record are tag 0 blocks with one field per element type.
// Var stands for a type variable and decodes as an opaque word.
const (
	KindInt Kind = iota
	KindChar
	KindBool
	KindUnit
	KindFloat
	KindString
	KindBytes
	KindInt64
	KindBigstring
	KindPair
	KindList
	KindOption
	KindVar
	KindRecord
)

var kindNames = [...]string{
	KindInt:       "int",
	KindChar:      "char",
	KindBool:      "bool",
	KindUnit:      "unit",
	KindFloat:     "float",
	KindString:    "string",
	KindBytes:     "bytes",
	KindInt64:     "int64",
	KindBigstring: "bigstring",
	KindPair:      "pair",
	KindList:      "list",
	KindOption:    "option",
	KindVar:       "var",
	KindRecord:    "record",
}

// String returns the kind's lower-case name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsImmediate reports whether values of this kind are always immediates.
func (k Kind) IsImmediate() bool {
	switch k {
	case KindInt, KindChar, KindBool, KindUnit:
		return true
	default:
		return false
	}
}
