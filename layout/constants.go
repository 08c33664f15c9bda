package layout

import "github.com/wippyai/mlbridge"

// Block tags.
const (
	PairTag        uint8 = 0
	ConsTag        uint8 = 0
	SomeTag        uint8 = 0
	LazyTag        uint8 = 246
	ClosureTag     uint8 = 247
	ObjectTag      uint8 = 248
	InfixTag       uint8 = 249
	ForwardTag     uint8 = 250
	NoScanTag      uint8 = 251
	AbstractTag    uint8 = 251
	StringTag      uint8 = 252
	DoubleTag      uint8 = 253
	DoubleArrayTag uint8 = 254
	CustomTag      uint8 = 255
)

// WordSize is the size of a heap word in bytes.
const WordSize = 8

// Header field layout.
const (
	tagBits   = 8
	colorBits = 2
	sizeShift = tagBits + colorBits

	// MaxWosize bounds block sizes so that byte sizes fit linear memory.
	MaxWosize = (1 << 29) - 1
)

// Immediate constants shared by several host types.
const (
	Unit      mlbridge.Word = 1
	False     mlbridge.Word = 1
	True      mlbridge.Word = 3
	EmptyList mlbridge.Word = 1
	None      mlbridge.Word = 1
)

// Host int range: immediates carry 63 bits.
const (
	MaxInt int64 = 1<<62 - 1
	MinInt int64 = -(1 << 62)
)

// Custom block field offsets.
const (
	customOpsField = 0
	int64Field     = 1

	// Int64Wosize is the size of a boxed int64 block in words.
	Int64Wosize = 2

	bigarrayDataField  = 1
	bigarrayDimsField  = 2
	bigarrayFlagsField = 3
	bigarrayProxyField = 4
	bigarrayDim0Field  = 5

	// BigarrayWosize is the size of a bigarray custom block in words.
	BigarrayWosize = 6

	// BigarrayUint8C is the kind/layout flag word for a C-layout uint8 bigarray.
	BigarrayUint8C = 3
)
