package layout

import (
	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
)

// IsBlock reports whether w points to a block.
func IsBlock(w mlbridge.Word) bool {
	return w&1 == 0
}

// IsImmediate reports whether w carries an immediate payload.
func IsImmediate(w mlbridge.Word) bool {
	return w&1 == 1
}

// EncodeInt encodes n as an immediate. Bit 63 of n is lost.
func EncodeInt(n int64) mlbridge.Word {
	return mlbridge.Word(uint64(n)<<1 | 1)
}

// DecodeInt decodes an immediate with an arithmetic shift.
func DecodeInt(w mlbridge.Word) int64 {
	if !IsImmediate(w) {
		fail(errors.New(errors.PhaseDecode, errors.KindNotImmediate).
			Value(uint64(w)).
			Detail("word %#x is a block", uint64(w)).
			Build())
	}
	return int64(w) >> 1
}

// EncodeChar encodes a byte as an immediate.
func EncodeChar(c byte) mlbridge.Word {
	return EncodeInt(int64(c))
}

// DecodeChar decodes an immediate and keeps its low byte.
func DecodeChar(w mlbridge.Word) byte {
	return byte(DecodeInt(w))
}

// EncodeBool encodes b as the immediate 0 or 1.
func EncodeBool(b bool) mlbridge.Word {
	if b {
		return True
	}
	return False
}

// Addr returns the linear-memory address of a block's first field.
func Addr(w mlbridge.Word) uint32 {
	if !IsBlock(w) {
		fail(errors.New(errors.PhaseDecode, errors.KindNotBlock).
			Value(uint64(w)).
			Detail("word %#x is an immediate", uint64(w)).
			Build())
	}
	if w < WordSize || uint64(w) > uint64(^uint32(0)) {
		fail(errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Value(uint64(w)).
			Detail("block address %#x outside linear memory", uint64(w)).
			Build())
	}
	return uint32(w)
}

// BlockWord returns the word of the block whose first field is at addr.
func BlockWord(addr uint32) mlbridge.Word {
	return mlbridge.Word(addr)
}
