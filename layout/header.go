package layout

// Header is a decoded block header.
type Header struct {
	Wosize uint64
	Color  uint8
	Tag    uint8
}

// DecodeHeader splits a raw header word.
func DecodeHeader(hd uint64) Header {
	return Header{
		Wosize: hd >> sizeShift,
		Color:  uint8(hd>>tagBits) & (1<<colorBits - 1),
		Tag:    uint8(hd),
	}
}

// MakeHeader builds a raw header word.
func MakeHeader(wosize uint64, color, tag uint8) uint64 {
	return wosize<<sizeShift | uint64(color&(1<<colorBits-1))<<tagBits | uint64(tag)
}

// Encode returns the raw header word.
func (h Header) Encode() uint64 {
	return MakeHeader(h.Wosize, h.Color, h.Tag)
}

// Scannable reports whether the block holds only words.
func (h Header) Scannable() bool {
	return h.Tag < NoScanTag
}

// ByteSize returns the payload size in bytes.
func (h Header) ByteSize() uint64 {
	return h.Wosize * WordSize
}

// StringWosize returns the number of words a string of n bytes occupies,
// including its padding byte.
func StringWosize(n uint64) uint64 {
	return (n + WordSize) / WordSize
}

// StringPadding returns the final padding byte for a string of n bytes.
func StringPadding(n uint64) byte {
	return byte(StringWosize(n)*WordSize - 1 - n)
}
