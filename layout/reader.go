package layout

import (
	"math"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
)

// Reader performs checked reads and writes of heap blocks in linear memory.
type Reader struct {
	mem mlbridge.Memory
}

// NewReader creates a Reader over mem.
func NewReader(mem mlbridge.Memory) Reader {
	return Reader{mem: mem}
}

// Memory returns the underlying linear memory.
func (r Reader) Memory() mlbridge.Memory {
	return r.mem
}

// Header decodes the header of block w.
func (r Reader) Header(w mlbridge.Word) Header {
	return DecodeHeader(r.load(Addr(w) - WordSize))
}

// Wosize returns the size of block w in words.
func (r Reader) Wosize(w mlbridge.Word) uint64 {
	return r.Header(w).Wosize
}

// Tag returns the tag of block w.
func (r Reader) Tag(w mlbridge.Word) uint8 {
	return r.Header(w).Tag
}

// WriteHeader stores a header for a block whose first field is at addr.
func (r Reader) WriteHeader(addr uint32, h Header) {
	r.store(addr-WordSize, h.Encode())
}

// Field reads field i of a scannable block.
func (r Reader) Field(w mlbridge.Word, i uint64) mlbridge.Word {
	r.checkField(w, i)
	return mlbridge.Word(r.load(Addr(w) + uint32(i)*WordSize))
}

// SetField writes field i of a scannable block.
func (r Reader) SetField(w mlbridge.Word, i uint64, v mlbridge.Word) {
	r.checkField(w, i)
	r.store(Addr(w)+uint32(i)*WordSize, uint64(v))
}

func (r Reader) checkField(w mlbridge.Word, i uint64) {
	h := r.Header(w)
	if !h.Scannable() {
		fail(errors.New(errors.PhaseDecode, errors.KindTagMismatch).
			Value(h.Tag).
			Detail("field access on opaque block (tag %d >= %d)", h.Tag, NoScanTag).
			Build())
	}
	if i >= h.Wosize {
		fail(errors.OutOfBounds(errors.PhaseDecode, nil, int(i), int(h.Wosize)))
	}
}

// ExpectTag asserts that block w carries tag and returns its header.
func (r Reader) ExpectTag(w mlbridge.Word, tag uint8) Header {
	h := r.Header(w)
	if h.Tag != tag {
		fail(errors.TagMismatch(errors.PhaseDecode, nil, h.Tag, tag))
	}
	return h
}

// StringLength returns the declared byte length of a string block.
func (r Reader) StringLength(w mlbridge.Word) uint64 {
	h := r.ExpectTag(w, StringTag)
	if h.Wosize == 0 {
		fail(errors.InvalidData(errors.PhaseDecode, nil, "string block without padding word"))
	}
	size := h.ByteSize()
	pad, err := r.mem.ReadU8(Addr(w) + uint32(size) - 1)
	if err != nil {
		fail(errors.MemoryFault(errors.PhaseDecode, err))
	}
	if uint64(pad) >= size {
		fail(errors.InvalidData(errors.PhaseDecode, nil, "string padding exceeds block size"))
	}
	return size - 1 - uint64(pad)
}

// StringBytes copies the contents of a string block.
func (r Reader) StringBytes(w mlbridge.Word) []byte {
	n := r.StringLength(w)
	data, err := r.mem.Read(Addr(w), uint32(n))
	if err != nil {
		fail(errors.MemoryFault(errors.PhaseDecode, err))
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// InitString zero-fills a freshly allocated string block and writes its
// padding byte so that its declared length is n.
func (r Reader) InitString(w mlbridge.Word, n uint64) {
	h := r.ExpectTag(w, StringTag)
	if StringWosize(n) != h.Wosize {
		fail(errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Detail("string of %d bytes needs %d words, block has %d", n, StringWosize(n), h.Wosize).
			Build())
	}
	size := h.ByteSize()
	buf := make([]byte, size)
	buf[size-1] = StringPadding(n)
	r.write(Addr(w), buf)
}

// WriteStringBytes copies data into a string block, checking its declared length first.
func (r Reader) WriteStringBytes(w mlbridge.Word, data []byte) {
	n := r.StringLength(w)
	if uint64(len(data)) > n {
		fail(errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Detail("copy of %d bytes into string of length %d", len(data), n).
			Build())
	}
	r.write(Addr(w), data)
}

// CustomOps returns the operations identifier of a custom block.
func (r Reader) CustomOps(w mlbridge.Word) mlbridge.Word {
	r.ExpectTag(w, CustomTag)
	return mlbridge.Word(r.load(Addr(w) + customOpsField*WordSize))
}

func (r Reader) expectCustom(w mlbridge.Word, ops mlbridge.Word, wosize uint64, kind mlbridge.CustomKind) {
	h := r.ExpectTag(w, CustomTag)
	if got := r.CustomOps(w); got != ops {
		fail(errors.New(errors.PhaseDecode, errors.KindTagMismatch).
			HostType(kind.String()).
			Detail("custom ops %#x, want %#x", uint64(got), uint64(ops)).
			Build())
	}
	if h.Wosize < wosize {
		fail(errors.OutOfBounds(errors.PhaseDecode, nil, int(wosize-1), int(h.Wosize)))
	}
}

// Int64 reads the payload of a boxed int64 custom block.
func (r Reader) Int64(w mlbridge.Word, ops mlbridge.Word) int64 {
	r.expectCustom(w, ops, Int64Wosize, mlbridge.CustomInt64)
	return int64(r.load(Addr(w) + int64Field*WordSize))
}

// InitInt64 fills a freshly allocated custom block as a boxed int64.
func (r Reader) InitInt64(w mlbridge.Word, ops mlbridge.Word, n int64) {
	h := r.ExpectTag(w, CustomTag)
	if h.Wosize != Int64Wosize {
		fail(errors.OutOfBounds(errors.PhaseAlloc, nil, Int64Wosize, int(h.Wosize)))
	}
	r.store(Addr(w)+customOpsField*WordSize, uint64(ops))
	r.store(Addr(w)+int64Field*WordSize, uint64(n))
}

// Float reads a boxed float.
func (r Reader) Float(w mlbridge.Word) float64 {
	r.ExpectTag(w, DoubleTag)
	return math.Float64frombits(r.load(Addr(w)))
}

// InitFloat fills a freshly allocated boxed float.
func (r Reader) InitFloat(w mlbridge.Word, f float64) {
	h := r.ExpectTag(w, DoubleTag)
	if h.Wosize != 1 {
		fail(errors.OutOfBounds(errors.PhaseAlloc, nil, 1, int(h.Wosize)))
	}
	r.store(Addr(w), math.Float64bits(f))
}

// Bigarray reads the data address and byte length of a one-dimensional
// uint8 bigarray. The length is the declared dim[0].
func (r Reader) Bigarray(w mlbridge.Word, ops mlbridge.Word) (data uint32, length uint32) {
	r.expectCustom(w, ops, BigarrayWosize, mlbridge.CustomBigarray)
	base := Addr(w)
	if dims := r.load(base + bigarrayDimsField*WordSize); dims != 1 {
		fail(errors.InvalidData(errors.PhaseDecode, nil, "bigarray must have one dimension"))
	}
	d := r.load(base + bigarrayDataField*WordSize)
	n := r.load(base + bigarrayDim0Field*WordSize)
	if d+n > uint64(^uint32(0)) {
		fail(errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Detail("bigarray [%#x, +%d) outside linear memory", d, n).
			Build())
	}
	return uint32(d), uint32(n)
}

// InitBigarray fills a freshly allocated custom block as a bigarray that
// wraps length bytes at data.
func (r Reader) InitBigarray(w mlbridge.Word, ops mlbridge.Word, data, length uint32) {
	h := r.ExpectTag(w, CustomTag)
	if h.Wosize != BigarrayWosize {
		fail(errors.OutOfBounds(errors.PhaseAlloc, nil, BigarrayWosize, int(h.Wosize)))
	}
	base := Addr(w)
	r.store(base+customOpsField*WordSize, uint64(ops))
	r.store(base+bigarrayDataField*WordSize, uint64(data))
	r.store(base+bigarrayDimsField*WordSize, 1)
	r.store(base+bigarrayFlagsField*WordSize, BigarrayUint8C)
	r.store(base+bigarrayProxyField*WordSize, 0)
	r.store(base+bigarrayDim0Field*WordSize, uint64(length))
}

// Bytes reads length bytes at addr without interpreting them.
func (r Reader) Bytes(addr, length uint32) []byte {
	data, err := r.mem.Read(addr, length)
	if err != nil {
		fail(errors.MemoryFault(errors.PhaseDecode, err))
	}
	return data
}

// CopyBlock copies a whole block (header included) from src to the block
// address dst, used by host collectors when relocating.
func (r Reader) CopyBlock(dst uint32, src mlbridge.Word) {
	h := r.Header(src)
	size := uint32(h.ByteSize()) + WordSize
	data, err := r.mem.Read(Addr(src)-WordSize, size)
	if err != nil {
		fail(errors.MemoryFault(errors.PhaseRuntime, err))
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	r.write(dst-WordSize, buf)
}

// LoadWord reads the word stored at addr.
func (r Reader) LoadWord(addr uint32) mlbridge.Word {
	return mlbridge.Word(r.load(addr))
}

// StoreWord writes a word at addr.
func (r Reader) StoreWord(addr uint32, v mlbridge.Word) {
	r.store(addr, uint64(v))
}

func (r Reader) load(addr uint32) uint64 {
	v, err := r.mem.ReadU64(addr)
	if err != nil {
		fail(errors.MemoryFault(errors.PhaseDecode, err))
	}
	return v
}

func (r Reader) store(addr uint32, v uint64) {
	if err := r.mem.WriteU64(addr, v); err != nil {
		fail(errors.MemoryFault(errors.PhaseEncode, err))
	}
}

func (r Reader) write(addr uint32, data []byte) {
	if err := r.mem.Write(addr, data); err != nil {
		fail(errors.MemoryFault(errors.PhaseEncode, err))
	}
}
