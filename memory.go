package mlbridge

import "context"

// Word is a single tagged heap word: an immediate when the low bit is set,
// otherwise the address of a block's first field.
type Word uint64

// Memory represents the linear memory that holds the host heap.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// CustomKind identifies a custom-block payload layout.
type CustomKind uint8

const (
	CustomInt64 CustomKind = iota
	CustomBigarray
)

func (k CustomKind) String() string {
	switch k {
	case CustomInt64:
		return "int64"
	case CustomBigarray:
		return "bigarray"
	default:
		return "unknown"
	}
}

// RootRegion describes where local root tables live in linear memory.
// Head is the cell holding the address of the newest table (0 when empty);
// tables are stacked in [Base, Base+Size).
type RootRegion struct {
	Head uint32
	Base uint32
	Size uint32
}

// Heap is the host runtime's managed heap as seen from native code.
type Heap interface {
	// Memory returns the linear memory backing the heap.
	Memory() Memory

	// AllocBlock allocates a block of wosize words with the given tag and
	// returns its word. Fields of scannable blocks hold the unit immediate,
	// opaque payloads are zeroed. It may run a collection that
	// relocates every block not reachable from a registered root.
	AllocBlock(ctx context.Context, wosize uint32, tag uint8) (Word, error)

	// CustomOps returns the operations identifier stored in field 0 of
	// custom blocks of the given kind.
	CustomOps(kind CustomKind) Word

	// Roots returns the local root region the collector walks.
	Roots() RootRegion
}
