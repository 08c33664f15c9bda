package layout

import (
	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
)

// Root table field offsets.
const (
	rootNextOffset    = 0
	rootNTablesOffset = 8
	rootNItemsOffset  = 16
	rootTablesOffset  = 24
	rootTablesCount   = 5
	rootLocalsOffset  = rootTablesOffset + rootTablesCount*WordSize
)

// RootTableSize returns the bytes a root table with capacity locals occupies.
func RootTableSize(capacity int) uint32 {
	return rootLocalsOffset + uint32(capacity)*WordSize
}

// RootTable is a local roots block in linear memory.
type RootTable struct {
	r    Reader
	Addr uint32
}

// OpenRootTable views the table at addr.
func OpenRootTable(mem mlbridge.Memory, addr uint32) RootTable {
	return RootTable{r: NewReader(mem), Addr: addr}
}

// Init writes an empty table linked to next whose single locals array
// follows the block.
func (t RootTable) Init(next uint32) {
	t.r.store(t.Addr+rootNextOffset, uint64(next))
	t.r.store(t.Addr+rootNTablesOffset, 1)
	t.r.store(t.Addr+rootNItemsOffset, 0)
	t.r.store(t.Addr+rootTablesOffset, uint64(t.Locals()))
	for i := uint32(1); i < rootTablesCount; i++ {
		t.r.store(t.Addr+rootTablesOffset+i*WordSize, 0)
	}
}

// Next returns the address of the previous table in the chain.
func (t RootTable) Next() uint32 {
	return uint32(t.r.load(t.Addr + rootNextOffset))
}

// Items returns the number of occupied slots.
func (t RootTable) Items() uint64 {
	return t.r.load(t.Addr + rootNItemsOffset)
}

// SetItems stores the number of occupied slots.
func (t RootTable) SetItems(n uint64) {
	t.r.store(t.Addr+rootNItemsOffset, n)
}

// Locals returns the address of the locals array.
func (t RootTable) Locals() uint32 {
	return t.Addr + rootLocalsOffset
}

// Slot returns the address of local i.
func (t RootTable) Slot(i uint64) uint32 {
	return t.Locals() + uint32(i)*WordSize
}

// ReadHead reads the chain head cell.
func ReadHead(mem mlbridge.Memory, head uint32) uint32 {
	return uint32(NewReader(mem).load(head))
}

// WriteHead stores the chain head cell.
func WriteHead(mem mlbridge.Memory, head, table uint32) {
	NewReader(mem).store(head, uint64(table))
}

// maxChainLength guards WalkRoots against a corrupted, cyclic chain.
const maxChainLength = 1 << 16

// WalkRoots calls fn with the address of every occupied local root slot,
// newest table first.
func WalkRoots(mem mlbridge.Memory, head uint32, fn func(slot uint32)) {
	r := NewReader(mem)
	table := uint32(r.load(head))
	for depth := 0; table != 0; depth++ {
		if depth >= maxChainLength {
			fail(errors.InvalidData(errors.PhaseRuntime, nil, "local roots chain does not terminate"))
		}
		ntables := r.load(table + rootNTablesOffset)
		nitems := r.load(table + rootNItemsOffset)
		if ntables > rootTablesCount {
			fail(errors.InvalidData(errors.PhaseRuntime, nil, "root table declares too many tables"))
		}
		for i := uint64(0); i < ntables; i++ {
			base := uint32(r.load(table + rootTablesOffset + uint32(i)*WordSize))
			for j := uint64(0); j < nitems; j++ {
				fn(base + uint32(j)*WordSize)
			}
		}
		table = uint32(r.load(table + rootNextOffset))
	}
}
