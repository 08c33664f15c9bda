package layout

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/errors"
)

// mockMemory implements mlbridge.Memory with bounds checks for testing
type mockMemory struct {
	data []byte
}

func newMockMemory(size int) *mockMemory {
	return &mockMemory{data: make([]byte, size)}
}

func (m *mockMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return fmt.Errorf("out of bounds: offset=%d, length=%d", offset, length)
	}
	return nil
}

func (m *mockMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length], nil
}

func (m *mockMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *mockMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *mockMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *mockMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *mockMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}

// placeBlock writes a header at addr-8 and returns the block word.
func placeBlock(mem *mockMemory, addr uint32, wosize uint64, tag uint8) mlbridge.Word {
	binary.LittleEndian.PutUint64(mem.data[addr-WordSize:], MakeHeader(wosize, 0, tag))
	return BlockWord(addr)
}

func expectFatal(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected %s violation, got none", kind)
		}
		err, ok := errors.AsFatal(r)
		if !ok {
			t.Fatalf("panic value %v is not a contract violation", r)
		}
		if err.Kind != kind {
			t.Fatalf("violation kind = %s, want %s (%v)", err.Kind, kind, err)
		}
	}()
	fn()
}
