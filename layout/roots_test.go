package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRootTable_Walk(t *testing.T) {
	mem := newMockMemory(1024)
	const head = 8

	outer := OpenRootTable(mem, 64)
	outer.Init(0)
	WriteHead(mem, head, outer.Addr)
	outer.SetItems(2)

	inner := OpenRootTable(mem, 64+RootTableSize(4))
	inner.Init(outer.Addr)
	WriteHead(mem, head, inner.Addr)
	inner.SetItems(1)

	if ReadHead(mem, head) != inner.Addr {
		t.Fatalf("head = %d, want %d", ReadHead(mem, head), inner.Addr)
	}
	if inner.Next() != outer.Addr {
		t.Errorf("inner.Next = %d, want %d", inner.Next(), outer.Addr)
	}

	var slots []uint32
	WalkRoots(mem, head, func(slot uint32) {
		slots = append(slots, slot)
	})

	want := []uint32{inner.Slot(0), outer.Slot(0), outer.Slot(1)}
	if diff := cmp.Diff(want, slots); diff != "" {
		t.Errorf("walked slots mismatch (-want +got):\n%s", diff)
	}
}

func TestRootTable_Layout(t *testing.T) {
	if got := RootTableSize(8); got != 128 {
		t.Errorf("RootTableSize(8) = %d, want 128", got)
	}

	mem := newMockMemory(256)
	table := OpenRootTable(mem, 32)
	table.Init(0)
	if table.Locals() != 96 {
		t.Errorf("Locals = %d, want 96", table.Locals())
	}
	if table.Slot(2) != 112 {
		t.Errorf("Slot(2) = %d, want 112", table.Slot(2))
	}
	if table.Items() != 0 || table.Next() != 0 {
		t.Errorf("fresh table: items=%d next=%d", table.Items(), table.Next())
	}
}

func TestWalkRoots_Empty(t *testing.T) {
	mem := newMockMemory(64)
	called := false
	WalkRoots(mem, 8, func(uint32) { called = true })
	if called {
		t.Error("empty chain yielded a slot")
	}
}
