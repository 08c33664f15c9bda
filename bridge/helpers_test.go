package bridge

import (
	"context"
	"testing"

	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
)

func newTestChain(t *testing.T, cfg heap.Config, opts Options) (*Chain, *heap.Arena) {
	t.Helper()
	arena, err := heap.NewArena(heap.NewMemory(1<<16), cfg)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	return NewChain(arena, opts), arena
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

var ctx = context.Background()
