// Package mlbridge lets Go code exchange values with a managed, relocating
// host heap that lives in linear memory.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	mlbridge/          Root package with Word, Memory and Heap contracts
//	├── errors/        Structured errors and fatal contract violations
//	├── layout/        Checked header/tag/field decoding of heap words
//	├── mltype/        Type descriptors and canonical host-type names
//	├── bridge/        Values, scopes, rooted variables, staged allocation
//	├── decl/          External declaration and WIT generation
//	├── exports/       Exported function lists: entry points + declarations
//	├── heap/          Reference host heap with a copying collector
//	├── engine/        wazero integration for guest memories
//	└── natives/       Example exported functions
//
// # Quick Start
//
//	mem := heap.NewMemory(1 << 20)
//	arena, _ := heap.NewArena(mem, heap.Config{})
//	chain := bridge.NewChain(arena, bridge.Options{})
//
//	mod := natives.New(os.Stdout)
//	out, err := mod.Call(ctx, chain, "inc", layout.EncodeInt(41))
//	// out == layout.EncodeInt(42)
//
// # Safety Model
//
// Any allocation may move every block not registered as a root. The bridge
// makes this explicit: allocation primitives consume a single-use Token and
// return a Raw result that must be marked against the active scope before
// it can be read, and every Value remembers the allocation generation it was
// confirmed live at. Reading a Value after a later allocation, reading it
// after its scope closed, or releasing roots out of order is a contract
// violation and panics with an *errors.Error.
//
// # Thread Safety
//
// A Chain and its Heap must be used by a single goroutine. Separate guest
// instances get separate heaps and chains.
package mlbridge
