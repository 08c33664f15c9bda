package wasm

import "slices"

// Module is an in-memory WebAssembly module.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type indices of defined functions
	Memories []MemoryType
	Exports  []Export
	Code     []FuncBody
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType is a value type byte.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Import is an imported item. Only function and memory imports are
// modeled.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an import. TypeIdx is set for KindFunc and Memory
// for KindMemory.
type ImportDesc struct {
	Memory  *MemoryType
	TypeIdx uint32
	Kind    byte
}

// MemoryType is a linear memory type.
type MemoryType struct {
	Limits Limits
}

// Limits bounds a memory in pages. A nil Max means unbounded.
type Limits struct {
	Max *uint64
	Min uint64
}

// Export is an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody is the code of one defined function.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // instructions including the final end
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// NumImportedFuncs counts function imports. Defined functions are indexed
// after them.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			n++
		}
	}
	return n
}

// NumImportedMemories counts memory imports.
func (m *Module) NumImportedMemories() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory {
			n++
		}
	}
	return n
}

// AddType returns the index of ft, appending it if no equal type exists.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if slices.Equal(t.Params, ft.Params) && slices.Equal(t.Results, ft.Results) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// GetFuncType returns the signature of function funcIdx in the combined
// import and definition index space, or nil if it is out of range.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	var typeIdx uint32
	n := uint32(0)
	found := false
	for _, imp := range m.Imports {
		if imp.Desc.Kind != KindFunc {
			continue
		}
		if n == funcIdx {
			typeIdx, found = imp.Desc.TypeIdx, true
			break
		}
		n++
	}
	if !found {
		local := funcIdx - n
		if funcIdx < n || local >= uint32(len(m.Funcs)) {
			return nil
		}
		typeIdx = m.Funcs[local]
	}
	if typeIdx >= uint32(len(m.Types)) {
		return nil
	}
	return &m.Types[typeIdx]
}
