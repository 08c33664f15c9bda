// Package wasmgen emits small guest modules that forward exported calls to
// host functions. Every parameter and result is an i64 heap word.
package wasmgen

import (
	"sort"

	"github.com/wippyai/mlbridge/wasm"
)

// MemoryExport is the name the guest exports its memory under.
const MemoryExport = "memory"

// Import is one host function the guest forwards to.
type Import struct {
	Name  string
	Arity int
}

// Guest describes a forwarding guest module.
type Guest struct {
	// Module is the host module the imports come from.
	Module string

	// Pages is the initial memory size in 64KiB pages.
	Pages uint32

	Imports []Import
}

// Build builds the guest. For every import it defines and exports a
// function of the same name and arity that calls it. Imported functions
// take indices 0..n-1 and their forwarders n..2n-1.
func (g Guest) Build() *wasm.Module {
	m := &wasm.Module{
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: uint64(g.Pages)}}},
		Exports:  []wasm.Export{{Name: MemoryExport, Kind: wasm.KindMemory}},
	}

	typeIdx := make(map[int]uint32)
	for _, n := range g.arities() {
		typeIdx[n] = m.AddType(signature(n))
	}

	n := uint32(len(g.Imports))
	for i, imp := range g.Imports {
		ti := typeIdx[imp.Arity]
		m.Imports = append(m.Imports, wasm.Import{
			Module: g.Module,
			Name:   imp.Name,
			Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: ti},
		})
		m.Funcs = append(m.Funcs, ti)
		m.Exports = append(m.Exports, wasm.Export{Name: imp.Name, Kind: wasm.KindFunc, Idx: n + uint32(i)})
		m.Code = append(m.Code, wasm.FuncBody{Code: forward(uint32(i), imp.Arity)})
	}
	return m
}

// Encode renders the guest as a WebAssembly binary.
func (g Guest) Encode() []byte {
	return g.Build().Encode()
}

func signature(arity int) wasm.FuncType {
	params := make([]wasm.ValType, arity)
	for i := range params {
		params[i] = wasm.ValI64
	}
	return wasm.FuncType{Params: params, Results: []wasm.ValType{wasm.ValI64}}
}

// forward passes every parameter to callee and returns its result.
func forward(callee uint32, arity int) []byte {
	instrs := make([]wasm.Instruction, 0, arity+2)
	for j := 0; j < arity; j++ {
		instrs = append(instrs, wasm.LocalGet(uint32(j)))
	}
	instrs = append(instrs, wasm.Call(callee), wasm.End())
	return wasm.EncodeInstructions(instrs)
}

// arities lists the distinct arities in ascending order so type indices do
// not depend on import order.
func (g Guest) arities() []int {
	seen := make(map[int]bool)
	var out []int
	for _, imp := range g.Imports {
		if !seen[imp.Arity] {
			seen[imp.Arity] = true
			out = append(out, imp.Arity)
		}
	}
	sort.Ints(out)
	return out
}
