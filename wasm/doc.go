// Package wasm models the subset of the WebAssembly binary format that
// forwarding guests use: function types, function imports, one linear
// memory, exports and code bodies.
//
// A Module is built in memory and rendered with Encode:
//
//	m := &wasm.Module{}
//	ti := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValI64}})
//	m.Imports = append(m.Imports, wasm.Import{Module: "env", Name: "f", Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: ti}})
//	bin := m.Encode()
//
// ParseModule reads the same subset back and Validate checks type,
// function and memory indices, including call targets in code bodies.
package wasm
