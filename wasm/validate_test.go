package wasm_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/wippyai/mlbridge/wasm"
)

func bytesReader(b []byte) io.ByteReader {
	return bytes.NewReader(b)
}

func forwarder() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FuncType{{Params: i64s(1), Results: i64s(1)}},
		Imports: []wasm.Import{
			{Module: "m", Name: "f", Desc: wasm.ImportDesc{Kind: wasm.KindFunc}},
		},
		Funcs:    []uint32{0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Exports: []wasm.Export{
			{Name: "memory", Kind: wasm.KindMemory},
			{Name: "f", Kind: wasm.KindFunc, Idx: 1},
		},
		Code: []wasm.FuncBody{{Code: wasm.EncodeInstructions([]wasm.Instruction{wasm.LocalGet(0), wasm.Call(0), wasm.End()})}},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := forwarder().Validate(); err != nil {
		t.Errorf("valid module failed validation: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tooMany := uint64(wasm.MemoryMaxPages32 + 1)
	tests := []struct {
		name   string
		mutate func(m *wasm.Module)
		want   string
	}{
		{"func type index", func(m *wasm.Module) { m.Funcs[0] = 5 }, "invalid type index"},
		{"import type index", func(m *wasm.Module) { m.Imports[0].Desc.TypeIdx = 2 }, "invalid type index"},
		{"missing body", func(m *wasm.Module) { m.Code = nil }, "code section"},
		{"export function", func(m *wasm.Module) { m.Exports[1].Idx = 2 }, "invalid function index"},
		{"export memory", func(m *wasm.Module) { m.Exports[0].Idx = 1 }, "invalid memory index"},
		{"duplicate export", func(m *wasm.Module) { m.Exports[1].Name = "memory"; m.Exports[1].Kind = wasm.KindFunc }, "duplicate export"},
		{"memory max", func(m *wasm.Module) { m.Memories[0].Limits.Max = &tooMany }, "exceeds maximum"},
		{"two memories", func(m *wasm.Module) { m.Memories = append(m.Memories, wasm.MemoryType{}) }, "2 memories"},
		{"call target", func(m *wasm.Module) {
			m.Code[0].Code = wasm.EncodeInstructions([]wasm.Instruction{wasm.LocalGet(0), wasm.Call(7), wasm.End()})
		}, "invalid function index 7"},
		{"local index", func(m *wasm.Module) {
			m.Code[0].Code = wasm.EncodeInstructions([]wasm.Instruction{wasm.LocalGet(1), wasm.Call(0), wasm.End()})
		}, "local index 1"},
		{"missing end", func(m *wasm.Module) {
			m.Code[0].Code = wasm.EncodeInstructions([]wasm.Instruction{wasm.LocalGet(0), wasm.Call(0)})
		}, "does not end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := forwarder()
			tt.mutate(m)
			err := m.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}
