package wasm

import (
	"bytes"
	"fmt"
)

// Instruction is one decoded instruction. Imm is nil, LocalImm or CallImm.
type Instruction struct {
	Imm    any
	Opcode byte
}

// LocalImm is the immediate of local.get.
type LocalImm struct {
	LocalIdx uint32
}

// CallImm is the immediate of call.
type CallImm struct {
	FuncIdx uint32
}

// LocalGet returns a local.get instruction.
func LocalGet(idx uint32) Instruction {
	return Instruction{Opcode: OpLocalGet, Imm: LocalImm{LocalIdx: idx}}
}

// Call returns a call instruction.
func Call(funcIdx uint32) Instruction {
	return Instruction{Opcode: OpCall, Imm: CallImm{FuncIdx: funcIdx}}
}

// End returns the end instruction.
func End() Instruction {
	return Instruction{Opcode: OpEnd}
}

// GetCallTarget reports the callee of a call instruction.
func (i Instruction) GetCallTarget() (uint32, bool) {
	if i.Opcode == OpCall {
		if imm, ok := i.Imm.(CallImm); ok {
			return imm.FuncIdx, true
		}
	}
	return 0, false
}

// DecodeInstructions decodes code. Opcodes outside local.get, call and
// end are rejected.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := bytes.NewReader(code)
	var instrs []Instruction
	for r.Len() > 0 {
		op, _ := r.ReadByte()
		instr := Instruction{Opcode: op}
		switch op {
		case OpLocalGet:
			idx, err := ReadLEB128u(r)
			if err != nil {
				return nil, err
			}
			instr.Imm = LocalImm{LocalIdx: idx}
		case OpCall:
			idx, err := ReadLEB128u(r)
			if err != nil {
				return nil, err
			}
			instr.Imm = CallImm{FuncIdx: idx}
		case OpEnd:
		default:
			return nil, fmt.Errorf("unsupported opcode 0x%02x at offset %d", op, len(code)-r.Len()-1)
		}
		instrs = append(instrs, instr)
	}
	return instrs, nil
}

// EncodeInstructionTo appends instr to buf.
func EncodeInstructionTo(buf *bytes.Buffer, instr *Instruction) {
	buf.WriteByte(instr.Opcode)
	switch instr.Opcode {
	case OpLocalGet:
		WriteLEB128u(buf, instr.Imm.(LocalImm).LocalIdx)
	case OpCall:
		WriteLEB128u(buf, instr.Imm.(CallImm).FuncIdx)
	}
}

// EncodeInstructions encodes instrs in order.
func EncodeInstructions(instrs []Instruction) []byte {
	var buf bytes.Buffer
	buf.Grow(len(instrs) * 2)
	for i := range instrs {
		EncodeInstructionTo(&buf, &instrs[i])
	}
	return buf.Bytes()
}
