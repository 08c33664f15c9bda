package wasm

import "fmt"

// Validate checks index references across sections and the local and call
// targets of every code body.
func (m *Module) Validate() error {
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if err := m.validateCodeCount(); err != nil {
		return err
	}
	if err := m.validateMemoryLimits(); err != nil {
		return err
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	return m.validateBodies()
}

// ParseModuleValidate parses data and validates the result.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))
	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return fmt.Errorf("function %d references invalid type index %d", i, typeIdx)
		}
	}
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Desc.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.TypeIdx)
		}
	}
	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Code) != len(m.Funcs) {
		return fmt.Errorf("code section has %d entries but function section has %d", len(m.Code), len(m.Funcs))
	}
	return nil
}

func (m *Module) validateMemoryLimits() error {
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory {
			if imp.Desc.Memory == nil {
				return fmt.Errorf("imported memory %d has no type", i)
			}
			if err := validateLimits(imp.Desc.Memory.Limits, "imported memory", i); err != nil {
				return err
			}
		}
	}
	for i, mem := range m.Memories {
		if err := validateLimits(mem.Limits, "memory", i); err != nil {
			return err
		}
	}
	if n := m.NumImportedMemories() + len(m.Memories); n > 1 {
		return fmt.Errorf("module declares %d memories", n)
	}
	return nil
}

func validateLimits(l Limits, prefix string, idx int) error {
	if l.Min > MemoryMaxPages32 {
		return fmt.Errorf("%s %d: min pages %d exceeds maximum %d", prefix, idx, l.Min, MemoryMaxPages32)
	}
	if l.Max != nil && *l.Max > MemoryMaxPages32 {
		return fmt.Errorf("%s %d: max pages %d exceeds maximum %d", prefix, idx, *l.Max, MemoryMaxPages32)
	}
	if l.Max != nil && l.Min > *l.Max {
		return fmt.Errorf("%s %d: min pages %d exceeds max %d", prefix, idx, l.Min, *l.Max)
	}
	return nil
}

func (m *Module) validateExports() error {
	numFuncs := uint32(m.NumImportedFuncs() + len(m.Funcs))
	numMems := uint32(m.NumImportedMemories() + len(m.Memories))
	seen := make(map[string]bool, len(m.Exports))
	for _, exp := range m.Exports {
		if seen[exp.Name] {
			return fmt.Errorf("duplicate export %q", exp.Name)
		}
		seen[exp.Name] = true
		switch exp.Kind {
		case KindFunc:
			if exp.Idx >= numFuncs {
				return fmt.Errorf("export %q references invalid function index %d", exp.Name, exp.Idx)
			}
		case KindMemory:
			if exp.Idx >= numMems {
				return fmt.Errorf("export %q references invalid memory index %d", exp.Name, exp.Idx)
			}
		default:
			return fmt.Errorf("export %q has unsupported kind %d", exp.Name, exp.Kind)
		}
	}
	return nil
}

// validateBodies checks that local.get stays within the function's
// parameters and locals, that call targets exist, and that each body ends
// with end.
func (m *Module) validateBodies() error {
	base := uint32(m.NumImportedFuncs())
	for i, body := range m.Code {
		ft := m.GetFuncType(base + uint32(i))
		numLocals := uint32(len(ft.Params))
		for _, l := range body.Locals {
			numLocals += l.Count
		}
		instrs, err := DecodeInstructions(body.Code)
		if err != nil {
			return fmt.Errorf("function %d: %w", base+uint32(i), err)
		}
		if len(instrs) == 0 || instrs[len(instrs)-1].Opcode != OpEnd {
			return fmt.Errorf("function %d: body does not end with end", base+uint32(i))
		}
		for _, in := range instrs {
			if target, ok := in.GetCallTarget(); ok && m.GetFuncType(target) == nil {
				return fmt.Errorf("function %d: call to invalid function index %d", base+uint32(i), target)
			}
			if imm, ok := in.Imm.(LocalImm); ok && imm.LocalIdx >= numLocals {
				return fmt.Errorf("function %d: local index %d out of range", base+uint32(i), imm.LocalIdx)
			}
		}
	}
	return nil
}
