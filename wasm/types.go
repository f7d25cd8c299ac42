package wasm

// Module is a core WebAssembly module in section form.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type index of each defined function
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Code     []FuncBody
	Data     []DataSegment
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType is a value type encoding; see ValI32 and ValI64.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	default:
		return "unknown"
	}
}

// Import is an imported function. Only function imports are supported.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// MemoryType describes a linear memory.
type MemoryType struct {
	Limits Limits
}

// Limits bounds a memory in 64KiB pages.
type Limits struct {
	Max *uint32
	Min uint32
}

// GlobalType is a global's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a global with its constant init expression, end opcode included.
type Global struct {
	Type GlobalType
	Init []byte
}

// Export names a function, memory or global.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody is a function's locals and code, end opcode included.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry is a run of locals sharing one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// DataSegment is an active segment for memory 0.
type DataSegment struct {
	Offset []byte // constant init expression, end opcode included
	Init   []byte
}

// NumImportedFuncs returns the number of imported functions. Defined
// functions are indexed after them.
func (m *Module) NumImportedFuncs() int {
	return len(m.Imports)
}

// AddType returns the index of ft, appending it when not already present.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if typesEqual(t, ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// GetFuncType returns the type of the function at funcIdx, or nil.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	var typeIdx uint32
	switch n := uint32(m.NumImportedFuncs()); {
	case funcIdx < n:
		typeIdx = m.Imports[funcIdx].TypeIdx
	case int(funcIdx-n) < len(m.Funcs):
		typeIdx = m.Funcs[funcIdx-n]
	default:
		return nil
	}
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}

// CompressLocals groups consecutive locals of the same type.
func CompressLocals(locals []ValType) []LocalEntry {
	var out []LocalEntry
	for _, l := range locals {
		if n := len(out); n > 0 && out[n-1].ValType == l {
			out[n-1].Count++
			continue
		}
		out = append(out, LocalEntry{Count: 1, ValType: l})
	}
	return out
}

func typesEqual(a, b FuncType) bool {
	return valTypesEqual(a.Params, b.Params) && valTypesEqual(a.Results, b.Results)
}

func valTypesEqual(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
