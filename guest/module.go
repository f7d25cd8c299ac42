package guest

import (
	"fmt"

	"github.com/wippyai/wasm-fork/wasm"
)

// ValType is a core WebAssembly value type.
type ValType = wasm.ValType

// FuncType is a function signature.
type FuncType = wasm.FuncType

const (
	I32 = wasm.ValI32
	I64 = wasm.ValI64
)

// Module is an incremental builder over wasm.Module. Imports must be declared
// before any function is defined, since imported functions occupy the low
// function indices.
type Module struct {
	mod *wasm.Module
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{mod: &wasm.Module{}}
}

// Wasm returns the module in section form.
func (m *Module) Wasm() *wasm.Module {
	return m.mod
}

// ImportFunc declares an imported function and returns its function index.
func (m *Module) ImportFunc(module, name string, ft FuncType) uint32 {
	if len(m.mod.Funcs) > 0 {
		panic(fmt.Sprintf("guest: import %s.%s declared after function definitions", module, name))
	}
	m.mod.Imports = append(m.mod.Imports, wasm.Import{Module: module, Name: name, TypeIdx: m.mod.AddType(ft)})
	return uint32(m.mod.NumImportedFuncs() - 1)
}

// Func defines a function and returns its function index. The closing end is
// appended to body.
func (m *Module) Func(ft FuncType, locals []ValType, body *Code) uint32 {
	m.mod.Funcs = append(m.mod.Funcs, m.mod.AddType(ft))
	m.mod.Code = append(m.mod.Code, wasm.FuncBody{
		Locals: wasm.CompressLocals(locals),
		Code:   body.encode(true),
	})
	return uint32(m.mod.NumImportedFuncs() + len(m.mod.Funcs) - 1)
}

// Memory declares the single linear memory with minPages initial pages.
// An empty exportName keeps the memory private.
func (m *Module) Memory(minPages uint32, exportName string) {
	m.mod.Memories = []wasm.MemoryType{{Limits: wasm.Limits{Min: minPages}}}
	if exportName != "" {
		m.mod.Exports = append(m.mod.Exports, wasm.Export{Name: exportName, Kind: wasm.KindMemory})
	}
}

// Global declares a global and returns its index.
func (m *Module) Global(t ValType, mutable bool, init int64) uint32 {
	expr := wasm.ConstI32Expr(int32(init))
	if t == I64 {
		expr = wasm.ConstI64Expr(init)
	}
	m.mod.Globals = append(m.mod.Globals, wasm.Global{
		Type: wasm.GlobalType{ValType: t, Mutable: mutable},
		Init: expr,
	})
	return uint32(len(m.mod.Globals) - 1)
}

// ExportFunc exports a function under name.
func (m *Module) ExportFunc(name string, funcIdx uint32) {
	m.mod.Exports = append(m.mod.Exports, wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: funcIdx})
}

// ExportGlobal exports a global under name.
func (m *Module) ExportGlobal(name string, globalIdx uint32) {
	m.mod.Exports = append(m.mod.Exports, wasm.Export{Name: name, Kind: wasm.KindGlobal, Idx: globalIdx})
}

// Data places init at offset in memory 0 on instantiation.
func (m *Module) Data(offset uint32, init []byte) {
	m.mod.Data = append(m.mod.Data, wasm.DataSegment{
		Offset: wasm.ConstI32Expr(int32(offset)),
		Init:   init,
	})
}

// Start sets the start function, run during instantiation.
func (m *Module) Start(funcIdx uint32) {
	m.mod.Start = &funcIdx
}

// Encode returns the binary module.
func (m *Module) Encode() []byte {
	return m.mod.Encode()
}
