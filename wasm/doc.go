// Package wasm encodes core WebAssembly modules.
//
// It covers the subset of the binary format fork guests are built from:
// function types over i32/i64, function imports, one linear memory, globals,
// exports, a start function, code, and active data segments. Instructions are
// described as values and encoded with EncodeInstructions:
//
//	m := &wasm.Module{}
//	t := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})
//	m.Funcs = append(m.Funcs, t)
//	m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions([]wasm.Instruction{
//	    {Opcode: wasm.OpEnd},
//	})})
//	binary := m.Encode()
package wasm
