package guest

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-fork/abi"
)

func TestCode_Bytes(t *testing.T) {
	got := NewCode().LocalGet(1).DescLen().I32Const(-1).Call(3).MemoryCopy().Bytes()
	want := []byte{0x20, 0x01, 0xA7, 0x41, 0x7F, 0x10, 0x03, 0xFC, 0x0A, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestModule_FuncAppendsEnd(t *testing.T) {
	m := NewModule()
	body := NewCode().Nop()
	m.Func(FuncType{}, []ValType{I32, I32, I64}, body)

	fb := m.Wasm().Code[0]
	if want := []byte{0x01, 0x0B}; !bytes.Equal(fb.Code, want) {
		t.Errorf("code = % x, want % x", fb.Code, want)
	}
	if len(fb.Locals) != 2 || fb.Locals[0].Count != 2 || fb.Locals[1].ValType != I64 {
		t.Errorf("locals = %+v", fb.Locals)
	}
	if len(body.Instructions()) != 1 {
		t.Error("Func mutated the body")
	}
}

func TestModule_ImportAfterFuncPanics(t *testing.T) {
	m := NewModule()
	m.Func(FuncType{}, nil, NewCode())

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	m.ImportFunc("env", "late", FuncType{})
}

func TestModule_TypeDedup(t *testing.T) {
	m := NewModule()
	m.ImportFunc("env", "a", FuncType{Params: []ValType{I32}})
	m.ImportFunc("env", "b", FuncType{Params: []ValType{I32}})
	m.Func(FuncType{Params: []ValType{I64}}, nil, NewCode())
	if len(m.Wasm().Types) != 2 {
		t.Fatalf("expected 2 distinct types, got %d", len(m.Wasm().Types))
	}
}

func TestSample_Compiles(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	wasm := Sample()
	if !bytes.HasPrefix(wasm, []byte{0x00, 0x61, 0x73, 0x6D}) {
		t.Fatal("missing wasm magic")
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}

	exports := compiled.ExportedFunctions()
	for _, name := range []string{abi.ExportRun, abi.ExportInvoke, abi.ExportAllocate} {
		if exports[name] == nil {
			t.Errorf("missing export %q", name)
		}
	}
	if compiled.ExportedMemories()[abi.ExportMemory] == nil {
		t.Error("memory not exported")
	}

	invoke := exports[abi.ExportInvoke]
	if got := abi.FormatTypes(invoke.ParamTypes(), invoke.ResultTypes()); got != "(i32,i64)->(i64)" {
		t.Errorf("invoke signature = %s", got)
	}

	imports := compiled.ImportedFunctions()
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(imports))
	}
	for _, imp := range imports {
		ns, _, _ := imp.Import()
		if ns != abi.Namespace {
			t.Errorf("import namespace = %q", ns)
		}
	}
}

func TestProgram_Allocate(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	// No host imports needed: a module with only memory and allocate.
	m := NewModule()
	m.Memory(1, abi.ExportMemory)
	heap := m.Global(I32, true, HeapBase)
	alloc := m.Func(typeAllocate, nil, NewCode().
		GlobalGet(heap).GlobalGet(heap).LocalGet(0).I32Add().GlobalSet(heap))
	m.ExportFunc(abi.ExportAllocate, alloc)

	mod, err := rt.Instantiate(ctx, m.Encode())
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	fn := mod.ExportedFunction(abi.ExportAllocate)
	first, err := fn.Call(ctx, api.EncodeU32(10))
	if err != nil {
		t.Fatal(err)
	}
	second, err := fn.Call(ctx, api.EncodeU32(4))
	if err != nil {
		t.Fatal(err)
	}
	if api.DecodeU32(first[0]) != HeapBase {
		t.Errorf("first = %d, want %d", api.DecodeU32(first[0]), HeapBase)
	}
	if api.DecodeU32(second[0]) != HeapBase+10 {
		t.Errorf("second = %d, want %d", api.DecodeU32(second[0]), HeapBase+10)
	}
}
