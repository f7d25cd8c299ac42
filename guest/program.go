package guest

import (
	"github.com/wippyai/wasm-fork/abi"
)

// HeapBase is where the bump allocator of a Program starts handing out memory.
// Addresses below it are reserved for static data.
const HeapBase = 4096

// Program is a Module pre-wired for the fork ABI: host imports, an exported
// memory, and an exported bump allocator.
type Program struct {
	*Module

	Debug    uint32 // debug(ptr, len)
	Fork     uint32 // fork(entry, desc) -> pid
	Poll     uint32 // poll(pid, result_ptr) -> status; only valid when imported
	Heap     uint32 // global holding the next free address
	Allocate uint32 // allocate(len) -> ptr

	hasPoll bool
}

// ProgramConfig controls the scaffolding NewProgram emits.
type ProgramConfig struct {
	// Namespace is the import module name. Defaults to abi.Namespace.
	Namespace string
	// Pages is the initial memory size in 64KiB pages. Defaults to 2.
	Pages uint32
	// ImportPoll adds the optional poll import.
	ImportPoll bool
}

var (
	typeDebug    = FuncType{Params: []ValType{I32, I32}}
	typeFork     = FuncType{Params: []ValType{I32, I64}, Results: []ValType{I32}}
	typePoll     = FuncType{Params: []ValType{I32, I32}, Results: []ValType{I32}}
	typeAllocate = FuncType{Params: []ValType{I32}, Results: []ValType{I32}}

	// TypeRun is the signature of the run export.
	TypeRun = FuncType{}
	// TypeInvoke is the signature of the invoke export.
	TypeInvoke = FuncType{Params: []ValType{I32, I64}, Results: []ValType{I64}}
)

// NewProgram declares imports, memory, heap and allocate. Callers add run,
// invoke and static data.
func NewProgram(cfg *ProgramConfig) *Program {
	ns := abi.Namespace
	pages := uint32(2)
	importPoll := false
	if cfg != nil {
		if cfg.Namespace != "" {
			ns = cfg.Namespace
		}
		if cfg.Pages > 0 {
			pages = cfg.Pages
		}
		importPoll = cfg.ImportPoll
	}

	p := &Program{Module: NewModule(), hasPoll: importPoll}
	p.Debug = p.ImportFunc(ns, abi.ImportDebug, typeDebug)
	p.Fork = p.ImportFunc(ns, abi.ImportFork, typeFork)
	if importPoll {
		p.Poll = p.ImportFunc(ns, abi.ImportPoll, typePoll)
	}

	p.Memory(pages, abi.ExportMemory)
	p.Heap = p.Global(I32, true, HeapBase)

	// allocate returns the current heap pointer and advances it by len.
	p.Allocate = p.Func(typeAllocate, nil, NewCode().
		GlobalGet(p.Heap).
		GlobalGet(p.Heap).
		LocalGet(0).
		I32Add().
		GlobalSet(p.Heap))
	p.ExportFunc(abi.ExportAllocate, p.Allocate)

	return p
}

// HasPoll reports whether the poll import was declared.
func (p *Program) HasPoll() bool {
	return p.hasPoll
}

// Text places s at offset as static data and returns its descriptor.
func (p *Program) Text(offset uint32, s string) abi.Descriptor {
	p.Data(offset, []byte(s))
	return abi.Pack(offset, uint32(len(s)))
}

// DebugDesc emits debug(ptr, len) for a static descriptor.
func (p *Program) DebugDesc(c *Code, d abi.Descriptor) *Code {
	return c.I32Const(int32(d.Ptr())).I32Const(int32(d.Len())).Call(p.Debug)
}

// ForkDesc emits fork(entry, desc), leaving the pid on the stack.
func (p *Program) ForkDesc(c *Code, entry uint32, d abi.Descriptor) *Code {
	return c.I32Const(int32(entry)).I64Const(int64(d)).Call(p.Fork)
}

// Run defines and exports run.
func (p *Program) Run(locals []ValType, body *Code) uint32 {
	idx := p.Func(TypeRun, locals, body)
	p.ExportFunc(abi.ExportRun, idx)
	return idx
}

// Invoke defines and exports invoke. Locals start at index 2, after entry and descriptor.
func (p *Program) Invoke(locals []ValType, body *Code) uint32 {
	idx := p.Func(TypeInvoke, locals, body)
	p.ExportFunc(abi.ExportInvoke, idx)
	return idx
}
