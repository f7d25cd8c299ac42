package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	wasmfork "github.com/wippyai/wasm-fork"
	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// Instance is one running instantiation. It is NOT thread-safe; drive it from a
// single goroutine.
type Instance struct {
	module api.Module
}

// Memory returns the memory exported under name, checking the export kind.
func (i *Instance) Memory(name string) (wasmfork.Memory, error) {
	if _, ok := i.module.ExportedMemoryDefinitions()[name]; !ok {
		if _, isFunc := i.module.ExportedFunctionDefinitions()[name]; isFunc {
			return nil, errors.WrongKind(errors.PhaseBind, name, "memory", "function")
		}
		return nil, errors.MissingExport(errors.PhaseBind, name)
	}
	mem := i.module.ExportedMemory(name)
	if mem == nil {
		return nil, errors.MissingExport(errors.PhaseBind, name)
	}
	return &Memory{mem: mem}, nil
}

// Function returns the function exported under name, checking the export kind.
func (i *Instance) Function(name string) (wasmfork.Function, error) {
	fn, err := i.function(name)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func (i *Instance) function(name string) (*Function, error) {
	if _, ok := i.module.ExportedFunctionDefinitions()[name]; !ok {
		if _, isMem := i.module.ExportedMemoryDefinitions()[name]; isMem {
			return nil, errors.WrongKind(errors.PhaseBind, name, "function", "memory")
		}
		return nil, errors.MissingExport(errors.PhaseBind, name)
	}
	return &Function{name: name, fn: i.module.ExportedFunction(name)}, nil
}

// Allocator returns an Allocator backed by the allocate export.
func (i *Instance) Allocator() (wasmfork.Allocator, error) {
	fn, err := i.function(abi.ExportAllocate)
	if err != nil {
		return nil, err
	}
	return &allocator{fn: fn}, nil
}

// Run calls the run export.
func (i *Instance) Run(ctx context.Context) error {
	fn, err := i.function(abi.ExportRun)
	if err != nil {
		return err
	}
	_, err = fn.Call(ctx)
	return err
}

// Close releases the instantiation and its memory.
func (i *Instance) Close(ctx context.Context) error {
	if i.module == nil {
		return nil
	}
	err := i.module.Close(ctx)
	i.module = nil
	return err
}

// Function is a callable export.
type Function struct {
	fn   api.Function
	name string
}

// Call invokes the export. Guest traps and host-function panics come back as a
// KindTrap error wrapping the cause.
func (f *Function) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	results, err := f.fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Trap(errors.PhaseRuntime, f.name, err)
	}
	return results, nil
}

type allocator struct {
	fn *Function
}

func (a *allocator) Allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := a.fn.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
			Export(abi.ExportAllocate).
			Detail("expected 1 result, got %d", len(results)).
			Build()
	}
	return api.DecodeU32(results[0]), nil
}

var _ wasmfork.Allocator = (*allocator)(nil)
var _ wasmfork.Function = (*Function)(nil)
