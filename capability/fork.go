package capability

import (
	"context"

	wasmfork "github.com/wippyai/wasm-fork"
	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// Request describes a fork: the entry point to invoke and a private copy of the
// payload taken from the parent's memory.
type Request struct {
	Payload []byte
	Entry   uint32
	Parent  abi.PID
}

// Spawner starts a forked execution and returns its pid without waiting for it.
type Spawner interface {
	Spawn(ctx context.Context, req Request) (abi.PID, error)
}

// Fork copies a payload out of the caller's memory and hands it to a Spawner.
type Fork struct {
	spawner  Spawner
	memory   slot[wasmfork.Memory]
	dispatch slot[wasmfork.Function]
	pid      abi.PID
}

// NewFork returns an unbound Fork capability.
func NewFork(pid abi.PID, spawner Spawner) *Fork {
	return &Fork{
		pid:      pid,
		spawner:  spawner,
		memory:   slot[wasmfork.Memory]{name: abi.ExportMemory},
		dispatch: slot[wasmfork.Function]{name: abi.ExportInvoke},
	}
}

func (f *Fork) PID() abi.PID { return f.pid }

// Bind attaches the instantiation's memory and its invoke export.
func (f *Fork) Bind(exports Exports) error {
	mem, err := exports.Memory(abi.ExportMemory)
	if err != nil {
		return err
	}
	fn, err := exports.Function(abi.ExportInvoke)
	if err != nil {
		return err
	}
	if err := f.memory.set(mem); err != nil {
		return err
	}
	return f.dispatch.set(fn)
}

func (f *Fork) Bound() bool { return f.memory.bound() && f.dispatch.bound() }

// Dispatch returns the bound invoke export of this instantiation.
func (f *Fork) Dispatch() (wasmfork.Function, error) {
	fn, ok := f.dispatch.get()
	if !ok {
		return nil, errors.NotBound(abi.ImportFork)
	}
	return fn, nil
}

// Call validates desc against the caller's memory, copies the range, and
// spawns the fork. It returns as soon as the fork is scheduled.
func (f *Fork) Call(ctx context.Context, entry uint32, desc abi.Descriptor) (abi.PID, error) {
	mem, ok := f.memory.get()
	if !ok {
		return 0, errors.NotBound(abi.ImportFork)
	}
	if f.spawner == nil {
		return 0, errors.New(errors.PhaseHost, errors.KindNotBound).
			Export(abi.ImportFork).
			Detail("no spawner configured").
			Build()
	}

	if !desc.Within(mem.Size()) {
		return 0, errors.OutOfBounds(errors.PhaseHost, uint64(desc.Ptr()), uint64(desc.Len()), mem.Size())
	}
	payload, err := mem.Read(desc.Ptr(), desc.Len())
	if err != nil {
		return 0, err
	}

	return f.spawner.Spawn(ctx, Request{
		Parent:  f.pid,
		Entry:   entry,
		Payload: payload,
	})
}
