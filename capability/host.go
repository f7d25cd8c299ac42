package capability

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/errors"
)

// HostFuncs returns the host functions for the debug, fork and poll imports.
func HostFuncs() []engine.HostFunc {
	host := abi.Host()
	return []engine.HostFunc{
		{Name: abi.ImportDebug, Signature: host[abi.ImportDebug], Fn: hostDebug},
		{Name: abi.ImportFork, Signature: host[abi.ImportFork], Fn: hostFork},
		{Name: abi.ImportPoll, Signature: host[abi.ImportPoll], Fn: hostPoll},
	}
}

func mustSet(ctx context.Context, capability string) *Set {
	set := FromContext(ctx)
	if set == nil {
		panic(errors.NotBound(capability))
	}
	return set
}

func hostDebug(ctx context.Context, _ api.Module, stack []uint64) {
	set := mustSet(ctx, abi.ImportDebug)
	if err := set.Debug.Emit(api.DecodeU32(stack[0]), api.DecodeU32(stack[1])); err != nil {
		panic(err)
	}
}

func hostFork(ctx context.Context, _ api.Module, stack []uint64) {
	set := mustSet(ctx, abi.ImportFork)
	pid, err := set.Fork.Call(ctx, api.DecodeU32(stack[0]), abi.Descriptor(stack[1]))
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(uint32(pid))
}

func hostPoll(ctx context.Context, _ api.Module, stack []uint64) {
	set := mustSet(ctx, abi.ImportPoll)
	status, err := set.Poll.Call(abi.PID(api.DecodeU32(stack[0])), api.DecodeU32(stack[1]))
	if err != nil {
		panic(err)
	}
	stack[0] = api.EncodeU32(status)
}
