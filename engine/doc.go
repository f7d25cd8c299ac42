// Package engine adapts wazero to the fork host.
//
// # Architecture
//
//	Engine   - owns the wazero runtime and the host module guests import from
//	Module   - a compiled guest, validated against the ABI, shared read-only
//	Instance - one instantiation with its own linear memory
//	Memory   - bounds-checked access to an instance's memory
//
// # Loading
//
// Host functions are registered once, before any module is loaded:
//
//	eng, _ := engine.New(ctx, nil)
//	_ = eng.RegisterHost(ctx, funcs)
//	mod, err := eng.Load(ctx, wasm)
//
// Load compiles the guest and checks the contract statically: memory must be an
// exported memory, run/invoke/allocate must be functions with the contract
// signatures, and every import must be satisfied by the host module.
//
// # Memory access
//
// Every Memory method validates the range against the current memory size
// before touching it. Read returns a copy, never a view into linear memory.
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use. Instance is NOT thread-safe and
// should be used by a single goroutine.
package engine
