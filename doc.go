// Package wasmfork is a host for sandboxed WebAssembly modules that fork.
//
// A guest module runs its run export inside one isolated instantiation. While
// running it may call the host's fork capability, which copies a byte range out of
// the caller's memory and starts a brand-new instantiation of the same compiled
// module on its own goroutine. The new instantiation receives the copy through its
// allocate export and runs the requested entry point through invoke.
//
// # Architecture Overview
//
//	wasmfork/        Root package with Memory, Function and Allocator interfaces
//	├── abi/         Descriptor packing, pids, WIT-declared host/guest contract
//	├── engine/      wazero integration: compile, validate, instantiate, exports
//	├── capability/  debug/fork/poll host capabilities and deferred binding
//	├── fork/        module handle, fork registry, fork execution engine
//	├── guest/       minimal module builder and the sample guest
//	├── config/      environment configuration
//	└── errors/      structured error types
//
// # Quick Start
//
//	eng, err := engine.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	if err := eng.RegisterHost(ctx, capability.HostFuncs()); err != nil {
//	    log.Fatal(err)
//	}
//
//	mod, err := eng.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	exec := fork.NewExecutor(ctx, fork.NewHandle(mod), nil)
//	if err := exec.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	err = exec.Shutdown(ctx, fork.ExitWait, 0)
//
// # Isolation
//
// Every instantiation owns a private linear memory. Data crosses instantiations
// only as a copy taken at the moment fork is called.
//
// # Thread Safety
//
// Engine, Module, Handle and Registry are safe for concurrent use. Instance is NOT
// thread-safe; each instantiation is driven by exactly one goroutine.
package wasmfork
