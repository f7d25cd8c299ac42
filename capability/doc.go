// Package capability implements the host functions a guest imports: debug,
// fork and poll.
//
// # Deferred binding
//
// Imports must exist before a module is instantiated, but the memory and
// exports they operate on only exist afterwards. Every capability is therefore
// built in two steps:
//
//	set := capability.NewSet(pid, deps)          // slots empty
//	ctx = capability.WithSet(ctx, set)
//	inst, _ := mod.Instantiate(ctx)              // start function would trap
//	_ = set.BindAll(inst)                        // memory, invoke
//	_ = inst.Run(ctx)                            // guest code may now call in
//
// A capability used before BindAll traps with a not_bound error. A slot binds
// exactly once.
//
// # Host functions
//
// HostFuncs returns one wazero host function per import. They are stateless and
// shared by every instantiation; each call resolves the caller's Set from the
// context the guest export was invoked with. Failures panic with an
// *errors.Error, which wazero reports as a failure of the guest call on the
// stack.
package capability
