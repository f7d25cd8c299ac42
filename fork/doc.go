// Package fork runs a guest and the forks it spawns.
//
// A Handle owns the compiled module and the pid counter. An Executor uses it
// to run the root execution and to service every fork call: each fork gets a
// fresh instantiation with its own memory, receives a copy of the payload via
// the guest's allocate export, and runs invoke(entry, descriptor) on its own
// goroutine. Every fork is recorded in a Registry as a Task; failures are kept
// on the task, never propagated to the caller of fork.
//
// Once run returns, Shutdown applies an ExitPolicy: ExitWait drains the
// registry (including forks spawned while draining), ExitAbandon logs the
// stragglers and returns.
package fork
