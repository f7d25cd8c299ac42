// Package abi defines the binary contract between the fork host and a guest module.
//
// A compatible guest exports:
//
//	memory    memory    linear memory, readable and writable by the host
//	run       func()                              root entry point
//	invoke    func(entry: i32, desc: i64) -> i64  fork dispatch
//	allocate  func(len: i32) -> i32               reserves len bytes, returns the address
//
// The host provides, under Namespace ("env" by default):
//
//	debug  func(ptr: i32, len: i32)
//	fork   func(entry: i32, desc: i64) -> i32
//	poll   func(pid: i32, result_ptr: i32) -> i32
//
// Both sides of the contract are declared as WIT function signatures (GuestWIT and
// HostWIT) and parsed into core value types, so the engine registers host functions
// and validates guest exports from the same source.
//
// Byte ranges cross the boundary as a Descriptor: a 64-bit value holding the address
// in the high 32 bits and the length in the low 32 bits.
package abi
