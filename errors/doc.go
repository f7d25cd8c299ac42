// Package errors provides structured error types for the fork host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the export name involved, a human-readable detail, the
// offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindTypeMismatch).
//		Export("memory").
//		Detail("expected memory, found function").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseHost, offset, length, memSize)
//	err := errors.UnknownPID(pid)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when Phase and Kind are equal.
package errors
