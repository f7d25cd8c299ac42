package capability

import (
	"sync/atomic"

	wasmfork "github.com/wippyai/wasm-fork"
	"github.com/wippyai/wasm-fork/errors"
)

// Exports resolves an instantiation's exports by name and kind.
type Exports interface {
	Memory(name string) (wasmfork.Memory, error)
	Function(name string) (wasmfork.Function, error)
}

// Binder is a capability with slots filled from an instantiation's exports.
type Binder interface {
	Bind(exports Exports) error
	Bound() bool
}

// slot holds a reference that is set exactly once.
type slot[T any] struct {
	v    atomic.Pointer[T]
	name string
}

func (s *slot[T]) set(v T) error {
	if !s.v.CompareAndSwap(nil, &v) {
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Export(s.name).
			Detail("already bound").
			Build()
	}
	return nil
}

func (s *slot[T]) get() (T, bool) {
	p := s.v.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

func (s *slot[T]) bound() bool {
	return s.v.Load() != nil
}
