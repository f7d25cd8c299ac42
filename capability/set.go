package capability

import (
	"context"

	"github.com/wippyai/wasm-fork/abi"
)

// Deps are the host-side collaborators capabilities forward to.
type Deps struct {
	Sink    Sink
	Spawner Spawner
	Poller  Poller
}

// Set holds every capability of one instantiation.
type Set struct {
	Debug *Debug
	Fork  *Fork
	Poll  *Poll
	PID   abi.PID
}

// NewSet builds unbound capabilities for the instantiation identified by pid.
func NewSet(pid abi.PID, deps Deps) *Set {
	return &Set{
		PID:   pid,
		Debug: NewDebug(pid, deps.Sink),
		Fork:  NewFork(pid, deps.Spawner),
		Poll:  NewPoll(pid, deps.Poller),
	}
}

func (s *Set) binders() []Binder {
	return []Binder{s.Debug, s.Fork, s.Poll}
}

// BindAll binds every capability to exports. It must run after instantiation
// and before any guest export is called.
func (s *Set) BindAll(exports Exports) error {
	for _, b := range s.binders() {
		if err := b.Bind(exports); err != nil {
			return err
		}
	}
	return nil
}

// Bound reports whether every capability has been bound.
func (s *Set) Bound() bool {
	for _, b := range s.binders() {
		if !b.Bound() {
			return false
		}
	}
	return true
}

type setKey struct{}

// WithSet returns a context carrying set. Guest exports must be called with
// this context so host functions can find their capabilities.
func WithSet(ctx context.Context, set *Set) context.Context {
	return context.WithValue(ctx, setKey{}, set)
}

// FromContext returns the Set stored by WithSet, or nil.
func FromContext(ctx context.Context) *Set {
	set, _ := ctx.Value(setKey{}).(*Set)
	return set
}
