package fork

import (
	"math"
	"sync/atomic"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/errors"
)

// Handle pairs a compiled module with the pid counter shared by every
// execution derived from it. Copies share both.
type Handle struct {
	module *engine.Module
	pids   *atomic.Uint64
}

// NewHandle wraps a loaded module. The first pid handed out is 0.
func NewHandle(module *engine.Module) *Handle {
	return &Handle{module: module, pids: new(atomic.Uint64)}
}

// NextPID returns the next pid. Safe for concurrent use; no value is returned
// twice. Once all 2^32 pids are issued it returns an exhausted error instead
// of wrapping around.
func (h *Handle) NextPID() (abi.PID, error) {
	n := h.pids.Add(1) - 1
	if n > math.MaxUint32 {
		return 0, errors.New(errors.PhaseFork, errors.KindExhausted).
			Detail("all %d pids issued", uint64(math.MaxUint32)+1).
			Build()
	}
	return abi.PID(n), nil
}

// Issued returns how many pids have been handed out.
func (h *Handle) Issued() uint64 {
	return min(h.pids.Load(), math.MaxUint32+1)
}

// Module returns the shared compiled module.
func (h *Handle) Module() *engine.Module {
	return h.module
}
