package capability

import (
	wasmfork "github.com/wippyai/wasm-fork"
	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// Poller reports the state of a fork without blocking. status is one of the
// abi.Poll* codes; result is only meaningful for abi.PollDone.
type Poller interface {
	PollStatus(pid abi.PID) (status uint32, result int64)
}

// Poll lets a guest check on a fork it started.
type Poll struct {
	poller Poller
	memory slot[wasmfork.Memory]
	pid    abi.PID
}

// NewPoll returns an unbound Poll capability.
func NewPoll(pid abi.PID, poller Poller) *Poll {
	return &Poll{
		pid:    pid,
		poller: poller,
		memory: slot[wasmfork.Memory]{name: abi.ExportMemory},
	}
}

// Bind attaches the instantiation's memory.
func (p *Poll) Bind(exports Exports) error {
	mem, err := exports.Memory(abi.ExportMemory)
	if err != nil {
		return err
	}
	return p.memory.set(mem)
}

func (p *Poll) Bound() bool { return p.memory.bound() }

// Call returns the status of target. When the fork is done its result is
// written little-endian at resultPtr.
func (p *Poll) Call(target abi.PID, resultPtr uint32) (uint32, error) {
	mem, ok := p.memory.get()
	if !ok {
		return 0, errors.NotBound(abi.ImportPoll)
	}
	if p.poller == nil {
		return abi.PollUnknown, nil
	}

	status, result := p.poller.PollStatus(target)
	if status == abi.PollDone {
		if err := mem.WriteU64(resultPtr, uint64(result)); err != nil {
			return 0, err
		}
	}
	return status, nil
}
