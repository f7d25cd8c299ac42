package capability

import (
	wasmfork "github.com/wippyai/wasm-fork"
	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// Debug emits text from the caller's memory to a Sink, tagged with a pid.
type Debug struct {
	sink   Sink
	memory slot[wasmfork.Memory]
	pid    abi.PID
}

// NewDebug returns an unbound Debug capability.
func NewDebug(pid abi.PID, sink Sink) *Debug {
	if sink == nil {
		sink = Discard
	}
	return &Debug{
		pid:    pid,
		sink:   sink,
		memory: slot[wasmfork.Memory]{name: abi.ExportMemory},
	}
}

func (d *Debug) PID() abi.PID { return d.pid }

// Bind attaches the instantiation's memory.
func (d *Debug) Bind(exports Exports) error {
	mem, err := exports.Memory(abi.ExportMemory)
	if err != nil {
		return err
	}
	return d.memory.set(mem)
}

func (d *Debug) Bound() bool { return d.memory.bound() }

// Emit reads length bytes at ptr and sends them to the sink. A zero-length
// range emits an empty string.
func (d *Debug) Emit(ptr, length uint32) error {
	mem, ok := d.memory.get()
	if !ok {
		return errors.NotBound(abi.ImportDebug)
	}

	var text string
	if length > 0 {
		data, err := mem.Read(ptr, length)
		if err != nil {
			return err
		}
		text = string(data)
	}

	d.sink.Emit(d.pid, text)
	return nil
}
