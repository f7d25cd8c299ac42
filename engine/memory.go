package engine

import (
	"bytes"

	"github.com/tetratelabs/wazero/api"

	wasmfork "github.com/wippyai/wasm-fork"
	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// Memory wraps wazero memory to implement wasmfork.Memory
type Memory struct {
	mem api.Memory
}

// Read validates the range against the current memory size and returns a copy.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	size := m.mem.Size()
	if !abi.Pack(offset, length).Within(size) {
		return nil, errors.OutOfBounds(errors.PhaseHost, uint64(offset), uint64(length), size)
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, uint64(offset), uint64(length), size)
	}
	return bytes.Clone(data), nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	size := m.mem.Size()
	if uint64(offset)+uint64(len(data)) > uint64(size) {
		return errors.OutOfBounds(errors.PhaseHost, uint64(offset), uint64(len(data)), size)
	}
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseHost, uint64(offset), uint64(len(data)), size)
	}
	return nil
}

func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHost, uint64(offset), 8, m.mem.Size())
	}
	return nil
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that Memory implements wasmfork.Memory
var _ wasmfork.Memory = (*Memory)(nil)
