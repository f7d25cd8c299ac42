package wasmfork

import "context"

// Memory is a bounds-checked view of one instantiation's linear memory.
// Every access validates the range before touching memory.
type Memory interface {
	// Read returns a copy of length bytes at offset. The copy never aliases
	// linear memory, so later guest writes do not affect it.
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	WriteU64(offset uint32, value uint64) error
	Size() uint32
}

// Function is a callable guest export.
type Function interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// Allocator reserves memory inside an instantiation via its allocate export.
type Allocator interface {
	Allocate(ctx context.Context, size uint32) (uint32, error)
}
