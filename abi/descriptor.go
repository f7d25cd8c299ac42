package abi

import "fmt"

// PID identifies one execution (the root run or a fork). Assigned once, never reused.
type PID uint32

// Descriptor packs a byte range as (address << 32) | length. It is only
// meaningful relative to the memory of the instantiation that produced it.
type Descriptor uint64

// Pack builds a descriptor for the range starting at ptr with the given length.
func Pack(ptr, length uint32) Descriptor {
	return Descriptor(uint64(ptr)<<32 | uint64(length))
}

// Ptr returns the start address.
func (d Descriptor) Ptr() uint32 {
	return uint32(d >> 32)
}

// Len returns the byte length.
func (d Descriptor) Len() uint32 {
	return uint32(d)
}

// End returns the exclusive end offset. Computed in 64 bits so it never wraps.
func (d Descriptor) End() uint64 {
	return uint64(d.Ptr()) + uint64(d.Len())
}

// Within reports whether the whole range fits in a memory of size bytes.
func (d Descriptor) Within(size uint32) bool {
	return d.End() <= uint64(size)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("[%d+%d]", d.Ptr(), d.Len())
}
