package engine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	ctx := context.Background()
	eng := newTestEngine(t)

	mod, err := eng.Load(ctx, echoProgram().Encode())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	t.Cleanup(func() { inst.Close(ctx) })

	mem, err := inst.Memory(abi.ExportMemory)
	if err != nil {
		t.Fatalf("Memory failed: %v", err)
	}
	return mem.(*Memory)
}

func TestMemory_ReadReturnsCopy(t *testing.T) {
	mem := newTestMemory(t)

	if err := mem.Write(64, []byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := mem.Read(64, 5)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if err := mem.Write(64, []byte("XXXXX")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("copy changed after memory write: %q", got)
	}

	got[0] = 'j'
	again, _ := mem.Read(64, 5)
	if string(again) != "XXXXX" {
		t.Errorf("mutating the copy changed memory: %q", again)
	}
}

func TestMemory_Bounds(t *testing.T) {
	mem := newTestMemory(t)
	size := mem.Size()
	if size != 2*65536 {
		t.Fatalf("Size = %d, want %d", size, 2*65536)
	}

	tests := []struct {
		name   string
		offset uint32
		length uint32
		ok     bool
	}{
		{"empty at start", 0, 0, true},
		{"empty at end", size, 0, true},
		{"last byte", size - 1, 1, true},
		{"whole memory", 0, size, true},
		{"past end", size - 1, 2, false},
		{"offset past end", size + 1, 0, false},
		{"wrapping length", 1, ^uint32(0), false},
		{"max offset", ^uint32(0), ^uint32(0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := mem.Read(tc.offset, tc.length)
			if tc.ok {
				if err != nil {
					t.Fatalf("Read failed: %v", err)
				}
				if uint32(len(data)) != tc.length {
					t.Errorf("len = %d, want %d", len(data), tc.length)
				}
				return
			}
			if !stderrors.Is(err, errors.OutOfBounds(errors.PhaseHost, 0, 0, 0)) {
				t.Fatalf("expected out_of_bounds, got %v", err)
			}
		})
	}
}

func TestMemory_WriteBounds(t *testing.T) {
	mem := newTestMemory(t)
	size := mem.Size()

	if err := mem.Write(size-2, []byte("abc")); err == nil {
		t.Error("expected out of bounds write to fail")
	}
	if err := mem.WriteU64(size-4, 1); err == nil {
		t.Error("expected out of bounds u64 write to fail")
	}
	if err := mem.WriteU64(size-8, 0x0102030405060708); err != nil {
		t.Fatalf("WriteU64 failed: %v", err)
	}
	got, _ := mem.Read(size-8, 8)
	if got[0] != 0x08 || got[7] != 0x01 {
		t.Errorf("WriteU64 not little-endian: %x", got)
	}
}
