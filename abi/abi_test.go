package abi

import (
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestDescriptor(t *testing.T) {
	tests := []struct {
		name   string
		ptr    uint32
		length uint32
	}{
		{"zero", 0, 0},
		{"small", 32, 2},
		{"high address", 0xFFFF0000, 0x10},
		{"max", ^uint32(0), ^uint32(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Pack(tc.ptr, tc.length)
			if d.Ptr() != tc.ptr || d.Len() != tc.length {
				t.Errorf("Pack(%d, %d) = %s", tc.ptr, tc.length, d)
			}
			if uint64(d) != uint64(tc.ptr)<<32|uint64(tc.length) {
				t.Errorf("encoding = %#x", uint64(d))
			}
		})
	}
}

func TestDescriptor_Within(t *testing.T) {
	const size = 65536

	tests := []struct {
		name string
		d    Descriptor
		want bool
	}{
		{"empty", Pack(0, 0), true},
		{"empty at end", Pack(size, 0), true},
		{"exact fit", Pack(0, size), true},
		{"last byte", Pack(size-1, 1), true},
		{"one past", Pack(size-1, 2), false},
		{"start past end", Pack(size+1, 0), false},
		{"no wraparound", Pack(^uint32(0), 2), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.Within(size); got != tc.want {
				t.Errorf("%s.Within(%d) = %v, want %v", tc.d, size, got, tc.want)
			}
		})
	}
}

func TestGuestContract(t *testing.T) {
	c := Guest()

	want := map[string]struct {
		params  []api.ValueType
		results []api.ValueType
	}{
		ExportRun:      {nil, nil},
		ExportInvoke:   {[]api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}},
		ExportAllocate: {[]api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}},
	}

	if len(c) != len(want) {
		t.Fatalf("guest contract has %d functions, want %d: %v", len(c), len(want), c.Names())
	}
	for name, w := range want {
		sig, ok := c[name]
		if !ok {
			t.Errorf("missing %s", name)
			continue
		}
		if !sig.Matches(w.params, w.results) {
			t.Errorf("%s = %s", name, sig)
		}
	}
}

func TestHostContract(t *testing.T) {
	c := Host()

	fork := c[ImportFork]
	if fork.String() != "(i32,i64)->(i32)" {
		t.Errorf("fork = %s", fork)
	}
	if len(fork.ParamNames) != 2 || fork.ParamNames[0] != "entry-point" {
		t.Errorf("fork param names = %v", fork.ParamNames)
	}
	if debug := c[ImportDebug]; debug.String() != "(i32,i32)->()" {
		t.Errorf("debug = %s", debug)
	}
	if poll := c[ImportPoll]; poll.String() != "(i32,i32)->(i32)" {
		t.Errorf("poll = %s", poll)
	}

	names := c.Names()
	if len(names) != 3 || names[0] != ImportDebug || names[2] != ImportPoll {
		t.Errorf("Names() = %v", names)
	}
}

func TestParseContract(t *testing.T) {
	c, err := ParseContract(`
		ratio: func(a: f32, b: f64) -> f64;
		flag: func(on: bool) -> ();
	`)
	if err != nil {
		t.Fatalf("ParseContract failed: %v", err)
	}

	if !c["ratio"].Matches([]api.ValueType{api.ValueTypeF32, api.ValueTypeF64}, []api.ValueType{api.ValueTypeF64}) {
		t.Errorf("ratio = %s", c["ratio"])
	}
	if !c["flag"].Matches([]api.ValueType{api.ValueTypeI32}, nil) {
		t.Errorf("flag = %s", c["flag"])
	}
}

func TestParseContract_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no functions", "interface host {}"},
		{"untyped param", "f: func(a) -> u32;"},
		{"string param", "f: func(s: string);"},
		{"list result", "f: func() -> list<u8>;"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseContract(tc.text); err == nil {
				t.Errorf("expected error for %q", tc.text)
			}
		})
	}
}
