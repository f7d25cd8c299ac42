package abi

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-fork/errors"
)

// Namespace is the default import module name for host capabilities.
const Namespace = "env"

// Guest exports.
const (
	ExportMemory   = "memory"
	ExportRun      = "run"
	ExportInvoke   = "invoke"
	ExportAllocate = "allocate"
)

// Host imports.
const (
	ImportDebug = "debug"
	ImportFork  = "fork"
	ImportPoll  = "poll"
)

// Poll status codes returned to the guest.
const (
	PollDone    uint32 = 0
	PollRunning uint32 = 1
	PollUnknown uint32 = 2
	PollFailed  uint32 = 3
)

// GuestWIT declares the functions a guest must export.
const GuestWIT = `
	run: func();
	invoke: func(entry-point: s32, descriptor: s64) -> s64;
	allocate: func(len: s32) -> s32;
`

// HostWIT declares the functions the host provides.
const HostWIT = `
	debug: func(ptr: u32, len: u32);
	fork: func(entry-point: u32, descriptor: u64) -> u32;
	poll: func(pid: u32, result-ptr: u32) -> u32;
`

// Signature is a function signature lowered to core value types.
type Signature struct {
	Name       string
	ParamNames []string
	Params     []api.ValueType
	Results    []api.ValueType
}

// Matches reports whether params and results equal the signature exactly.
func (s Signature) Matches(params, results []api.ValueType) bool {
	return equalTypes(s.Params, params) && equalTypes(s.Results, results)
}

func (s Signature) String() string {
	return FormatTypes(s.Params, s.Results)
}

// FormatTypes renders a core signature as "(i32,i64)->i64".
func FormatTypes(params, results []api.ValueType) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(")->(")
	for i, r := range results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contract is a parsed set of signatures keyed by function name.
type Contract map[string]Signature

// Names returns the function names in sorted order.
func (c Contract) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	guestOnce     sync.Once
	guestContract Contract
	hostOnce      sync.Once
	hostContract  Contract
)

// Guest returns the parsed guest export contract.
func Guest() Contract {
	guestOnce.Do(func() {
		guestContract = mustParse(GuestWIT)
	})
	return guestContract
}

// Host returns the parsed host import contract.
func Host() Contract {
	hostOnce.Do(func() {
		hostContract = mustParse(HostWIT)
	})
	return hostContract
}

func mustParse(text string) Contract {
	c, err := ParseContract(text)
	if err != nil {
		panic(err)
	}
	return c
}

var funcPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;\n]+))?`)

// ParseContract extracts function signatures from WIT text.
// Pattern: name: func(params) -> result;
// Only scalar WIT types are accepted, since the contract is core-wasm only.
func ParseContract(text string) (Contract, error) {
	funcs := make(Contract)

	for _, match := range funcPattern.FindAllStringSubmatch(text, -1) {
		sig := Signature{Name: match[1]}

		if params := strings.TrimSpace(match[2]); params != "" {
			for _, p := range strings.Split(params, ",") {
				name, typStr, found := strings.Cut(p, ":")
				if !found {
					return nil, errors.InvalidInput(errors.PhaseParse, "parameter without type in "+sig.Name)
				}
				vt, err := lowerWitType(typStr)
				if err != nil {
					return nil, err
				}
				sig.ParamNames = append(sig.ParamNames, strings.TrimSpace(name))
				sig.Params = append(sig.Params, vt)
			}
		}

		if result := strings.TrimSpace(match[3]); result != "" && result != "()" {
			vt, err := lowerWitType(result)
			if err != nil {
				return nil, err
			}
			sig.Results = []api.ValueType{vt}
		}

		funcs[sig.Name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}

	return funcs, nil
}

func lowerWitType(s string) (api.ValueType, error) {
	s = strings.TrimSpace(s)
	t, err := wit.ParseType(s)
	if err != nil {
		return 0, errors.ParseFailed("WIT type "+s, err)
	}

	switch t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return api.ValueTypeI32, nil
	case wit.U64, wit.S64:
		return api.ValueTypeI64, nil
	case wit.F32:
		return api.ValueTypeF32, nil
	case wit.F64:
		return api.ValueTypeF64, nil
	default:
		return 0, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Detail("WIT type %s has no core representation", s).
			Build()
	}
}
