package fork

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/capability"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/guest"
)

// Static layout of the test guest.
var (
	textDone   = abi.Pack(16, 4) // "done"
	textHi     = abi.Pack(32, 2) // "hi"
	textGot    = abi.Pack(48, 5) // "got: "
	gotScratch = int32(53)
	resultSlot = int32(128)
)

// Entry points dispatched by the test guest's invoke.
const (
	entryEcho    = 1 // debug "got: <payload>", return len
	entryLen     = 2 // return len
	entryClobber = 3 // overwrite own "hi" with 0xFF, return len
	entryTrap    = 4 // unreachable
	entryNested  = 5 // fork entryEcho with own payload, return 0
	entrySpin    = 6 // loop until the instance is closed
)

// testGuest builds a guest whose run body is produced by run. The invoke
// dispatcher and static data are the same for every test.
func testGuest(importPoll bool, runLocals []guest.ValType, run func(p *guest.Program, c *guest.Code)) []byte {
	p := guest.NewProgram(&guest.ProgramConfig{ImportPoll: importPoll})
	p.Text(textDone.Ptr(), "done")
	p.Text(textHi.Ptr(), "hi")
	p.Text(textGot.Ptr(), "got: ")

	body := guest.NewCode()
	run(p, body)
	p.Run(runLocals, body)

	length := func(c *guest.Code) *guest.Code { return c.LocalGet(1).DescLen() }
	isEntry := func(c *guest.Code, entry int32) *guest.Code {
		return c.LocalGet(0).I32Const(entry).I32Eq().If()
	}

	invoke := guest.NewCode()

	isEntry(invoke, entryEcho).
		I32Const(gotScratch).LocalGet(1).DescPtr()
	length(invoke).MemoryCopy().
		I32Const(int32(textGot.Ptr()))
	length(invoke).I32Const(int32(textGot.Len())).I32Add().
		Call(p.Debug)
	length(invoke).I64ExtendI32U().Return().End()

	isEntry(invoke, entryLen)
	length(invoke).I64ExtendI32U().Return().End()

	isEntry(invoke, entryClobber).
		I32Const(int32(textHi.Ptr())).I32Const(0xFF).I32Const(int32(textHi.Len())).MemoryFill()
	length(invoke).I64ExtendI32U().Return().End()

	isEntry(invoke, entryTrap).Unreachable().End()

	isEntry(invoke, entrySpin).Loop().Br(0).End().End()

	isEntry(invoke, entryNested).
		I32Const(entryEcho).LocalGet(1).Call(p.Fork).Drop().
		I64Const(0).Return().End()

	invoke.Unreachable()
	p.Invoke(nil, invoke)

	return p.Encode()
}

// forkAndDone is the canonical run body: fork(entry, "hi"), clobber "hi" in
// the caller's memory, then debug "done".
func forkAndDone(entry uint32) func(p *guest.Program, c *guest.Code) {
	return func(p *guest.Program, c *guest.Code) {
		p.ForkDesc(c, entry, textHi).Drop()
		c.I32Const(int32(textHi.Ptr())).I32Const('X').I32Const(int32(textHi.Len())).MemoryFill()
		p.DebugDesc(c, textDone)
	}
}

func newTestExecutor(t *testing.T, wasm []byte) (*Executor, *capability.Recorder) {
	t.Helper()
	exec, rec, _ := newTestExecutorWith(t, wasm, nil)
	return exec, rec
}

func newTestExecutorWith(t *testing.T, wasm []byte, cfg *engine.Config) (*Executor, *capability.Recorder, *engine.Engine) {
	t.Helper()
	ctx := context.Background()

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	t.Cleanup(func() { eng.Close(ctx) })

	if err := eng.RegisterHost(ctx, capability.HostFuncs()); err != nil {
		t.Fatalf("RegisterHost failed: %v", err)
	}
	mod, err := eng.Load(ctx, wasm)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rec := &capability.Recorder{}
	exec := NewExecutor(ctx, NewHandle(mod), &ExecutorConfig{
		Sink:   rec,
		Logger: zaptest.NewLogger(t),
	})
	return exec, rec, eng
}

// spinningExecutor runs a root that forks entrySpin. The fork is terminated
// and waited for on cleanup so it never outlives the test.
func spinningExecutor(t *testing.T) *Executor {
	t.Helper()
	exec, _, _ := newTestExecutorWith(t, testGuest(false, nil, forkAndDone(entrySpin)),
		&engine.Config{CloseOnContextDone: true})
	t.Cleanup(func() {
		exec.Terminate()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, pid := range exec.Registry().Running() {
			if _, err := exec.Registry().Wait(ctx, pid); err != nil && ctx.Err() != nil {
				t.Errorf("fork %d still running after Terminate", pid)
			}
		}
	})
	return exec
}
