package fork

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/capability"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/errors"
)

// ExecutorConfig configures an Executor. Zero values select defaults.
type ExecutorConfig struct {
	// Registry records forks. Defaults to a new registry.
	Registry *Registry
	// Sink receives debug output. Defaults to discarding it.
	Sink capability.Sink
	// Logger defaults to engine.Logger().
	Logger *zap.Logger
	// RunID tags every log line. Defaults to a random UUID.
	RunID string
}

// Executor runs the root execution and services fork calls.
type Executor struct {
	base     context.Context
	cancel   context.CancelFunc
	handle   *Handle
	registry *Registry
	sink     capability.Sink
	logger   *zap.Logger
	runID    string
	closed   atomic.Bool
}

// NewExecutor creates an executor. Forks run with the values of ctx but are
// not cancelled with it, nor with the context of the call that spawned them.
// Only Terminate cancels them.
func NewExecutor(ctx context.Context, handle *Handle, cfg *ExecutorConfig) *Executor {
	if cfg == nil {
		cfg = &ExecutorConfig{}
	}
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e := &Executor{
		base:     base,
		cancel:   cancel,
		handle:   handle,
		registry: cfg.Registry,
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		runID:    cfg.RunID,
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.sink == nil {
		e.sink = capability.Discard
	}
	if e.logger == nil {
		e.logger = engine.Logger()
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	e.logger = e.logger.With(zap.String("run", e.runID))
	return e
}

func (e *Executor) RunID() string { return e.runID }

func (e *Executor) Registry() *Registry { return e.registry }

func (e *Executor) Handle() *Handle { return e.handle }

func (e *Executor) deps() capability.Deps {
	return capability.Deps{
		Sink:    e.sink,
		Spawner: e,
		Poller:  e.registry,
	}
}

// prepare instantiates the module for pid and binds its capabilities. The
// returned context carries the capability set and must be used for every
// guest call on the instance.
func (e *Executor) prepare(ctx context.Context, pid abi.PID) (*engine.Instance, *capability.Set, context.Context, error) {
	set := capability.NewSet(pid, e.deps())
	ctx = capability.WithSet(ctx, set)

	inst, err := e.handle.Module().Instantiate(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := set.BindAll(inst); err != nil {
		inst.Close(ctx)
		return nil, nil, nil, err
	}
	return inst, set, ctx, nil
}

// Run executes the root run export under a fresh pid and returns when it
// finishes. Forks it spawned may still be running.
func (e *Executor) Run(ctx context.Context) error {
	if e.closed.Load() {
		return errors.New(errors.PhaseRuntime, errors.KindClosed).Detail("executor shut down").Build()
	}

	pid, err := e.handle.NextPID()
	if err != nil {
		return err
	}
	logger := e.logger.With(zap.Uint32("pid", uint32(pid)))
	logger.Debug("root starting")

	inst, _, ctx, err := e.prepare(ctx, pid)
	if err != nil {
		logger.Error("root setup failed", zap.Error(err))
		return err
	}
	defer inst.Close(ctx)

	if err := inst.Run(ctx); err != nil {
		logger.Error("root failed", zap.Error(err))
		return err
	}
	logger.Debug("root finished")
	return nil
}

// Spawn registers a fork and starts it on its own goroutine. It returns once
// the fork is scheduled.
func (e *Executor) Spawn(_ context.Context, req capability.Request) (abi.PID, error) {
	if e.closed.Load() {
		return 0, errors.New(errors.PhaseFork, errors.KindClosed).Detail("executor shut down").Build()
	}

	pid, err := e.handle.NextPID()
	if err != nil {
		return 0, err
	}
	task := newTask(pid, req.Parent, req.Entry, len(req.Payload))
	if err := e.registry.Register(task); err != nil {
		return 0, err
	}

	e.logger.Debug("fork spawned",
		zap.Uint32("pid", uint32(pid)),
		zap.Uint32("parent", uint32(req.Parent)),
		zap.Uint32("entry", req.Entry),
		zap.Int("payload_len", len(req.Payload)))

	go e.execute(task, req.Payload)
	return pid, nil
}

func (e *Executor) execute(task *Task, payload []byte) {
	result, err := e.invoke(e.base, task, payload)

	// log before completing so waiters never race the log line
	fields := []zap.Field{
		zap.Uint32("pid", uint32(task.PID)),
		zap.Uint32("entry", task.Entry),
		zap.Int("payload_len", task.PayloadLen),
		zap.Duration("elapsed", task.Elapsed()),
	}
	if err != nil {
		err = forkFailure(task, err)
		e.logger.Error("fork failed", append(fields, zap.Error(err))...)
	} else {
		e.logger.Debug("fork finished", append(fields, zap.Int64("result", result))...)
	}

	e.registry.complete(task, result, err)
}

// invoke runs one fork: instantiate, copy the payload in through allocate,
// then call invoke(entry, descriptor).
func (e *Executor) invoke(ctx context.Context, task *Task, payload []byte) (int64, error) {
	inst, set, ctx, err := e.prepare(ctx, task.PID)
	if err != nil {
		return 0, err
	}
	defer inst.Close(ctx)

	alloc, err := inst.Allocator()
	if err != nil {
		return 0, err
	}
	length := uint32(len(payload))
	ptr, err := alloc.Allocate(ctx, length)
	if err != nil {
		return 0, err
	}

	mem, err := inst.Memory(abi.ExportMemory)
	if err != nil {
		return 0, err
	}
	if err := mem.Write(ptr, payload); err != nil {
		return 0, err
	}

	dispatch, err := set.Fork.Dispatch()
	if err != nil {
		return 0, err
	}
	results, err := dispatch.Call(ctx, api.EncodeU32(task.Entry), api.EncodeI64(int64(abi.Pack(ptr, length))))
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, errors.New(errors.PhaseFork, errors.KindTypeMismatch).
			Export(abi.ExportInvoke).
			Detail("expected 1 result, got %d", len(results)).
			Build()
	}
	return api.DecodeI64(results[0]), nil
}

// forkFailure tags err with the pid it happened in, keeping the cause's kind.
func forkFailure(task *Task, err error) error {
	kind := errors.KindTrap
	var e *errors.Error
	if stderrors.As(err, &e) {
		kind = e.Kind
	}
	return errors.New(errors.PhaseFork, kind).
		Value(uint32(task.PID)).
		Detail("pid %d entry %d", task.PID, task.Entry).
		Cause(err).
		Build()
}
