package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/errors"
)

// Engine owns a wazero runtime and the host module every instantiation imports from.
type Engine struct {
	runtime   wazero.Runtime
	hostFuncs map[string]abi.Signature
	namespace string
	mu        sync.RWMutex
	closed    bool
}

// MaxMemoryPages is the largest per-instance memory the engine allows. Memory
// sizes are reported as uint32 bytes, which a full 4GiB memory would overflow.
const MaxMemoryPages = 65535

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means MaxMemoryPages. Larger values are rejected.
	MemoryLimitPages uint32

	// CloseOnContextDone makes guest calls stop when their context is done or
	// their instance is closed, at the cost of periodic checks in compiled code.
	CloseOnContextDone bool

	// Namespace is the import module name host functions are exported under.
	// Empty means abi.Namespace.
	Namespace string
}

// HostFunc is one host-provided import.
type HostFunc struct {
	Fn        api.GoModuleFunc
	Name      string
	Signature abi.Signature
}

// New creates a new engine
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	namespace := abi.Namespace
	pages := uint32(MaxMemoryPages)

	if cfg != nil {
		if cfg.MemoryLimitPages > MaxMemoryPages {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Value(cfg.MemoryLimitPages).
				Detail("memory limit %d pages exceeds %d", cfg.MemoryLimitPages, MaxMemoryPages).
				Build()
		}
		if cfg.MemoryLimitPages > 0 {
			pages = cfg.MemoryLimitPages
		}
		if cfg.Namespace != "" {
			namespace = cfg.Namespace
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}
	runtimeCfg = runtimeCfg.WithMemoryLimitPages(pages)

	return &Engine{
		runtime:   wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		namespace: namespace,
	}, nil
}

// Namespace returns the import module name of the host functions.
func (e *Engine) Namespace() string {
	return e.namespace
}

// RegisterHost instantiates the host module. It must be called once, before Load.
func (e *Engine) RegisterHost(ctx context.Context, funcs []HostFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New(errors.PhaseLoad, errors.KindClosed).Detail("engine closed").Build()
	}
	if e.hostFuncs != nil {
		return errors.InvalidInput(errors.PhaseLoad, "host module already registered")
	}

	builder := e.runtime.NewHostModuleBuilder(e.namespace)
	registered := make(map[string]abi.Signature, len(funcs))
	for _, hf := range funcs {
		if hf.Name == "" || hf.Fn == nil {
			return errors.InvalidInput(errors.PhaseLoad, "host function needs a name and an implementation")
		}
		if _, dup := registered[hf.Name]; dup {
			return errors.InvalidInput(errors.PhaseLoad, "duplicate host function "+hf.Name)
		}
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(hf.Fn, hf.Signature.Params, hf.Signature.Results).
			WithParameterNames(hf.Signature.ParamNames...).
			Export(hf.Name)
		registered[hf.Name] = hf.Signature
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "instantiate host module "+e.namespace)
	}

	e.hostFuncs = registered
	Logger().Debug("host module registered",
		zap.String("namespace", e.namespace),
		zap.Int("functions", len(registered)))
	return nil
}

// Load compiles wasm and validates it against the guest contract and the
// registered host functions. The returned Module is immutable and shareable.
func (e *Engine) Load(ctx context.Context, wasm []byte) (*Module, error) {
	e.mu.RLock()
	closed := e.closed
	hostFuncs := e.hostFuncs
	e.mu.RUnlock()

	if closed {
		return nil, errors.New(errors.PhaseLoad, errors.KindClosed).Detail("engine closed").Build()
	}
	if len(wasm) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty module")
	}

	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	if err := validateExports(compiled); err != nil {
		compiled.Close(ctx)
		return nil, err
	}
	if err := validateImports(compiled, e.namespace, hostFuncs); err != nil {
		compiled.Close(ctx)
		return nil, err
	}

	Logger().Debug("module loaded",
		zap.Int("bytes", len(wasm)),
		zap.Int("imports", len(compiled.ImportedFunctions())))

	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases the runtime. All instances must be closed before calling this.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return e.runtime.Close(ctx)
}

// validateExports checks the guest contract statically so setup errors surface
// before any instantiation.
func validateExports(compiled wazero.CompiledModule) error {
	funcs := compiled.ExportedFunctions()
	mems := compiled.ExportedMemories()

	if _, ok := mems[abi.ExportMemory]; !ok {
		if _, isFunc := funcs[abi.ExportMemory]; isFunc {
			return errors.WrongKind(errors.PhaseLoad, abi.ExportMemory, "memory", "function")
		}
		return errors.MissingExport(errors.PhaseLoad, abi.ExportMemory)
	}

	contract := abi.Guest()
	for _, name := range contract.Names() {
		want := contract[name]
		def, ok := funcs[name]
		if !ok {
			if _, isMem := mems[name]; isMem {
				return errors.WrongKind(errors.PhaseLoad, name, "function", "memory")
			}
			return errors.MissingExport(errors.PhaseLoad, name)
		}
		if !want.Matches(def.ParamTypes(), def.ResultTypes()) {
			return errors.SignatureMismatch(errors.PhaseLoad, name, want.String(),
				abi.FormatTypes(def.ParamTypes(), def.ResultTypes()))
		}
	}
	return nil
}

// validateImports reports every import the host cannot satisfy.
func validateImports(compiled wazero.CompiledModule, namespace string, hostFuncs map[string]abi.Signature) error {
	var missing []string
	for _, def := range compiled.ImportedFunctions() {
		ns, name, _ := def.Import()
		sig, ok := hostFuncs[name]
		if ns != namespace || !ok {
			missing = append(missing, ns+"#"+name)
			continue
		}
		if !sig.Matches(def.ParamTypes(), def.ResultTypes()) {
			return errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
				Export(name).
				Detail("import signature %s does not match host %s",
					abi.FormatTypes(def.ParamTypes(), def.ResultTypes()), sig.String()).
				Build()
		}
	}

	for _, def := range compiled.ImportedMemories() {
		ns, name, _ := def.Import()
		missing = append(missing, ns+"#"+name)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.NewMissingImportsError(missing)
	}
	return nil
}
