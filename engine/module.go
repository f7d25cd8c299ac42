package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-fork/errors"
)

// Module is a compiled, validated guest. It is never mutated after Load and may
// be instantiated concurrently from many goroutines.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Instantiate creates a fresh instantiation with its own linear memory.
// Host functions called during instantiation (a start function) see ctx.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	// anonymous name so the same module can be instantiated in parallel
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	return &Instance{module: mod}, nil
}

// Exports returns the names of all exported functions.
func (m *Module) Exports() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Imports returns the imported functions as "namespace#name".
func (m *Module) Imports() []string {
	defs := m.compiled.ImportedFunctions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		ns, name, _ := def.Import()
		names = append(names, ns+"#"+name)
	}
	return names
}

// ExportedFunction returns the static definition of an exported function, or nil.
func (m *Module) ExportedFunction(name string) api.FunctionDefinition {
	return m.compiled.ExportedFunctions()[name]
}
