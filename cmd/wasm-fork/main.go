package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-fork/abi"
	"github.com/wippyai/wasm-fork/capability"
	"github.com/wippyai/wasm-fork/config"
	"github.com/wippyai/wasm-fork/engine"
	"github.com/wippyai/wasm-fork/fork"
	"github.com/wippyai/wasm-fork/guest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg.BindFlags(flag.CommandLine)
	var (
		demo        = flag.Bool("demo", false, "Run the built-in sample guest instead of a file")
		list        = flag.Bool("list", false, "List the module's exports and imports and exit")
		interactive = flag.Bool("i", false, "Interactive mode with a live fork monitor")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: wasm-fork [flags] <module.wasm>")
		fmt.Fprintln(os.Stderr, "       wasm-fork [flags] -demo")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if (*demo && flag.NArg() != 0) || (!*demo && flag.NArg() != 1) {
		flag.Usage()
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()
	engine.SetLogger(logger)

	opts := options{
		cfg:         cfg,
		path:        flag.Arg(0),
		list:        *list,
		interactive: *interactive,
	}
	if *demo {
		opts.path = "<demo>"
		opts.wasm = guest.Sample()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	cfg         *config.Config
	path        string
	wasm        []byte
	list        bool
	interactive bool
}

func run(ctx context.Context, opts options) error {
	wasm := opts.wasm
	if wasm == nil {
		data, err := os.ReadFile(opts.path)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		wasm = data
	}

	policy, err := fork.ParseExitPolicy(opts.cfg.ExitPolicy)
	if err != nil {
		return err
	}

	eng, err := engine.New(ctx, &engine.Config{
		MemoryLimitPages:   opts.cfg.MemoryLimitPages,
		Namespace:          opts.cfg.Namespace,
		CloseOnContextDone: true,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(context.Background())

	if err := eng.RegisterHost(ctx, capability.HostFuncs()); err != nil {
		return fmt.Errorf("register host: %w", err)
	}

	mod, err := eng.Load(ctx, wasm)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.path, err)
	}

	if opts.list {
		printModule(opts.path, mod)
		return nil
	}

	runID := uuid.NewString()
	engine.Logger().Info("loaded module",
		zap.String("run", runID),
		zap.String("path", opts.path),
		zap.Int("bytes", len(wasm)),
		zap.String("exit_policy", string(policy)))

	if opts.interactive {
		return runMonitor(ctx, mod, opts, policy, runID)
	}

	exec := fork.NewExecutor(ctx, fork.NewHandle(mod), &fork.ExecutorConfig{
		Sink: capability.MultiSink{
			capability.NewWriterSink(os.Stdout),
			capability.NewLoggerSink(engine.Logger(), zapcore.DebugLevel),
		},
		RunID: runID,
	})

	runErr := exec.Run(ctx)
	return multierr.Append(runErr, exec.Shutdown(ctx, policy, opts.cfg.DrainTimeout))
}

func printModule(path string, mod *engine.Module) {
	exports := mod.Exports()
	imports := mod.Imports()
	sort.Strings(exports)
	sort.Strings(imports)

	fmt.Printf("Module: %s\n", path)
	fmt.Printf("\nExported functions:\n")
	for _, name := range exports {
		def := mod.ExportedFunction(name)
		fmt.Printf("  %s%s\n", name, abi.FormatTypes(def.ParamTypes(), def.ResultTypes()))
	}
	fmt.Printf("\nImports:\n")
	for _, name := range imports {
		fmt.Printf("  %s\n", name)
	}
}

// newLogger builds a console logger on a terminal and a JSON logger otherwise.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	format := cfg.LogFormat
	if format == "auto" {
		format = "json"
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = "console"
		}
	}

	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
