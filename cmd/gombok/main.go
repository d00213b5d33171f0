// Command gombok injects provider fields, accessors, and delegating methods
// into struct types annotated with @gombok.Perf4jAware or
// @gombok.ProviderAware.
//
// Usage:
//
//	gombok generate [patterns...]
//	gombok plan [patterns...]
//	gombok watch [patterns...]
//	gombok providers
//
// Patterns use the syntax of the go command and default to "./...". Flags
// can also be set with GOMBOK_* environment variables, e.g.
// GOMBOK_PROVIDERS=metrics.yaml.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jhump/gombok"
	"github.com/jhump/gombok/handlers"
	"github.com/jhump/gombok/internal/config"
	"github.com/jhump/gombok/internal/logger"
	"github.com/jhump/gombok/perf4j"
	"github.com/jhump/gombok/processor"
	"github.com/jhump/gombok/providers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := newRootCommand(cfg, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	pterm.Error.WithWriter(w).Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.WithWriter(w).Println(hint)
	}
}

// app is the state shared by the subcommands. It is populated by the root
// command's pre-run hook, after flags are parsed.
type app struct {
	cfg      *config.Config
	dir      string
	logErr   io.Writer
	logger   *zap.Logger
	registry *providers.Registry
	timer    perf4j.Provider
}

func newRootCommand(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	a := &app{cfg: cfg, logErr: stderr}
	root := &cobra.Command{
		Use:   "gombok",
		Short: "Inject instrumentation providers into annotated Go types",
		Long: `gombok processes struct types annotated in their doc comments:

  // @gombok.Perf4jAware
  type Service struct { ... }

For each annotated type it adds a private provider field to the struct, and
generates a setter, a getter, and methods that delegate to the provider into
a <pkgname>_gombok.go file next to the sources.

Examples:
  gombok generate                    # process ./...
  gombok plan ./internal/...         # show what would be generated
  gombok generate -p metrics.yaml    # also wire providers declared in a file
  gombok watch                       # regenerate when sources change`,
		Version:       gombok.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	cfg.BindGlobalFlags(root.PersistentFlags())
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", "", "Resolve patterns relative to this directory")

	root.AddCommand(
		a.newGenerateCommand(),
		a.newPlanCommand(),
		a.newWatchCommand(),
		a.newProvidersCommand(),
	)
	return root
}

func (a *app) setup() error {
	l, err := logger.NewWithWriter(a.logErr, a.cfg.LogLevel, a.cfg.LogJSON)
	if err != nil {
		return err
	}
	a.logger = l
	a.timer = perf4j.NewDefaultProvider(l.Named("timing"))

	a.registry = providers.NewRegistry()
	for _, path := range a.cfg.Providers {
		if err := a.registry.LoadFile(path); err != nil {
			return errors.Wrap(err, "failed to load provider definitions")
		}
		l.Debug("loaded provider definitions", zap.String("file", path))
	}
	processor.RegisterProcessor(handlers.ProcessorName, handlers.Processor(a.registry, l))
	return nil
}

func patternsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}
	return args
}

// loaderConfig returns the processor configuration for the given patterns,
// without processors or output.
func (a *app) loaderConfig(patterns []string) processor.Config {
	return processor.Config{
		Dir:          a.dir,
		Patterns:     patterns,
		IncludeTests: a.cfg.IncludeTests,
		Logger:       a.logger,
	}
}

func (a *app) processors() []processor.Processor {
	return processor.AllRegisteredProcessors()
}
