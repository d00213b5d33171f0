package main

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jhump/gombok/perf4j"
	"github.com/jhump/gombok/processor"
)

func (a *app) newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [patterns...]",
		Short: "Inject fields and methods into annotated types",
		Long: `Process the packages matched by the given patterns (default "./...").

Provider fields are added to the annotated struct declarations in place.
Accessors and delegating methods are written to <pkgname>_gombok.go, or
to <pkgname>_gombok_test.go for types declared in _test.go files. Running
generate again on unchanged sources produces the same output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, _, err := a.generate(cmd.Context(), patternsOrDefault(args), nil)
			if err != nil {
				return err
			}
			reportWritten(cmd.OutOrStdout(), written)
			return nil
		},
	}
	a.cfg.BindGenerateFlags(cmd.Flags())
	return cmd
}

func reportWritten(out io.Writer, written []string) {
	if len(written) == 0 {
		pterm.Info.WithWriter(out).Println("no annotated types found")
		return
	}
	for _, p := range written {
		pterm.Info.WithWriter(out).Println(p)
	}
	pterm.Success.WithWriter(out).Printfln("wrote %d file(s)", len(written))
}

// generate runs the registered processors on the packages matched by
// patterns and returns the sorted output paths that were written. The
// contexts of the loaded packages are returned too, even when processing
// fails. If wrap is not nil, it is applied to the output factory.
func (a *app) generate(ctx context.Context, patterns []string, wrap func([]*processor.Context, processor.OutputFactory) processor.OutputFactory) ([]string, []*processor.Context, error) {
	cfg := a.loaderConfig(patterns)
	cfg.Processors = a.processors()

	var (
		contexts []*processor.Context
		rec      recordingOutput
	)
	err := a.timer.WithStopwatchTagged("generate", func(sw *perf4j.StopWatch) error {
		var err error
		contexts, err = cfg.Load(ctx)
		if err != nil {
			return err
		}
		sw.Lap("load")

		var out processor.OutputFactory
		if a.cfg.OutputDir != "" {
			out = processor.DefaultOutputFactory(a.cfg.OutputDir)
		} else {
			out = processor.PackageDirOutputFactory(processor.Packages(contexts))
		}
		if wrap != nil {
			out = wrap(contexts, out)
		}
		cfg.OutputFactory = rec.wrap(out)
		return cfg.Run(ctx, contexts)
	})
	return rec.paths(), contexts, err
}

// recordingOutput remembers the paths of outputs that were opened.
type recordingOutput struct {
	mu      sync.Mutex
	written map[string]struct{}
}

func (r *recordingOutput) wrap(out processor.OutputFactory) processor.OutputFactory {
	return func(p string) (io.WriteCloser, error) {
		w, err := out(p)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.written == nil {
			r.written = map[string]struct{}{}
		}
		r.written[p] = struct{}{}
		return w, nil
	}
}

func (r *recordingOutput) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.written))
	for p := range r.written {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
