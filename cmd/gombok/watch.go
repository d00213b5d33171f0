package main

import (
	"context"
	"io"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jhump/gombok/internal/watch"
	"github.com/jhump/gombok/processor"
)

func (a *app) newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [patterns...]",
		Short: "Regenerate whenever Go sources change",
		Long: `Run generate for the packages matched by the given patterns
(default "./..."), then watch their directories and run it again whenever a
Go source file changes. Generated files and the tool's own edits do not
trigger a run. Directories of packages added later are not watched until
the command is restarted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), cmd.OutOrStdout(), patternsOrDefault(args))
		},
	}
	a.cfg.BindGenerateFlags(cmd.Flags())
	a.cfg.BindWatchFlags(cmd.Flags())
	return cmd
}

func (a *app) watch(ctx context.Context, out io.Writer, patterns []string) error {
	var w *watch.Watcher
	markOwnWrites := func(contexts []*processor.Context, next processor.OutputFactory) processor.OutputFactory {
		dirs := packageDirs(contexts)
		return func(p string) (io.WriteCloser, error) {
			pkgPath, name := path.Split(p)
			if dir, ok := dirs[path.Clean(pkgPath)]; ok && w != nil && a.cfg.OutputDir == "" {
				w.MarkOwnWrite(filepath.Join(dir, name))
			}
			return next(p)
		}
	}

	written, contexts, err := a.generate(ctx, patterns, markOwnWrites)
	if err != nil {
		return err
	}
	reportWritten(out, written)

	var dirs []string
	for _, dir := range packageDirs(contexts) {
		dirs = append(dirs, dir)
	}
	w, err = watch.New(dirs, a.cfg.WatchDebounce, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()
	a.logger.Info("watching for changes", zap.Int("directories", len(dirs)))

	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		a.logger.Info("sources changed", zap.Strings("files", changed))
		written, _, err := a.generate(ctx, patterns, markOwnWrites)
		if err != nil {
			return err
		}
		reportWritten(out, written)
		return nil
	})
}

// packageDirs maps the import path of each loaded package to its source
// directory.
func packageDirs(contexts []*processor.Context) map[string]string {
	dirs := map[string]string{}
	for _, c := range contexts {
		if len(c.Package.GoFiles) > 0 {
			dirs[c.Package.PkgPath] = filepath.Dir(c.Package.GoFiles[0])
		}
	}
	return dirs
}
