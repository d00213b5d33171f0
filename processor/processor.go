package processor

import (
	"context"
	"fmt"
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// ErrorWithPosition is an error that has source position information associated
// with it. The position indicates the location in a source file where the error
// was encountered.
type ErrorWithPosition struct {
	err error
	pos token.Position
}

// Error implements the error interface. It includes position information in the
// returned message.
func (e *ErrorWithPosition) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.pos.Filename, e.pos.Line, e.pos.Column, e.err.Error())
}

// Underlying returns the underlying error.
func (e *ErrorWithPosition) Underlying() error {
	return e.err
}

// Unwrap returns the underlying error, so that errors.Is and errors.As can
// see through the position.
func (e *ErrorWithPosition) Unwrap() error {
	return e.err
}

// Pos returns the location in source where the underlying error was
// encountered.
func (e *ErrorWithPosition) Pos() token.Position {
	return e.pos
}

// NewErrorWithPosition returns the given error, but associates it with the
// given source code location.
func NewErrorWithPosition(pos token.Position, err error) *ErrorWithPosition {
	return &ErrorWithPosition{err: err, pos: pos}
}

// Errorf is a shorthand for NewErrorWithPosition with a formatted message.
func Errorf(pos token.Position, format string, args ...interface{}) *ErrorWithPosition {
	return NewErrorWithPosition(pos, errors.Newf(format, args...))
}

// Processor is a function that acts on annotations and is invoked from the
// annotation processor tool. Typical processor implementations generate code
// based on the annotations present in source.
type Processor func(ctx *Context, output OutputFactory) error

// ProcessAll invokes all registered Processor instances to process the
// packages matched by the given patterns. If the given outputDir is blank,
// outputs are written into the source directories of the packages.
func ProcessAll(ctx context.Context, patterns []string, includeTests bool, outputDir string) error {
	return Process(ctx, patterns, includeTests, outputDir, AllRegisteredProcessors()...)
}

// Process invokes the given processors to process the packages matched by the
// given patterns.
func Process(ctx context.Context, patterns []string, includeTests bool, outputDir string, procs ...Processor) error {
	cfg := Config{
		Patterns:     patterns,
		IncludeTests: includeTests,
		Processors:   procs,
	}
	if outputDir != "" {
		cfg.OutputFactory = DefaultOutputFactory(outputDir)
	}
	return cfg.Execute(ctx)
}

// Config represents the configuration for running one or more Processors.
// Callers should configure the exported fields and then call the Execute
// method to actually invoke the processors.
type Config struct {
	// Dir is the directory in which patterns are resolved. If empty, the
	// current working directory is used.
	Dir string
	// Patterns select the packages to process, using the same syntax as the
	// go command, e.g. "./...".
	Patterns []string
	// IncludeTests causes _test.go files to be processed as well.
	IncludeTests bool
	Processors   []Processor
	// OutputFactory is used to write outputs. If nil, outputs are written
	// into the source directory of the package being processed.
	OutputFactory OutputFactory
	Logger        *zap.Logger
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Execute invokes the configured processors for the configured packages,
// writing outputs using the configured OutputFactory.
//
// Type errors in the loaded packages are tolerated, since sources commonly
// refer to members that have not been generated yet. Any other load error
// aborts processing.
func (cfg *Config) Execute(ctx context.Context) error {
	contexts, err := cfg.Load(ctx)
	if err != nil {
		return err
	}
	return cfg.Run(ctx, contexts)
}

// Run invokes the configured processors for already loaded packages. If no
// OutputFactory is configured, outputs go to the packages' source
// directories.
func (cfg *Config) Run(ctx context.Context, contexts []*Context) error {
	output := cfg.OutputFactory
	if output == nil {
		output = PackageDirOutputFactory(Packages(contexts))
	}
	for _, pctx := range contexts {
		if err := ctx.Err(); err != nil {
			return err
		}
		pctx.Logger.Debug("processing package", zap.Int("elements", pctx.NumElements()))
		for _, proc := range cfg.Processors {
			if err := proc(pctx, output); err != nil {
				return err
			}
		}
	}
	return nil
}

// Packages returns the package of each context.
func Packages(contexts []*Context) []*packages.Package {
	pkgs := make([]*packages.Package, len(contexts))
	for i, c := range contexts {
		pkgs[i] = c.Package
	}
	return pkgs
}

// Load loads the configured packages and extracts their annotations without
// invoking any processors. There is one context per package, in load order.
func (cfg *Config) Load(ctx context.Context) ([]*Context, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     cfg.Dir,
		Tests:   cfg.IncludeTests,
	}, patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load packages")
	}
	pkgs = selectPackages(pkgs)
	if err := checkLoadErrors(pkgs, logger); err != nil {
		return nil, err
	}

	contexts := make([]*Context, 0, len(pkgs))
	for _, pkg := range pkgs {
		pctx := newContext(pkg, logger.With(zap.String("package", pkg.PkgPath)))
		if err := pctx.computeAllAnnotations(); err != nil {
			return nil, err
		}
		contexts = append(contexts, pctx)
	}
	return contexts, nil
}

// selectPackages drops test binaries and, when a package has both a plain and
// a test variant, keeps only the variant with the most files.
func selectPackages(pkgs []*packages.Package) []*packages.Package {
	chosen := map[string]*packages.Package{}
	var order []string
	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.ID, ".test") {
			continue
		}
		prev, ok := chosen[pkg.PkgPath]
		if !ok {
			order = append(order, pkg.PkgPath)
			chosen[pkg.PkgPath] = pkg
			continue
		}
		if len(pkg.GoFiles) > len(prev.GoFiles) {
			chosen[pkg.PkgPath] = pkg
		}
	}
	result := make([]*packages.Package, len(order))
	for i, p := range order {
		result[i] = chosen[p]
	}
	return result
}

func checkLoadErrors(pkgs []*packages.Package, logger *zap.Logger) error {
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind == packages.TypeError {
				logger.Debug("ignoring type error", zap.String("package", pkg.PkgPath), zap.String("error", e.Msg))
				continue
			}
			return errors.Newf("failed to load package %s: %s", pkg.PkgPath, e.Error())
		}
	}
	return nil
}
