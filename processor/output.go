package processor

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"
)

// OutputFactory is a function that creates a writer to an output for the
// given location. Output factories typically use os.OpenFile to create files
// but this function allows the behavior to be customized.
//
// The path given to a factory is the Go import path of a package joined with
// a file name, like "github.com/foo/bar/bar_gombok.go".
type OutputFactory func(path string) (io.WriteCloser, error)

// DefaultOutputFactory returns an OutputFactory that writes files under the
// given root directory. The actual full path will be <rootDir>/<path>.
//
// After computing the destination path, os.OpenFile is used to open the file
// for writing (creating the file if necessary, truncating it if it already
// exists).
func DefaultOutputFactory(rootDir string) OutputFactory {
	return func(p string) (io.WriteCloser, error) {
		dest := filepath.Join(rootDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "could not create output directory for %s", p)
		}
		return os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0666)
	}
}

// PackageDirOutputFactory returns an OutputFactory that writes files into the
// source directories of the given packages. It is the factory used when a
// Config does not specify one.
func PackageDirOutputFactory(pkgs []*packages.Package) OutputFactory {
	dirs := map[string]string{}
	for _, pkg := range pkgs {
		if len(pkg.GoFiles) > 0 {
			dirs[pkg.PkgPath] = filepath.Dir(pkg.GoFiles[0])
		}
	}
	return func(p string) (io.WriteCloser, error) {
		pkgPath, name := path.Split(p)
		dir, ok := dirs[path.Clean(pkgPath)]
		if !ok {
			return nil, errors.Newf("could not determine output directory for package %q", path.Clean(pkgPath))
		}
		return os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0666)
	}
}

// MemoryOutput collects outputs in memory instead of writing them anywhere.
// It is used for dry runs and in tests. It is safe for concurrent use.
type MemoryOutput struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemoryOutput returns an empty MemoryOutput.
func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{files: map[string][]byte{}}
}

// Factory returns an OutputFactory that writes into m. Contents are recorded
// when the writer is closed.
func (m *MemoryOutput) Factory() OutputFactory {
	return func(p string) (io.WriteCloser, error) {
		return &memoryFile{out: m, path: p}, nil
	}
}

// Get returns the contents written to the given path.
func (m *MemoryOutput) Get(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	return data, ok
}

// Paths returns all paths written so far, sorted.
func (m *MemoryOutput) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

type memoryFile struct {
	bytes.Buffer
	out  *MemoryOutput
	path string
}

func (f *memoryFile) Close() error {
	f.out.mu.Lock()
	defer f.out.mu.Unlock()
	f.out.files[f.path] = append([]byte(nil), f.Bytes()...)
	return nil
}
