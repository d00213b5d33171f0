package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIsRelevant(t *testing.T) {
	testCases := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"service.go", fsnotify.Write, true},
		{"service_test.go", fsnotify.Create, true},
		{"service.go", fsnotify.Remove, true},
		{"service.go", fsnotify.Rename, true},
		{"service.go", fsnotify.Chmod, false},
		{"demo_gombok.go", fsnotify.Write, false},
		{"demo_gombok_test.go", fsnotify.Write, false},
		{"notes.txt", fsnotify.Write, false},
		{".service.go", fsnotify.Write, false},
	}
	for _, tc := range testCases {
		ev := fsnotify.Event{Name: filepath.Join("pkg", tc.name), Op: tc.op}
		assert.Equal(t, tc.want, IsRelevant(ev), "%s %s", tc.name, tc.op)
	}
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan []string) {
	w, err := New([]string{dir}, 200*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			runs <- changed
			return errors.New("reported, not fatal")
		})
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		require.NoError(t, w.Close())
	})
	return w, runs
}

func receive(t *testing.T, runs <-chan []string) []string {
	select {
	case changed := <-runs:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	_, runs := startWatcher(t, dir)

	a := filepath.Join(dir, "a.go")
	b := filepath.Join(dir, "b.go")
	require.NoError(t, os.WriteFile(a, []byte("package demo\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("package demo\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo_gombok.go"), []byte("package demo\n"), 0644))

	assert.Equal(t, []string{a, b}, receive(t, runs))

	require.NoError(t, os.WriteFile(a, []byte("package demo\n\n"), 0644))
	assert.Equal(t, []string{a}, receive(t, runs), "keeps watching after a failed run")
}

func TestWatcher_IgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	w, runs := startWatcher(t, dir)

	own := filepath.Join(dir, "own.go")
	w.MarkOwnWrite(own)
	require.NoError(t, os.WriteFile(own, []byte("package demo\n"), 0644))
	user := filepath.Join(dir, "user.go")
	require.NoError(t, os.WriteFile(user, []byte("package demo\n"), 0644))

	assert.Equal(t, []string{user}, receive(t, runs))
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, time.Millisecond, nil)
	assert.ErrorContains(t, err, "failed to watch directory")
}
