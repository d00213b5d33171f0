// Package watch reruns generation when Go sources change.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called with the sorted, de-duplicated paths that changed
// during a debounce period.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches directories for changes to Go source files. Files generated
// by gombok are ignored, as are files the watcher is told it wrote itself.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	// OwnWriteGrace is how long after MarkOwnWrite events for the path are
	// ignored.
	OwnWriteGrace time.Duration

	mu        sync.Mutex
	ownWrites map[string]time.Time
}

// New returns a watcher of the given directories. Subdirectories are not
// watched.
func New(dirs []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, errors.Wrapf(err, "failed to watch directory %s", dir)
		}
	}
	return &Watcher{
		fsw:           fsw,
		debounce:      debounce,
		logger:        logger,
		OwnWriteGrace: time.Second,
		ownWrites:     map[string]time.Time{},
	}, nil
}

// MarkOwnWrite records that the caller is about to write path, so the events
// it causes do not trigger another run.
func (w *Watcher) MarkOwnWrite(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ownWrites[filepath.Clean(path)] = time.Now()
}

func (w *Watcher) isOwnWrite(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	at, ok := w.ownWrites[path]
	if !ok {
		return false
	}
	if time.Since(at) > w.OwnWriteGrace {
		delete(w.ownWrites, path)
		return false
	}
	return true
}

// Run delivers changes to fn until ctx is done or the watcher is closed. An
// error from fn is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = map[string]struct{}{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !IsRelevant(event) {
				continue
			}
			if w.isOwnWrite(path) {
				w.logger.Debug("ignoring own write", zap.String("file", path))
				continue
			}
			w.logger.Debug("change detected", zap.String("file", path), zap.String("op", event.Op.String()))
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]struct{}{}
			if err := fn(ctx, changed); err != nil {
				w.logger.Error("regeneration failed", zap.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// IsRelevant reports whether the event concerns a hand-written Go source file
// and could change what gets generated.
func IsRelevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".go") || strings.HasPrefix(base, ".") {
		return false
	}
	return !strings.HasSuffix(base, "_gombok.go") && !strings.HasSuffix(base, "_gombok_test.go")
}
