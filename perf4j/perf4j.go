// Package perf4j is a small performance-measurement API. Code blocks are
// timed with a StopWatch and the timings are reported by a Provider.
//
// Types annotated with @gombok.Perf4jAware hold a Provider and expose its
// methods, so a measured section reads:
//
//	err := svc.WithStopwatchTagged("load", func(sw *perf4j.StopWatch) error {
//		...
//		sw.Lap("parsed")
//		...
//		return nil
//	})
package perf4j

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Provider times functions with a StopWatch.
type Provider interface {
	// WithStopwatch runs fn with a started, untagged stopwatch, reports the
	// timing when fn returns, and returns fn's error.
	WithStopwatch(fn func(*StopWatch) error) error
	// WithStopwatchTagged is like WithStopwatch but tags the stopwatch.
	WithStopwatchTagged(tag string, fn func(*StopWatch) error) error
}

// ErrNilFunc is returned when a Provider is asked to time a nil function.
var ErrNilFunc = errors.New("perf4j: nil function")

// DefaultProvider reports timings to a zap logger at info level.
type DefaultProvider struct {
	mu     sync.RWMutex
	logger *zap.Logger
	clock  func() time.Time
}

var _ Provider = (*DefaultProvider)(nil)

// NewDefaultProvider returns a provider that logs to the given logger. A nil
// logger discards timings.
func NewDefaultProvider(logger *zap.Logger) *DefaultProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultProvider{logger: logger, clock: time.Now}
}

var defaultProvider = NewDefaultProvider(nil)

// Default returns the process-wide default provider. Until SetLogger is
// called, it discards timings.
func Default() *DefaultProvider {
	return defaultProvider
}

// SetLogger sets the logger of the process-wide default provider.
func SetLogger(logger *zap.Logger) {
	defaultProvider.SetLogger(logger)
}

// SetLogger sets the logger to which p reports. A nil logger discards
// timings.
func (p *DefaultProvider) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// WithStopwatch implements Provider.
func (p *DefaultProvider) WithStopwatch(fn func(*StopWatch) error) error {
	return p.WithStopwatchTagged("", fn)
}

// WithStopwatchTagged implements Provider.
func (p *DefaultProvider) WithStopwatchTagged(tag string, fn func(*StopWatch) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	sw := newStopWatch(tag, p.clock).Start()
	err := fn(sw)
	elapsed := sw.Stop()

	p.mu.RLock()
	logger := p.logger
	p.mu.RUnlock()

	fields := []zap.Field{zap.String("tag", sw.Tag()), zap.Duration("elapsed", elapsed)}
	for _, l := range sw.Laps() {
		fields = append(fields, zap.Duration("lap."+l.Tag, l.Elapsed))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Info("stopwatch", fields...)
	return err
}
