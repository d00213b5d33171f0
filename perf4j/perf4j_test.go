package perf4j

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestStopWatch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	sw := newStopWatch("job", clock.Now)
	assert.Equal(t, "job", sw.Tag())
	assert.Zero(t, sw.Elapsed())
	assert.Zero(t, sw.Lap("early"), "laps of a stopped watch are ignored")

	sw.Start()
	clock.Advance(2 * time.Second)
	assert.Equal(t, 2*time.Second, sw.Elapsed())
	assert.Equal(t, 2*time.Second, sw.Lap("first"))
	clock.Advance(3 * time.Second)
	assert.Equal(t, 3*time.Second, sw.Lap("second"))
	clock.Advance(time.Second)
	assert.Equal(t, 6*time.Second, sw.Stop())

	clock.Advance(time.Minute)
	assert.Equal(t, 6*time.Second, sw.Elapsed())
	assert.Equal(t, 6*time.Second, sw.Stop())
	assert.Equal(t, []Lap{{"first", 2 * time.Second}, {"second", 3 * time.Second}}, sw.Laps())

	sw.SetTag("again")
	sw.Start()
	assert.Empty(t, sw.Laps())
	assert.Equal(t, "again", sw.Tag())
}

func TestDefaultProvider(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewDefaultProvider(zap.New(core))
	clock := &fakeClock{now: time.Unix(1000, 0)}
	p.clock = clock.Now

	err := p.WithStopwatchTagged("load", func(sw *StopWatch) error {
		clock.Advance(time.Second)
		sw.Lap("read")
		clock.Advance(time.Second)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = p.WithStopwatch(func(sw *StopWatch) error {
		return boom
	})
	assert.Same(t, boom, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "stopwatch", entries[0].Message)
	assert.Equal(t, "load", first["tag"])
	assert.Equal(t, 2*time.Second, first["elapsed"])
	assert.Equal(t, time.Second, first["lap.read"])
	second := entries[1].ContextMap()
	assert.Equal(t, "", second["tag"])
	assert.Equal(t, "boom", second["error"])

	assert.ErrorIs(t, p.WithStopwatch(nil), ErrNilFunc)
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
	var p Provider = Default()
	require.NoError(t, p.WithStopwatch(func(*StopWatch) error { return nil }))

	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)
	require.NoError(t, Default().WithStopwatchTagged("x", func(*StopWatch) error { return nil }))
	assert.Equal(t, 1, logs.Len())
}
