package perf4j

import "time"

// Lap is a section of a stopwatch's run.
type Lap struct {
	Tag     string
	Elapsed time.Duration
}

// StopWatch measures elapsed time. It is not safe for concurrent use.
type StopWatch struct {
	tag     string
	clock   func() time.Time
	started time.Time
	lapFrom time.Time
	elapsed time.Duration
	running bool
	laps    []Lap
}

// NewStopWatch returns a stopped stopwatch with the given tag.
func NewStopWatch(tag string) *StopWatch {
	return newStopWatch(tag, time.Now)
}

func newStopWatch(tag string, clock func() time.Time) *StopWatch {
	return &StopWatch{tag: tag, clock: clock}
}

// Tag returns the stopwatch's tag.
func (sw *StopWatch) Tag() string {
	return sw.tag
}

// SetTag changes the stopwatch's tag.
func (sw *StopWatch) SetTag(tag string) {
	sw.tag = tag
}

// Start starts (or restarts) the stopwatch, discarding previous laps.
func (sw *StopWatch) Start() *StopWatch {
	now := sw.clock()
	sw.started, sw.lapFrom = now, now
	sw.elapsed = 0
	sw.laps = nil
	sw.running = true
	return sw
}

// Stop stops the stopwatch and returns the total elapsed time. Stopping a
// stopwatch that is not running has no effect.
func (sw *StopWatch) Stop() time.Duration {
	if sw.running {
		sw.elapsed = sw.clock().Sub(sw.started)
		sw.running = false
	}
	return sw.elapsed
}

// Lap records the time since the previous lap (or since the start) under the
// given tag and returns it. It returns zero if the stopwatch is not running.
func (sw *StopWatch) Lap(tag string) time.Duration {
	if !sw.running {
		return 0
	}
	now := sw.clock()
	d := now.Sub(sw.lapFrom)
	sw.lapFrom = now
	sw.laps = append(sw.laps, Lap{Tag: tag, Elapsed: d})
	return d
}

// Laps returns the laps recorded since the stopwatch was started.
func (sw *StopWatch) Laps() []Lap {
	return append([]Lap(nil), sw.laps...)
}

// Elapsed returns the time elapsed so far if the stopwatch is running, or the
// total time of the last run if it is stopped.
func (sw *StopWatch) Elapsed() time.Duration {
	if sw.running {
		return sw.clock().Sub(sw.started)
	}
	return sw.elapsed
}
