// Package progress implements the throttled progress-callback fan-out
// shared by every streaming component of the ingestion pipeline.
package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
)

// ByteProgress describes how much of a compressed input stream has been
// consumed so far.
type ByteProgress struct {
	TotalBytes   uint64
	CurrentBytes uint64
}

// Callback is invoked with the number of records processed so far, the
// current processing speed in records/second, and the compressed-byte
// progress of the underlying input stream. Callbacks are observer-only:
// they run on the reporting component's own goroutine and must not call
// back into the pipeline.
type Callback func(count uint64, speed float64, bytes ByteProgress)

// Reporter throttles calls to a set of registered Callbacks so that, at
// most, one report per component is emitted every RefreshRate. A forced
// report (typically issued at end-of-stream) always fires regardless of
// the throttle window.
type Reporter struct {
	clock       clock.Clock
	refreshRate time.Duration

	startedAt time.Time

	mu           sync.Mutex
	lastReportAt time.Time
	callbacks    []Callback

	count uint64 // accessed atomically from the producer goroutine
}

// New returns a Reporter that throttles callbacks to at most one every
// refreshRate. A nil clk defaults to the wall clock.
func New(refreshRate time.Duration, clk clock.Clock) *Reporter {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Reporter{
		clock:       clk,
		refreshRate: refreshRate,
		startedAt:   clk.Now(),
	}
}

// Subscribe registers cb to receive future progress reports. Subscribe
// is not safe to call concurrently with Report/Force.
func (r *Reporter) Subscribe(cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Report records that count records have now been processed in total
// and, if the refresh window has elapsed, fans the progress out to
// every subscribed callback. Report is safe to call from the single
// producer goroutine that owns this Reporter's count.
func (r *Reporter) Report(count uint64, bytes ByteProgress) {
	atomic.StoreUint64(&r.count, count)
	r.maybeEmit(bytes, false)
}

// Force emits a final report regardless of the throttle window,
// typically once at end-of-stream so observers see the true final
// count even if it arrived within the last refresh window.
func (r *Reporter) Force(bytes ByteProgress) {
	r.maybeEmit(bytes, true)
}

func (r *Reporter) maybeEmit(bytes ByteProgress, force bool) {
	now := r.clock.Now()

	r.mu.Lock()
	elapsedSinceReport := now.Sub(r.lastReportAt)
	if !force && r.lastReportAt.After(time.Time{}) && elapsedSinceReport < r.refreshRate {
		r.mu.Unlock()
		return
	}
	r.lastReportAt = now
	callbacks := r.callbacks
	r.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}

	count := atomic.LoadUint64(&r.count)
	speed := r.speed(count, now)
	for _, cb := range callbacks {
		cb(count, speed, bytes)
	}
}

func (r *Reporter) speed(count uint64, now time.Time) float64 {
	elapsed := now.Sub(r.startedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed
}

// Layer describes the state of a breadth-first search at the moment a
// layered progress report is emitted.
type Layer struct {
	CurrentLayer       int
	LayerSize          int
	LayerExploredCount int
	TotalExploredNodes int
}

// LayeredCallback is invoked by the BFS engine with its current layer
// progress. Like Callback, it is observer-only.
type LayeredCallback func(Layer)

// LayeredReporter throttles BFS layer-progress reports the same way
// Reporter throttles record-count reports; it is a separate, smaller
// type because layered progress carries different fields and has no
// meaningful "speed".
type LayeredReporter struct {
	clock       clock.Clock
	refreshRate time.Duration

	mu           sync.Mutex
	lastReportAt time.Time
	callbacks    []LayeredCallback
}

// NewLayered returns a LayeredReporter throttled to refreshRate. A nil
// clk defaults to the wall clock.
func NewLayered(refreshRate time.Duration, clk clock.Clock) *LayeredReporter {
	if clk == nil {
		clk = clock.WallClock
	}
	return &LayeredReporter{clock: clk, refreshRate: refreshRate}
}

// Subscribe registers cb to receive future layer-progress reports.
func (r *LayeredReporter) Subscribe(cb LayeredCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Report emits l to every subscribed callback if the refresh window has
// elapsed, or unconditionally if force is true.
func (r *LayeredReporter) Report(l Layer, force bool) {
	now := r.clock.Now()

	r.mu.Lock()
	elapsed := now.Sub(r.lastReportAt)
	if !force && r.lastReportAt.After(time.Time{}) && elapsed < r.refreshRate {
		r.mu.Unlock()
		return
	}
	r.lastReportAt = now
	callbacks := r.callbacks
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(l)
	}
}
