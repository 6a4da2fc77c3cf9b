package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/juju/clock"
)

// fakeClock is a minimal clock.Clock whose Now() is advanced explicitly
// by the test, so refresh-rate throttling can be exercised without
// sleeping real time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now().Add(d)
	return ch
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	f()
	return noopTimer{}
}

func (c *fakeClock) NewTimer(d time.Duration) clock.Timer {
	return noopTimer{}
}

// noopTimer is a no-op stand-in; the reporter never starts timers of its
// own, it only reads Now().
type noopTimer struct{}

func (noopTimer) Chan() <-chan time.Time { return nil }
func (noopTimer) Reset(time.Duration) bool { return true }
func (noopTimer) Stop() bool               { return true }

func TestReporterThrottles(t *testing.T) {
	fc := newFakeClock(time.Unix(0, 0))
	r := New(200*time.Millisecond, nil)
	r.clock = fc
	r.startedAt = fc.Now()

	var reports []uint64
	r.Subscribe(func(count uint64, speed float64, bytes ByteProgress) {
		reports = append(reports, count)
	})

	r.Report(1, ByteProgress{})
	r.Report(2, ByteProgress{})
	r.Report(3, ByteProgress{})
	if len(reports) != 1 {
		t.Fatalf("expected exactly one report within the throttle window, got %v", reports)
	}

	fc.Advance(250 * time.Millisecond)
	r.Report(4, ByteProgress{})
	if len(reports) != 2 {
		t.Fatalf("expected a second report after the throttle window elapsed, got %v", reports)
	}
	if reports[1] != 4 {
		t.Errorf("expected last report count 4, got %d", reports[1])
	}
}

func TestReporterForceBypassesThrottle(t *testing.T) {
	fc := newFakeClock(time.Unix(0, 0))
	r := New(time.Hour, nil)
	r.clock = fc
	r.startedAt = fc.Now()

	var reports int
	r.Subscribe(func(count uint64, speed float64, bytes ByteProgress) { reports++ })

	r.Report(1, ByteProgress{})
	r.Force(ByteProgress{})
	if reports != 2 {
		t.Fatalf("expected 2 reports (one throttled-through-first-call, one forced), got %d", reports)
	}
}

func TestLayeredReporterThrottles(t *testing.T) {
	fc := newFakeClock(time.Unix(0, 0))
	r := NewLayered(200*time.Millisecond, fc)

	var layers []Layer
	r.Subscribe(func(l Layer) { layers = append(layers, l) })

	r.Report(Layer{CurrentLayer: 0}, false)
	r.Report(Layer{CurrentLayer: 1}, false)
	if len(layers) != 1 {
		t.Fatalf("expected one throttled report, got %v", layers)
	}

	r.Report(Layer{CurrentLayer: 2}, true)
	if len(layers) != 2 {
		t.Fatalf("expected forced report to bypass throttle, got %v", layers)
	}
}
