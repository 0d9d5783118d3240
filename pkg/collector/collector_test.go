package collector

import (
	"sync"
	"testing"
	"time"

	"github.com/affectlab/gazeflow/pkg/signal"
)

// fakeClock drives window boundaries deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AdvanceTo moves the clock to the given offset (ms) past the epoch
// instant the collector saw at Start.
func (f *fakeClock) AdvanceTo(ms int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = time.Unix(1700000000, 0).Add(time.Duration(ms) * time.Millisecond)
}

// windowRecorder captures consumed windows.
type windowRecorder struct {
	mu      sync.Mutex
	windows []signal.Window
}

func (r *windowRecorder) consume(w signal.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, w)
}

func (r *windowRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

func (r *windowRecorder) at(i int) signal.Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows[i]
}

func newTestCollector(t *testing.T) (*Collector, *fakeClock, *windowRecorder) {
	t.Helper()
	clock := newFakeClock()
	rec := &windowRecorder{}
	col := New(Config{
		WindowSize: 10 * time.Second,
		Clock:      clock.Now,
	}, rec.consume)
	return col, clock, rec
}

func gazeAt(t int64) signal.GazePoint {
	return signal.GazePoint{T: t, X: 10, Y: 10, AOI: signal.AOINone}
}

func TestScenario_SingleWindowEmittedOnce(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()

	col.AddGaze(signal.GazePoint{T: 500, X: 10, Y: 10, AOI: "NONE"})
	col.AddGaze(signal.GazePoint{T: 9500, X: 12, Y: 11, AOI: "p1"})

	clock.AdvanceTo(10001)
	col.CheckWindowComplete()

	if rec.count() != 1 {
		t.Fatalf("windows emitted = %d, want 1", rec.count())
	}
	w := rec.at(0)
	if w.WindowID != "window_0" {
		t.Errorf("WindowID = %v, want window_0", w.WindowID)
	}
	if w.StartTime != 0 || w.EndTime != 10000 {
		t.Errorf("bounds = [%d, %d), want [0, 10000)", w.StartTime, w.EndTime)
	}
	if len(w.Gaze) != 2 {
		t.Errorf("gaze points = %d, want 2", len(w.Gaze))
	}
	if len(w.Interactions) != 0 || len(w.HeartRate) != 0 {
		t.Errorf("interactions/heartRate = %d/%d, want 0/0", len(w.Interactions), len(w.HeartRate))
	}

	// A second check must not re-emit window 0
	clock.AdvanceTo(10002)
	col.CheckWindowComplete()
	if rec.count() != 1 {
		t.Errorf("windows emitted after second check = %d, want 1", rec.count())
	}
}

func TestExactlyOnce_ManyChecksInterleaved(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()

	// Three complete windows, each with gaze
	for _, ts := range []int64{1000, 11000, 21000} {
		col.AddGaze(gazeAt(ts))
	}

	clock.AdvanceTo(30500)
	// One window per check, extra checks are harmless
	for i := 0; i < 10; i++ {
		col.CheckWindowComplete()
	}

	if rec.count() != 3 {
		t.Fatalf("windows emitted = %d, want 3", rec.count())
	}
	for i, want := range []string{"window_0", "window_1", "window_2"} {
		if got := rec.at(i).WindowID; got != want {
			t.Errorf("window %d = %v, want %v", i, got, want)
		}
	}
}

func TestOneWindowPerCheck(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()

	col.AddGaze(gazeAt(1000))
	col.AddGaze(gazeAt(11000))

	clock.AdvanceTo(20001)
	col.CheckWindowComplete()
	if rec.count() != 1 {
		t.Fatalf("after first check: emitted = %d, want 1", rec.count())
	}
	col.CheckWindowComplete()
	if rec.count() != 2 {
		t.Fatalf("after second check: emitted = %d, want 2", rec.count())
	}
}

func TestNoSignalSkip(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()

	// Window 0 has no gaze; window 1 does
	col.AddGaze(gazeAt(15000))

	clock.AdvanceTo(20001)
	for i := 0; i < 5; i++ {
		col.CheckWindowComplete()
	}

	if rec.count() != 1 {
		t.Fatalf("windows emitted = %d, want 1", rec.count())
	}
	if got := rec.at(0).WindowID; got != "window_1" {
		t.Errorf("WindowID = %v, want window_1 (window_0 skipped forever)", got)
	}
}

func TestLateGaze_RecoveredByScanFromZero(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()

	// Window 1 fills first; window 0 is empty at the first check
	col.AddGaze(gazeAt(12000))
	clock.AdvanceTo(20001)
	col.CheckWindowComplete()
	if rec.count() != 1 {
		t.Fatalf("windows emitted = %d, want 1", rec.count())
	}
	if got := rec.at(0).WindowID; got != "window_1" {
		t.Fatalf("first emission = %v, want window_1", got)
	}

	// Late-arriving sample for window 0 (still within the pruning
	// horizon) must be recovered on the next check
	col.AddGaze(gazeAt(5000))
	if rec.count() != 2 {
		t.Fatalf("windows emitted = %d, want 2", rec.count())
	}
	if got := rec.at(1).WindowID; got != "window_0" {
		t.Errorf("recovered window = %v, want window_0", got)
	}
}

func TestPruning_BoundsBuffers(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()

	col.AddGaze(gazeAt(500))
	col.AddInteractionAt(signal.InteractionClick, 600)
	col.AddHeartRateAt(72, 700)
	col.AddGaze(gazeAt(11000))
	col.AddGaze(gazeAt(21000))

	clock.AdvanceTo(30001)
	col.CheckWindowComplete() // window_0
	col.CheckWindowComplete() // window_1
	col.CheckWindowComplete() // window_2

	if rec.count() != 3 {
		t.Fatalf("windows emitted = %d, want 3", rec.count())
	}

	// After emitting window 2 (start 20000), cutoff is 10000:
	// nothing older may survive in any buffer
	g, i, h := col.BufferSizes()
	if g != 2 {
		t.Errorf("gaze buffered = %d, want 2 (t=11000 and t=21000)", g)
	}
	if i != 0 {
		t.Errorf("interactions buffered = %d, want 0", i)
	}
	if h != 0 {
		t.Errorf("heart-rate buffered = %d, want 0", h)
	}
}

func TestAddsIgnoredWhileStopped(t *testing.T) {
	col, _, _ := newTestCollector(t)

	// Never started: everything is a silent no-op
	col.AddGaze(gazeAt(100))
	col.AddInteraction(signal.InteractionClick)
	col.AddHeartRate(70)
	col.CheckWindowComplete()

	g, i, h := col.BufferSizes()
	if g+i+h != 0 {
		t.Errorf("buffers = %d/%d/%d, want all empty", g, i, h)
	}

	col.Start()
	col.AddGaze(gazeAt(100))
	col.Stop()

	// Stopped: adds ignored, buffers preserved for export
	col.AddGaze(gazeAt(200))
	g, _, _ = col.BufferSizes()
	if g != 1 {
		t.Errorf("gaze buffered after stop = %d, want 1", g)
	}
}

func TestStop_SuppressesEmission(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()
	col.AddGaze(gazeAt(1000))
	col.Stop()

	clock.AdvanceTo(20000)
	col.CheckWindowComplete()
	if rec.count() != 0 {
		t.Errorf("windows emitted after stop = %d, want 0", rec.count())
	}
}

func TestReset_ClearsUnconditionally(t *testing.T) {
	col, _, _ := newTestCollector(t)
	col.Start()
	col.AddGaze(gazeAt(100))
	col.Stop()

	col.Reset()
	g, i, h := col.BufferSizes()
	if g+i+h != 0 {
		t.Errorf("buffers after reset = %d/%d/%d, want all empty", g, i, h)
	}
	if col.Recording() {
		t.Error("recording after reset, want stopped")
	}
}

func TestStart_ClearsEmittedSet(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()
	col.AddGaze(gazeAt(1000))
	clock.AdvanceTo(10001)
	col.CheckWindowComplete()
	if rec.count() != 1 {
		t.Fatalf("windows emitted = %d, want 1", rec.count())
	}

	// New session: window index 0 is emittable again
	clock.AdvanceTo(0)
	col.Start()
	col.AddGaze(gazeAt(1000))
	clock.AdvanceTo(10001)
	col.CheckWindowComplete()
	if rec.count() != 2 {
		t.Errorf("windows emitted across sessions = %d, want 2", rec.count())
	}
}

func TestNilConsumer_StillMarksAndPrunes(t *testing.T) {
	clock := newFakeClock()
	col := New(Config{WindowSize: 10 * time.Second, Clock: clock.Now}, nil)
	col.Start()

	col.AddGaze(gazeAt(1000))
	clock.AdvanceTo(10001)
	col.CheckWindowComplete()

	if col.EmittedCount() != 1 {
		t.Errorf("emitted count = %d, want 1 (dropped window still marked)", col.EmittedCount())
	}

	// No re-emission on later checks
	clock.AdvanceTo(10500)
	col.CheckWindowComplete()
	if col.EmittedCount() != 1 {
		t.Errorf("emitted count = %d, want 1", col.EmittedCount())
	}
}

func TestAddGazeTriggersCheck(t *testing.T) {
	col, clock, rec := newTestCollector(t)
	col.Start()
	col.AddGaze(gazeAt(1000))

	// The add itself lands after the window elapsed; no explicit check
	clock.AdvanceTo(10500)
	col.AddGaze(gazeAt(10200))

	if rec.count() != 1 {
		t.Errorf("windows emitted = %d, want 1 (AddGaze runs the check)", rec.count())
	}
}

func TestDefaultConfigApplied(t *testing.T) {
	col := New(Config{}, nil)
	if col.cfg.WindowSize != 10*time.Second {
		t.Errorf("WindowSize = %v, want 10s", col.cfg.WindowSize)
	}
	if col.now == nil {
		t.Error("clock not defaulted")
	}
}
