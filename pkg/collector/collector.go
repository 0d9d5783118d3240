// Package collector buffers the three signal streams and partitions them
// into fixed-duration analysis windows, emitting each window to a
// registered consumer exactly once per recording session.
package collector

import (
	"sync"
	"time"

	"github.com/affectlab/gazeflow/internal/log"
	"github.com/affectlab/gazeflow/pkg/export"
	"github.com/affectlab/gazeflow/pkg/signal"
)

// Consumer receives each completed window exactly once. The call is
// fire-and-forget from the collector's perspective: it is not retried,
// not awaited, and must not block for long.
type Consumer func(signal.Window)

// Config holds the tunable parameters for a Collector.
type Config struct {
	// WindowSize is the fixed duration of one analysis window.
	WindowSize time.Duration

	// Clock returns the current instant. Defaults to time.Now; tests
	// inject a fake to drive window boundaries deterministically.
	Clock func() time.Time
}

// DefaultConfig returns the recommended collector parameters.
func DefaultConfig() Config {
	return Config{
		WindowSize: 10 * time.Second,
	}
}

// Collector owns the three sample buffers, the recording epoch, and the
// set of window indices already emitted. All mutation happens inside its
// own methods; a mutex serializes the signal callbacks and the safety-net
// ticker that drive it.
type Collector struct {
	mu       sync.Mutex
	cfg      Config
	consumer Consumer
	now      func() time.Time

	active bool
	epoch  time.Time

	gaze         []signal.GazePoint
	interactions []signal.InteractionEvent
	heartRate    []signal.HeartRateSample

	// Window indices already handed to the consumer. Grows monotonically
	// during a session; cleared only by Start or Reset.
	emitted map[int64]bool
}

// New creates a Collector with the given consumer. A nil consumer is
// permitted: completed windows are then dropped with a diagnostic, which
// still marks them emitted and prunes the buffers.
func New(cfg Config, consumer Consumer) *Collector {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Collector{
		cfg:      cfg,
		consumer: consumer,
		now:      cfg.Clock,
		emitted:  make(map[int64]bool),
	}
}

// Start begins a recording session: the current instant becomes epoch
// zero, all buffers and the emitted-set are cleared, and samples are
// accepted until Stop.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = c.now()
	c.gaze = nil
	c.interactions = nil
	c.heartRate = nil
	c.emitted = make(map[int64]bool)
	c.active = true
	log.Info("recording started", "window_size", c.cfg.WindowSize)
}

// Stop halts buffering and window emission. Buffers and the emitted-set
// are kept for post-hoc export until the next Start or an explicit Reset.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.active = false
	log.Info("recording stopped",
		"gaze", len(c.gaze),
		"interactions", len(c.interactions),
		"heart_rate", len(c.heartRate),
		"windows_emitted", len(c.emitted))
}

// Reset clears buffers, emitted-set, and epoch unconditionally.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gaze = nil
	c.interactions = nil
	c.heartRate = nil
	c.emitted = make(map[int64]bool)
	c.epoch = time.Time{}
	c.active = false
}

// Recording reports whether a session is in progress.
func (c *Collector) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Elapsed returns milliseconds since the recording epoch.
func (c *Collector) Elapsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

func (c *Collector) elapsedLocked() int64 {
	return c.now().Sub(c.epoch).Milliseconds()
}

// AddGaze appends a conditioned gaze point and then checks whether a
// window has completed. Silently ignored while not recording.
func (c *Collector) AddGaze(p signal.GazePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.gaze = append(c.gaze, p)
	c.checkLocked()
}

// AddInteraction records an interaction at the current instant.
func (c *Collector) AddInteraction(eventType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.interactions = append(c.interactions, signal.InteractionEvent{
		T:    c.elapsedLocked(),
		Type: eventType,
	})
}

// AddInteractionAt records an interaction with a caller-supplied
// relative timestamp, used by replay tooling.
func (c *Collector) AddInteractionAt(eventType string, t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.interactions = append(c.interactions, signal.InteractionEvent{T: t, Type: eventType})
}

// AddHeartRate records a heart-rate sample at the current instant.
func (c *Collector) AddHeartRate(bpm int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.heartRate = append(c.heartRate, signal.HeartRateSample{
		T:   c.elapsedLocked(),
		BPM: bpm,
	})
}

// AddHeartRateAt records a heart-rate sample with a caller-supplied
// relative timestamp.
func (c *Collector) AddHeartRateAt(bpm int, t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.heartRate = append(c.heartRate, signal.HeartRateSample{T: t, BPM: bpm})
}

// CheckWindowComplete evaluates window completion. It is called
// implicitly on every gaze sample and may also be called on an external
// cadence as a safety net when no gaze samples arrive. No-op while not
// recording.
func (c *Collector) CheckWindowComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.checkLocked()
}

// checkLocked scans window indices from zero up to the current one and
// emits the first unemitted window that has fully elapsed and holds at
// least one gaze sample. Scanning restarts from zero on every call so a
// window that lacked gaze data at an earlier check is recovered once its
// samples arrive; at most one window is emitted per call to keep
// downstream sends from bursting.
func (c *Collector) checkLocked() {
	ws := c.cfg.WindowSize.Milliseconds()
	now := c.elapsedLocked()
	current := now / ws

	for i := int64(0); i < current; i++ {
		if c.emitted[i] {
			continue
		}
		start := i * ws
		end := start + ws
		if now < end {
			break
		}
		if !c.hasGazeLocked(start, end) {
			// No signal, no window: skipped forever. Downstream relies
			// on every emitted window containing gaze data.
			continue
		}

		c.emitted[i] = true
		w := c.assembleLocked(i, start, end)
		if c.consumer != nil {
			c.consumer(w)
		} else {
			log.Warn("no window consumer registered, dropping window", "window_id", w.WindowID)
		}
		c.pruneLocked(start - ws)
		return
	}
}

func (c *Collector) hasGazeLocked(start, end int64) bool {
	for _, p := range c.gaze {
		if p.T >= start && p.T < end {
			return true
		}
	}
	return false
}

// assembleLocked filters the three buffers to [start, end).
func (c *Collector) assembleLocked(index, start, end int64) signal.Window {
	w := signal.Window{
		WindowID:     signal.WindowID(index),
		StartTime:    start,
		EndTime:      end,
		Gaze:         []signal.GazePoint{},
		Interactions: []signal.InteractionEvent{},
		HeartRate:    []signal.HeartRateSample{},
	}
	for _, p := range c.gaze {
		if p.T >= start && p.T < end {
			w.Gaze = append(w.Gaze, p)
		}
	}
	for _, e := range c.interactions {
		if e.T >= start && e.T < end {
			w.Interactions = append(w.Interactions, e)
		}
	}
	for _, h := range c.heartRate {
		if h.T >= start && h.T < end {
			w.HeartRate = append(w.HeartRate, h)
		}
	}
	return w
}

// pruneLocked drops samples older than cutoff, bounding memory to
// roughly two windows' worth of data.
func (c *Collector) pruneLocked(cutoff int64) {
	gaze := c.gaze[:0]
	for _, p := range c.gaze {
		if p.T >= cutoff {
			gaze = append(gaze, p)
		}
	}
	c.gaze = gaze

	inter := c.interactions[:0]
	for _, e := range c.interactions {
		if e.T >= cutoff {
			inter = append(inter, e)
		}
	}
	c.interactions = inter

	hr := c.heartRate[:0]
	for _, h := range c.heartRate {
		if h.T >= cutoff {
			hr = append(hr, h)
		}
	}
	c.heartRate = hr
}

// EmittedCount returns the number of windows emitted this session.
func (c *Collector) EmittedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.emitted)
}

// BufferSizes returns the current buffer lengths, for status reporting.
func (c *Collector) BufferSizes() (gaze, interactions, heartRate int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.gaze), len(c.interactions), len(c.heartRate)
}

// ExportCSV reconciles the retained buffers into the session CSV.
// Callable after Stop, since buffers survive until the next Start.
func (c *Collector) ExportCSV() ([]byte, error) {
	c.mu.Lock()
	gaze := append([]signal.GazePoint(nil), c.gaze...)
	inter := append([]signal.InteractionEvent(nil), c.interactions...)
	hr := append([]signal.HeartRateSample(nil), c.heartRate...)
	c.mu.Unlock()

	table, err := export.Build(gaze, inter, hr)
	if err != nil {
		return nil, err
	}
	return table.Bytes()
}
