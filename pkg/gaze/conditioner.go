// Package gaze conditions raw gaze samples before collection: exponential
// smoothing, calibration offset correction, and area-of-interest resolution.
package gaze

import (
	"math"
	"sync"

	"github.com/affectlab/gazeflow/pkg/signal"
)

// RegionResolver answers point-containment queries against the current
// spatial layout. Implementations live in pkg/layout; tests use stubs.
type RegionResolver interface {
	// ResolveRegion returns the identifier of the region containing
	// (x, y), or ok=false if no tracked region contains the point.
	ResolveRegion(x, y float64) (id string, ok bool)
}

// Highlighter receives the conditioner's single side effect: the region
// the subject is currently looking at. An empty id clears all highlights.
type Highlighter interface {
	SetHighlighted(id string)
}

// Config holds the tunable parameters for a Conditioner.
type Config struct {
	// SmoothingFactor is the EMA weight on new samples, in (0, 1].
	SmoothingFactor float64

	// YOffsetCorrection is subtracted from the smoothed y value to
	// compensate for a fixed vertical calibration bias, in pixels.
	YOffsetCorrection float64

	// DebugPositionSource marks the input as already-calibrated cursor
	// coordinates; offset correction is suppressed.
	DebugPositionSource bool
}

// DefaultConfig returns the recommended conditioning parameters.
func DefaultConfig() Config {
	return Config{
		SmoothingFactor:   0.1,
		YOffsetCorrection: 0,
	}
}

// Conditioner smooths raw gaze samples and tags them with the AOI they
// land in. Smoothing state persists for the lifetime of the Conditioner;
// the first sample seeds it verbatim so there is no snap from origin.
// Safe for concurrent use: samples arrive on socket read loops while
// the session lifecycle toggles recording from handler goroutines.
type Conditioner struct {
	mu        sync.Mutex
	cfg       Config
	resolver  RegionResolver
	highlight Highlighter

	prevX, prevY float64
	seeded       bool
	recording    bool
}

// NewConditioner creates a Conditioner with injected collaborators.
// Either collaborator may be nil, in which case that step is skipped.
func NewConditioner(cfg Config, resolver RegionResolver, highlight Highlighter) *Conditioner {
	if cfg.SmoothingFactor <= 0 || cfg.SmoothingFactor > 1 {
		cfg.SmoothingFactor = DefaultConfig().SmoothingFactor
	}
	return &Conditioner{cfg: cfg, resolver: resolver, highlight: highlight}
}

// SetRecording toggles the recording state. While not recording,
// Condition drops samples without touching smoothing state.
func (c *Conditioner) SetRecording(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = on
}

// Recording reports whether the conditioner is accepting samples.
func (c *Conditioner) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Condition smooths one raw sample and resolves its AOI. The clock value
// is milliseconds relative to the recording epoch. Returns ok=false, with
// no side effects, when not recording or the sample is unusable.
func (c *Conditioner) Condition(raw signal.RawSample, clock float64) (signal.GazePoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording || !raw.Valid() {
		return signal.GazePoint{}, false
	}

	if !c.seeded {
		// Cold start: the first sample is both raw and smoothed value.
		c.prevX, c.prevY = raw.X, raw.Y
		c.seeded = true
	} else {
		a := c.cfg.SmoothingFactor
		c.prevX = a*raw.X + (1-a)*c.prevX
		c.prevY = a*raw.Y + (1-a)*c.prevY
	}

	x := c.prevX
	y := c.prevY
	if !c.cfg.DebugPositionSource {
		y -= c.cfg.YOffsetCorrection
	}

	aoi := signal.AOINone
	if c.resolver != nil {
		if id, ok := c.resolver.ResolveRegion(x, y); ok {
			aoi = id
		}
	}
	if c.highlight != nil {
		if aoi == signal.AOINone {
			c.highlight.SetHighlighted("")
		} else {
			c.highlight.SetHighlighted(aoi)
		}
	}

	return signal.GazePoint{
		T:   int64(math.Round(clock)),
		X:   int(math.Round(x)),
		Y:   int(math.Round(y)),
		AOI: aoi,
	}, true
}
