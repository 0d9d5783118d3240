// Package signal defines the sample and window types shared by the
// conditioning, collection, and export layers. Field names follow the
// classifier's window contract and must not change.
package signal

import (
	"fmt"
	"math"
)

// Interaction event types delivered by the browser client.
const (
	InteractionClick  = "click"
	InteractionScroll = "scroll"
)

// AOINone tags a gaze point that landed outside every tracked region.
const AOINone = "NONE"

// RawSample is an instantaneous gaze position before conditioning.
// It carries no timestamp of its own; the caller supplies a clock reading.
type RawSample struct {
	X float64
	Y float64
}

// Valid reports whether the sample carries usable coordinates.
func (s RawSample) Valid() bool {
	return !math.IsNaN(s.X) && !math.IsNaN(s.Y) &&
		!math.IsInf(s.X, 0) && !math.IsInf(s.Y, 0)
}

// GazePoint is a conditioned gaze sample. T is milliseconds relative to
// the recording epoch; X and Y are smoothed pixel coordinates.
type GazePoint struct {
	T   int64  `json:"t"`
	X   int    `json:"x"`
	Y   int    `json:"y"`
	AOI string `json:"aoi"`
}

// InteractionEvent is a discrete user interaction.
type InteractionEvent struct {
	T    int64  `json:"t"`
	Type string `json:"type"`
}

// HeartRateSample is one heart-rate notification from the sensor.
type HeartRateSample struct {
	T   int64 `json:"t"`
	BPM int   `json:"bpm"`
}

// Window batches the three streams over one half-open interval
// [StartTime, EndTime). Windows are contiguous, non-overlapping, and
// indexed by floor(StartTime / windowSize).
type Window struct {
	WindowID     string             `json:"window_id"`
	StartTime    int64              `json:"start_time"`
	EndTime      int64              `json:"end_time"`
	Gaze         []GazePoint        `json:"gaze_log"`
	Interactions []InteractionEvent `json:"interactions"`
	HeartRate    []HeartRateSample  `json:"heart_rate"`
}

// WindowID formats the stable identifier for a window index.
func WindowID(index int64) string {
	return fmt.Sprintf("window_%d", index)
}

// Contains reports whether a relative timestamp falls inside the window.
func (w *Window) Contains(t int64) bool {
	return t >= w.StartTime && t < w.EndTime
}
