// Package features computes per-window gaze and physiology features
// matching what the downstream classifier is trained on. The live
// classifier does its own extraction server-side; this package exists
// for the replay tool and offline analysis, so the numbers researchers
// see locally line up with what the model receives.
package features

import (
	"math"

	"github.com/affectlab/gazeflow/pkg/signal"
)

// I-DT fixation detection thresholds.
const (
	// FixationDistanceThreshold is the max pixel distance from the
	// running fixation centroid to still count as the same fixation.
	FixationDistanceThreshold = 50.0

	// FixationDurationThreshold is the minimum duration (ms) for a
	// candidate group to count as a fixation.
	FixationDurationThreshold = 100
)

// Fixation is one detected fixation: centroid position, time span, and
// the AOI the constituent points shared.
type Fixation struct {
	X        float64
	Y        float64
	Start    int64
	End      int64
	Duration int64
	AOI      string
}

// FeatureSet holds the per-window features consumed by the classifier,
// plus auxiliary counts useful for inspection.
type FeatureSet struct {
	MeanFixationDuration float64 `json:"mean_fixation_duration"`
	NumFixations         int     `json:"num_fixations"`
	MeanSaccadeDuration  float64 `json:"mean_saccade_duration"`
	MeanBPM              float64 `json:"bpm"`

	RereadFrequency int `json:"reread_frequency"`
	ClickCount      int `json:"click_count"`
	ScrollCount     int `json:"scroll_count"`
}

// DetectFixations groups gaze points into fixations using dispersion
// thresholding (I-DT): points stay in the current fixation while they
// remain within FixationDistanceThreshold of its centroid and share its
// AOI; groups shorter than FixationDurationThreshold are discarded.
func DetectFixations(points []signal.GazePoint) []Fixation {
	if len(points) == 0 {
		return nil
	}

	var fixations []Fixation
	var xs, ys []float64
	var start, end int64
	var aoi string
	open := false

	flush := func() {
		if !open {
			return
		}
		d := end - start
		if d >= FixationDurationThreshold {
			fixations = append(fixations, Fixation{
				X:        mean(xs),
				Y:        mean(ys),
				Start:    start,
				End:      end,
				Duration: d,
				AOI:      aoi,
			})
		}
	}

	for _, p := range points {
		x, y := float64(p.X), float64(p.Y)
		if !open {
			xs, ys = []float64{x}, []float64{y}
			start, end, aoi = p.T, p.T, p.AOI
			open = true
			continue
		}
		dx := x - mean(xs)
		dy := y - mean(ys)
		if math.Hypot(dx, dy) <= FixationDistanceThreshold && p.AOI == aoi {
			xs = append(xs, x)
			ys = append(ys, y)
			end = p.T
			continue
		}
		flush()
		xs, ys = []float64{x}, []float64{y}
		start, end, aoi = p.T, p.T, p.AOI
	}
	flush()

	return fixations
}

// MeanSaccadeDuration is the mean gap (ms) between consecutive
// fixations. Non-positive gaps (overlapping spans) are ignored.
func MeanSaccadeDuration(fixations []Fixation) float64 {
	if len(fixations) < 2 {
		return 0
	}
	var sum float64
	var n int
	for i := 0; i < len(fixations)-1; i++ {
		gap := fixations[i+1].Start - fixations[i].End
		if gap > 0 {
			sum += float64(gap)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RereadFrequency counts returns to a previously visited AOI. Points
// outside every AOI do not open or close a visit.
func RereadFrequency(points []signal.GazePoint) int {
	if len(points) < 2 {
		return 0
	}
	visited := make(map[string]bool)
	count := 0
	for _, p := range points {
		if p.AOI == signal.AOINone {
			continue
		}
		if visited[p.AOI] {
			count++
		} else {
			visited[p.AOI] = true
		}
	}
	return count
}

// Extract computes the full feature set for one window.
func Extract(w signal.Window) FeatureSet {
	var fs FeatureSet

	fixations := DetectFixations(w.Gaze)
	fs.NumFixations = len(fixations)
	if len(fixations) > 0 {
		var sum float64
		for _, f := range fixations {
			sum += float64(f.Duration)
		}
		fs.MeanFixationDuration = sum / float64(len(fixations))
		fs.MeanSaccadeDuration = MeanSaccadeDuration(fixations)
	}

	fs.RereadFrequency = RereadFrequency(w.Gaze)

	for _, e := range w.Interactions {
		switch e.Type {
		case signal.InteractionClick:
			fs.ClickCount++
		case signal.InteractionScroll:
			fs.ScrollCount++
		}
	}

	if len(w.HeartRate) > 0 {
		var sum float64
		for _, h := range w.HeartRate {
			sum += float64(h.BPM)
		}
		fs.MeanBPM = sum / float64(len(w.HeartRate))
	}

	return fs
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
