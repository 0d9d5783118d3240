// Package export reconciles the three sample buffers into a single
// session table keyed by timestamp, serialized as CSV for offline
// analysis.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/affectlab/gazeflow/pkg/signal"
)

// ErrNoData is returned when there is nothing to export. Callers should
// surface it rather than writing a header-only file.
var ErrNoData = errors.New("export: no samples recorded")

// Header is the fixed CSV column order.
const Header = "Timestamp,GazeX,GazeY,AOI_ID,Click,Scroll,BPM"

// HeartRateJoinTolerance is how far (ms) a heart-rate sample may sit
// from an existing row and still be merged onto it.
const HeartRateJoinTolerance = 500

// Row is one reconciled line of the export table. Pointer fields render
// as empty strings when nil.
type Row struct {
	Timestamp int64
	GazeX     *int
	GazeY     *int
	AOI       string
	Click     bool
	Scroll    bool
	BPM       *int
}

// Table is the reconciled, timestamp-sorted session table.
type Table struct {
	Rows []Row
}

// Build joins the three buffers into one table. Gaze and interaction
// samples join on exact timestamp; each heart-rate sample attaches to
// the nearest row within HeartRateJoinTolerance that does not already
// hold a BPM, otherwise it gets its own row, so two nearby
// notifications never collapse into one.
// The nearest-match pass is linear in the number of
// rows per heart-rate sample, which is fine for the tens of samples a
// session produces but does not scale beyond that.
func Build(gaze []signal.GazePoint, interactions []signal.InteractionEvent, heartRate []signal.HeartRateSample) (*Table, error) {
	if len(gaze) == 0 && len(interactions) == 0 && len(heartRate) == 0 {
		return nil, ErrNoData
	}

	byTime := make(map[int64]*Row)
	at := func(t int64) *Row {
		r, ok := byTime[t]
		if !ok {
			r = &Row{Timestamp: t}
			byTime[t] = r
		}
		return r
	}

	for _, p := range gaze {
		x, y := p.X, p.Y
		r := at(p.T)
		r.GazeX = &x
		r.GazeY = &y
		r.AOI = p.AOI
	}
	for _, e := range interactions {
		r := at(e.T)
		switch e.Type {
		case signal.InteractionClick:
			r.Click = true
		case signal.InteractionScroll:
			r.Scroll = true
		}
	}
	for _, h := range heartRate {
		bpm := h.BPM
		if r := nearest(byTime, h.T); r != nil {
			r.BPM = &bpm
			continue
		}
		at(h.T).BPM = &bpm
	}

	t := &Table{Rows: make([]Row, 0, len(byTime))}
	for _, r := range byTime {
		t.Rows = append(t.Rows, *r)
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Timestamp < t.Rows[j].Timestamp })
	return t, nil
}

// nearest returns the closest BPM-free row within the join tolerance.
// A row that already carries a heart-rate value would lose it if
// another sample merged onto it, so those are skipped.
func nearest(byTime map[int64]*Row, t int64) *Row {
	var best *Row
	bestDist := int64(HeartRateJoinTolerance) + 1
	for rt, r := range byTime {
		if r.BPM != nil {
			continue
		}
		d := rt - t
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = r
		}
	}
	if bestDist > HeartRateJoinTolerance {
		return nil
	}
	return best
}

// WriteCSV serializes the table. Values are numeric or simple tags and
// never contain commas, so no quoting is applied.
func (t *Table) WriteCSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, Header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		line := strconv.FormatInt(r.Timestamp, 10) + "," +
			formatInt(r.GazeX) + "," +
			formatInt(r.GazeY) + "," +
			r.AOI + "," +
			formatFlag(r.Click) + "," +
			formatFlag(r.Scroll) + "," +
			formatInt(r.BPM)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the UTF-8 CSV encoding of the table.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFlag(set bool) string {
	if set {
		return "1"
	}
	return ""
}
