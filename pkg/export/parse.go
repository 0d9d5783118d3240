package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/affectlab/gazeflow/pkg/signal"
)

// ParseCSV reads a session CSV back into the three sample streams. Used
// by the replay tool; the inverse of Build + WriteCSV up to the lossy
// parts of the reconciliation (exact-duplicate timestamps collapse).
func ParseCSV(r io.Reader) (gaze []signal.GazePoint, interactions []signal.InteractionEvent, heartRate []signal.HeartRateSample, err error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if line == 1 {
			if text != Header {
				return nil, nil, nil, fmt.Errorf("export: unexpected header %q", text)
			}
			continue
		}
		if text == "" {
			continue
		}

		fields := strings.Split(text, ",")
		if len(fields) != 7 {
			return nil, nil, nil, fmt.Errorf("export: line %d has %d fields, want 7", line, len(fields))
		}

		t, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("export: line %d bad timestamp: %w", line, err)
		}

		if fields[1] != "" && fields[2] != "" {
			x, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, nil, nil, fmt.Errorf("export: line %d bad GazeX: %w", line, err)
			}
			y, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, nil, nil, fmt.Errorf("export: line %d bad GazeY: %w", line, err)
			}
			aoi := fields[3]
			if aoi == "" {
				aoi = signal.AOINone
			}
			gaze = append(gaze, signal.GazePoint{T: t, X: x, Y: y, AOI: aoi})
		}
		if fields[4] != "" {
			interactions = append(interactions, signal.InteractionEvent{T: t, Type: signal.InteractionClick})
		}
		if fields[5] != "" {
			interactions = append(interactions, signal.InteractionEvent{T: t, Type: signal.InteractionScroll})
		}
		if fields[6] != "" {
			bpm, err := strconv.Atoi(fields[6])
			if err != nil {
				return nil, nil, nil, fmt.Errorf("export: line %d bad BPM: %w", line, err)
			}
			heartRate = append(heartRate, signal.HeartRateSample{T: t, BPM: bpm})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, nil, err
	}
	return gaze, interactions, heartRate, nil
}
