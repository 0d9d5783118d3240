// gazeflow-replay streams a recorded session CSV back into a running
// gazeflow server over the signal websocket, at recorded or accelerated
// cadence, and prints feature summaries for each window the server
// emits. It exercises the whole pipeline without a browser or sensors.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gorilla/websocket"

	"github.com/affectlab/gazeflow/pkg/export"
	"github.com/affectlab/gazeflow/pkg/features"
	"github.com/affectlab/gazeflow/pkg/signal"
	"github.com/affectlab/gazeflow/pkg/wire"
)

// event is one replayable sample of any kind, ordered by timestamp.
type event struct {
	t   int64
	msg *wire.Message
}

func main() {
	server := flag.String("server", "ws://localhost:8080", "gazeflow server websocket base URL")
	csvPath := flag.String("csv", "", "session CSV to replay")
	speed := flag.Float64("speed", 1.0, "replay speed multiplier (10 = 10x faster)")
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: gazeflow-replay -csv session.csv [-server ws://host:port] [-speed 10]")
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open csv: %v\n", err)
		os.Exit(1)
	}
	gaze, interactions, heartRate, err := export.ParseCSV(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse csv: %v\n", err)
		os.Exit(1)
	}

	events := buildTimeline(gaze, interactions, heartRate)
	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to replay")
		os.Exit(1)
	}
	fmt.Printf("replaying %d samples (%d gaze, %d interactions, %d heart-rate) at %.0fx\n",
		len(events), len(gaze), len(interactions), len(heartRate), *speed)

	conn, _, err := websocket.DefaultDialer.Dial(*server+"/ws/signals", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Watch the windows socket so we can summarize each emission.
	go watchWindows(*server)

	send := func(msg *wire.Message) error {
		data, err := msg.Bytes()
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	start, _ := wire.NewMessage(wire.TypeStart, nil)
	if err := send(start); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}

	prev := int64(0)
	for _, ev := range events {
		if gap := ev.t - prev; gap > 0 {
			time.Sleep(time.Duration(float64(gap)/(*speed)) * time.Millisecond)
		}
		prev = ev.t
		if err := send(ev.msg); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			os.Exit(1)
		}
	}

	// Let the safety-net check close out the final full window.
	time.Sleep(2 * time.Second)

	stop, _ := wire.NewMessage(wire.TypeStop, nil)
	if err := send(stop); err != nil {
		fmt.Fprintf(os.Stderr, "stop: %v\n", err)
	}
	fmt.Println("replay complete")
}

// buildTimeline merges the three streams into one timestamp-ordered
// sequence of wire messages. Gaze samples carry their recorded
// timestamps so the server reproduces the original window boundaries.
func buildTimeline(gaze []signal.GazePoint, interactions []signal.InteractionEvent, heartRate []signal.HeartRateSample) []event {
	events := make([]event, 0, len(gaze)+len(interactions)+len(heartRate))
	for _, p := range gaze {
		msg, err := wire.NewGazeMessage(float64(p.X), float64(p.Y), p.T)
		if err == nil {
			events = append(events, event{t: p.T, msg: msg})
		}
	}
	for _, e := range interactions {
		msg, err := wire.NewInteractionMessage(e.Type, e.T)
		if err == nil {
			events = append(events, event{t: e.T, msg: msg})
		}
	}
	for _, h := range heartRate {
		msg, err := wire.NewHeartRateMessage(h.BPM, h.T)
		if err == nil {
			events = append(events, event{t: h.T, msg: msg})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].t < events[j].t })
	return events
}

// watchWindows prints a feature summary for every window the server
// emits during the replay.
func watchWindows(server string) {
	conn, _, err := websocket.DefaultDialer.Dial(server+"/ws/windows", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "windows socket: %v\n", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := wire.ParseMessage(data)
		if err != nil || msg.Type != wire.TypeWindow {
			continue
		}
		var w signal.Window
		if err := json.Unmarshal(msg.Data, &w); err != nil {
			continue
		}
		fs := features.Extract(w)
		fmt.Printf("%s [%d-%d): fixations=%d mean_fix=%.0fms saccade=%.0fms reread=%d clicks=%d bpm=%.1f\n",
			w.WindowID, w.StartTime, w.EndTime,
			fs.NumFixations, fs.MeanFixationDuration, fs.MeanSaccadeDuration,
			fs.RereadFrequency, fs.ClickCount, fs.MeanBPM)
	}
}
