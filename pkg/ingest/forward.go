package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/affectlab/gazeflow/internal/httpc"
	"github.com/affectlab/gazeflow/internal/log"
	"github.com/affectlab/gazeflow/pkg/signal"
	"github.com/affectlab/gazeflow/pkg/wire"
)

// forwardWindow posts one completed window to the classifier endpoint.
// Fire-and-forget: failures are logged, never retried, and never block
// window evaluation.
func (s *Server) forwardWindow(w signal.Window) {
	body, err := json.Marshal(w)
	if err != nil {
		log.Error("window marshal failed", "window_id", w.WindowID, "error", err)
		return
	}

	resp, err := httpc.PostJSON(s.cfg.ClassifierURL, body)
	if err != nil {
		log.Warn("classifier send failed", "window_id", w.WindowID, "error", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		log.Warn("classifier rejected window",
			"window_id", w.WindowID, "status", resp.StatusCode)
		return
	}
	log.Debug("window forwarded", "window_id", w.WindowID, "status", resp.StatusCode)
}

func errUnknownInteraction(eventType string) error {
	return fmt.Errorf("unknown interaction type %q", eventType)
}

func errUnknownType(t wire.MessageType) error {
	return fmt.Errorf("unknown message type %q", t)
}
