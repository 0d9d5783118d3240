package ingest

import (
	"github.com/gofiber/websocket/v2"

	"github.com/affectlab/gazeflow/internal/log"
	"github.com/affectlab/gazeflow/pkg/hub"
	"github.com/affectlab/gazeflow/pkg/signal"
	"github.com/affectlab/gazeflow/pkg/wire"
)

// handleWindowsWS attaches a dashboard client to the event hub. The
// client receives window, highlight, and status messages.
func (s *Server) handleWindowsWS(conn *websocket.Conn) {
	client := hub.NewClient(s.eventHub, conn)
	client.Run()
}

// handleSignalsWS is the browser client's signal socket. Each inbound
// message is one sample from one of the three sources; the connection's
// read loop delivers them in arrival order, which is all the ordering
// the collector requires.
func (s *Server) handleSignalsWS(conn *websocket.Conn) {
	defer conn.Close()
	log.Info("signal client connected", "remote", conn.RemoteAddr())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("signal client disconnected", "remote", conn.RemoteAddr())
			return
		}

		msg, err := wire.ParseMessage(data)
		if err != nil {
			s.replyError(conn, "unparseable message")
			continue
		}

		if err := s.dispatch(msg); err != nil {
			s.replyError(conn, err.Error())
		}
	}
}

// dispatch routes one inbound signal message. Samples arriving while no
// session records are dropped by the conditioner/collector themselves;
// that is the documented no-op path, not an error.
func (s *Server) dispatch(msg *wire.Message) error {
	switch msg.Type {
	case wire.TypeGaze:
		d, err := msg.GetGazeData()
		if err != nil {
			return err
		}
		clock := float64(d.T)
		if d.T == 0 {
			clock = float64(s.col.Elapsed())
		}
		if p, ok := s.cond.Condition(signal.RawSample{X: d.X, Y: d.Y}, clock); ok {
			s.col.AddGaze(p)
		}

	case wire.TypeInteraction:
		d, err := msg.GetInteractionData()
		if err != nil {
			return err
		}
		if d.EventType != signal.InteractionClick && d.EventType != signal.InteractionScroll {
			return errUnknownInteraction(d.EventType)
		}
		if d.T > 0 {
			s.col.AddInteractionAt(d.EventType, d.T)
		} else {
			s.col.AddInteraction(d.EventType)
		}

	case wire.TypeHeartRate:
		d, err := msg.GetHeartRateData()
		if err != nil {
			return err
		}
		if d.T > 0 {
			s.col.AddHeartRateAt(d.BPM, d.T)
		} else {
			s.col.AddHeartRate(d.BPM)
		}

	case wire.TypeLayout:
		d, err := msg.GetLayoutData()
		if err != nil {
			return err
		}
		s.lay.SetBlocks(d.Blocks)
		log.Info("layout updated by client", "blocks", len(d.Blocks))

	case wire.TypeStart:
		if _, err := s.startSession(); err != nil {
			return err
		}

	case wire.TypeStop:
		if _, err := s.stopSession(); err != nil {
			return err
		}

	default:
		return errUnknownType(msg.Type)
	}
	return nil
}

func (s *Server) replyError(conn *websocket.Conn, text string) {
	msg, err := wire.NewErrorMessage(text)
	if err != nil {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug("error reply failed", "error", err)
	}
}
