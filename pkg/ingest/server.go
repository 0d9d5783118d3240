// Package ingest is the transport layer between the browser client and
// the collection engine: it receives raw samples over WebSocket, feeds
// them through the conditioner into the collector, and fans completed
// windows out to dashboard clients and the external classifier.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/affectlab/gazeflow/internal/config"
	"github.com/affectlab/gazeflow/internal/log"
	"github.com/affectlab/gazeflow/pkg/collector"
	"github.com/affectlab/gazeflow/pkg/gaze"
	"github.com/affectlab/gazeflow/pkg/hub"
	"github.com/affectlab/gazeflow/pkg/layout"
	"github.com/affectlab/gazeflow/pkg/session"
	"github.com/affectlab/gazeflow/pkg/signal"
	"github.com/affectlab/gazeflow/pkg/wire"
)

// checkInterval is the safety-net cadence for window-completion checks
// when no gaze samples arrive to trigger them.
const checkInterval = time.Second

// Server wires the conditioner and collector to their signal sources.
type Server struct {
	app  *fiber.App
	port string

	cfg        config.Config
	col        *collector.Collector
	cond       *gaze.Conditioner
	lay        *layout.Layout
	highlights *layout.Highlights
	sessions   session.Store

	// Hub for dashboard broadcast: windows, highlights, status
	eventHub *hub.Hub

	// Current recording session, nil when idle
	mu      sync.Mutex
	current *session.Session

	done chan struct{}
}

// New creates the ingest server. The layout may start empty; browser
// clients push their measured geometry over the signal socket.
func New(cfg config.Config, lay *layout.Layout, sessions session.Store) *Server {
	s := &Server{
		port:     cfg.ListenPort,
		cfg:      cfg,
		lay:      lay,
		sessions: sessions,
		eventHub: hub.New("events"),
		done:     make(chan struct{}),
	}

	s.highlights = layout.NewHighlights(s.broadcastHighlight)
	s.cond = gaze.NewConditioner(gaze.Config{
		SmoothingFactor:     cfg.SmoothingFactor,
		YOffsetCorrection:   cfg.YOffsetCorrection,
		DebugPositionSource: cfg.UseDebugPositionSource,
	}, lay, s.highlights)
	s.col = collector.New(collector.Config{
		WindowSize: cfg.WindowSize(),
	}, s.consumeWindow)

	app := fiber.New(fiber.Config{
		AppName:               "GazeFlow Ingest",
		DisableStartupMessage: true,
	})

	// CORS so the study page can be served from anywhere
	app.Use(cors.New())

	api := app.Group("/api")
	api.Post("/session/start", s.handleStart)
	api.Post("/session/stop", s.handleStop)
	api.Get("/status", s.handleStatus)
	api.Get("/sessions", s.handleSessions)
	api.Get("/export.csv", s.handleExport)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/signals", websocket.New(s.handleSignalsWS))
	app.Get("/ws/windows", websocket.New(s.handleWindowsWS))

	s.app = app
	return s
}

// Collector exposes the collector for the safety-net ticker and tests.
func (s *Server) Collector() *collector.Collector {
	return s.col
}

// Start runs the hub, the safety-net ticker, and the HTTP listener.
// It blocks until Shutdown.
func (s *Server) Start() error {
	go s.eventHub.Run()
	go s.runTicker()
	log.Info("ingest server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server: the ticker, the broadcast hub,
// and then the listener.
func (s *Server) Shutdown() error {
	close(s.done)
	s.eventHub.Stop()
	return s.app.Shutdown()
}

// runTicker invokes the window-completeness check once per second so
// windows still complete during gaze dropouts, and pushes a status
// snapshot for dashboards.
func (s *Server) runTicker() {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.col.CheckWindowComplete()
			if msg, err := wire.NewStatusMessage(s.status()); err == nil {
				if data, err := msg.Bytes(); err == nil {
					s.eventHub.Broadcast(data)
				}
			}
		case <-s.done:
			return
		}
	}
}

// consumeWindow is the collector's injected consumer: broadcast to
// dashboards and hand off to the classifier. The forward happens on its
// own goroutine so a slow classifier never blocks the next check.
func (s *Server) consumeWindow(w signal.Window) {
	log.Info("window complete",
		"window_id", w.WindowID,
		"gaze", len(w.Gaze),
		"interactions", len(w.Interactions),
		"heart_rate", len(w.HeartRate))

	if msg, err := wire.NewWindowMessage(w); err == nil {
		if data, err := msg.Bytes(); err == nil {
			s.eventHub.Broadcast(data)
		}
	}

	if s.cfg.ClassifierURL != "" {
		go s.forwardWindow(w)
	}
}

func (s *Server) broadcastHighlight(aoi string) {
	if msg, err := wire.NewHighlightMessage(aoi); err == nil {
		if data, err := msg.Bytes(); err == nil {
			s.eventHub.Broadcast(data)
		}
	}
}

// startSession begins recording. Returns the new session or an error if
// one is already running.
func (s *Server) startSession() (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return nil, fmt.Errorf("session %s already recording", s.current.ID)
	}

	sess := &session.Session{StartedAt: time.Now()}
	if s.sessions != nil {
		if err := s.sessions.Save(sess); err != nil {
			return nil, err
		}
	}

	s.col.Start()
	s.cond.SetRecording(true)
	s.current = sess
	return sess, nil
}

// stopSession halts recording, writes the CSV export, and finalizes the
// session record. Collector buffers stay intact for further export
// calls until the next start.
func (s *Server) stopSession() (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, fmt.Errorf("no session recording")
	}

	s.cond.SetRecording(false)
	s.col.Stop()

	sess := s.current
	s.current = nil
	sess.StoppedAt = time.Now()
	sess.WindowsEmitted = s.col.EmittedCount()
	sess.GazeSamples, sess.Interactions, sess.HeartRate = s.col.BufferSizes()

	if data, err := s.col.ExportCSV(); err != nil {
		log.Warn("session export skipped", "session_id", sess.ID, "reason", err)
	} else {
		path := filepath.Join(s.cfg.DataDir, sess.ID+".csv")
		if err := os.MkdirAll(s.cfg.DataDir, 0755); err == nil {
			if err := os.WriteFile(path, data, 0644); err != nil {
				log.Error("session export write failed", "path", path, "error", err)
			} else {
				sess.ExportPath = path
			}
		}
	}

	if s.sessions != nil {
		if err := s.sessions.Save(sess); err != nil {
			log.Error("session save failed", "session_id", sess.ID, "error", err)
		}
	}
	return sess, nil
}

// status snapshots the collector for dashboards and the status API.
func (s *Server) status() wire.StatusData {
	g, i, h := s.col.BufferSizes()
	st := wire.StatusData{
		Recording:      s.col.Recording(),
		WindowsEmitted: s.col.EmittedCount(),
		GazeBuffered:   g,
		Interactions:   i,
		HeartRate:      h,
		Highlighted:    s.highlights.Current(),
	}
	if st.Recording {
		st.ElapsedMs = s.col.Elapsed()
	}
	s.mu.Lock()
	if s.current != nil {
		st.SessionID = s.current.ID
	}
	s.mu.Unlock()
	return st
}
