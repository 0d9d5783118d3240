package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/affectlab/gazeflow/internal/config"
	"github.com/affectlab/gazeflow/internal/log"
	"github.com/affectlab/gazeflow/pkg/ingest"
	"github.com/affectlab/gazeflow/pkg/layout"
	"github.com/affectlab/gazeflow/pkg/session"
)

func main() {
	configPath := flag.String("config", "gazeflow.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	// Layout: loaded from file when configured, otherwise empty until a
	// client reports its measured geometry.
	var lay *layout.Layout
	var watcher *layout.Watcher
	if cfg.LayoutPath != "" {
		lay, err = layout.Load(cfg.LayoutPath)
		if err != nil {
			log.Error("layout load failed", "path", cfg.LayoutPath, "error", err)
			os.Exit(1)
		}
		watcher, err = layout.Watch(lay, cfg.LayoutPath)
		if err != nil {
			log.Warn("layout watch unavailable", "error", err)
		} else {
			defer watcher.Close()
		}
		log.Info("layout loaded", "path", cfg.LayoutPath, "blocks", lay.BlockCount())
	} else {
		lay = layout.New(nil)
	}

	store, err := session.NewJSONStore(filepath.Join(cfg.DataDir, "sessions.json"))
	if err != nil {
		log.Error("session store init failed", "error", err)
		os.Exit(1)
	}

	srv := ingest.New(cfg, lay, store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("gazeflow starting",
		"port", cfg.ListenPort,
		"window_ms", cfg.WindowSizeMs,
		"smoothing", cfg.SmoothingFactor,
		"classifier", cfg.ClassifierURL)

	if err := srv.Start(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
