// Package monitor exposes the host's runtime diagnostics: a liveness
// endpoint, a one-shot JSON stats snapshot, and a WebSocket stream that
// pushes snapshots on an interval for attached diagnostic tooling.
//
// Everything served here is a racy-but-safe read of lane and link counters;
// nothing in this package participates in control decisions.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openauto-go/headlink/internal/dispatch"
	"github.com/openauto-go/headlink/internal/link"
)

// Config holds diagnostics server settings.
type Config struct {
	Port           int
	StreamInterval time.Duration
}

// Snapshot is one observation of the host's counters.
type Snapshot struct {
	Instance  string         `json:"instance"`
	Session   string         `json:"session,omitempty"`
	Uptime    string         `json:"uptime"`
	CollectAt time.Time      `json:"collected_at"`
	Dispatch  dispatch.Stats `json:"dispatch"`
	Link      link.Stats     `json:"link"`
}

// SnapshotFunc produces the current snapshot.
type SnapshotFunc func() Snapshot

// Server is the diagnostics HTTP server.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	snapshot SnapshotFunc

	srv      *http.Server
	upgrader websocket.Upgrader
}

// NewServer creates a diagnostics server. snapshot must be safe to call
// from any goroutine.
func NewServer(cfg Config, snapshot SnapshotFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = time.Second
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/stream", s.handleStream)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	return s
}

// Handler returns the server's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.Info("monitor server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitor server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown monitor server: %w", err)
	}
	s.logger.Info("monitor server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.logger.Warn("stats encode failed", "error", err)
	}
}

// handleStream upgrades to WebSocket and pushes snapshots until the client
// goes away or the server shuts down. A slow client is dropped rather than
// allowed to pile up writes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("stream upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.Close()

	s.logger.Info("stream client connected", "remote", conn.RemoteAddr())

	// Reader side only notices the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			s.logger.Info("stream client disconnected", "remote", conn.RemoteAddr())
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(s.snapshot()); err != nil {
				s.logger.Info("stream client dropped", "remote", conn.RemoteAddr(), "error", err)
				return
			}
		}
	}
}
