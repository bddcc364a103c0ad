// headunitd is the host daemon for a projection link session: it owns the
// link reader, the priority dispatcher, the diagnostics surface, and the
// optional session telemetry recorder. Media pipelines (audio sink, video
// frame queue, input injection) register their handlers on the dispatcher;
// the placeholder sinks installed here only count traffic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openauto-go/headlink/internal/aap"
	"github.com/openauto-go/headlink/internal/config"
	"github.com/openauto-go/headlink/internal/dispatch"
	"github.com/openauto-go/headlink/internal/link"
	"github.com/openauto-go/headlink/internal/monitor"
	"github.com/openauto-go/headlink/internal/record"
	"github.com/openauto-go/headlink/internal/sched"
	"github.com/openauto-go/headlink/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/headunitd.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting headunitd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"link_mode", cfg.Link.Mode,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the telemetry database if recording is on
	var pool *pgxpool.Pool
	if cfg.Record.Enabled {
		logger.Info("connecting to telemetry database",
			"host", cfg.Record.Database.Host,
			"database", cfg.Record.Database.Name,
		)
		pool, err = record.Connect(ctx, cfg.Record.Database)
		if err != nil {
			logger.Error("failed to connect to telemetry database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("telemetry database connected")
	}

	// Build the dispatcher with per-category lanes
	disp := dispatch.New(dispatchConfig(cfg), logger)
	installSinks(disp, logger)

	// The current session's reader, for diagnostics snapshots.
	var currentReader atomic.Pointer[link.Reader]
	startedAt := time.Now()

	// Monitor server
	var mon *monitor.Server
	if cfg.Monitor.Enabled {
		mon = monitor.NewServer(
			monitor.Config{Port: cfg.Monitor.Port, StreamInterval: cfg.Monitor.StreamInterval},
			func() monitor.Snapshot {
				snap := monitor.Snapshot{
					Instance:  cfg.Instance.ID,
					Uptime:    time.Since(startedAt).Round(time.Second).String(),
					CollectAt: time.Now().UTC(),
					Dispatch:  disp.Stats(),
				}
				if r := currentReader.Load(); r != nil {
					snap.Link = r.Stats()
				}
				return snap
			},
			logger,
		)
		if err := mon.Start(ctx); err != nil {
			logger.Error("failed to start monitor server", "error", err)
			os.Exit(1)
		}
	}

	// Run sessions until shutdown
	if err := runSessions(ctx, cfg, disp, pool, &currentReader, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("session loop failed", "error", err)
	}

	// Ordered shutdown
	if mon != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := mon.Stop(stopCtx); err != nil {
			logger.Warn("monitor shutdown", "error", err)
		}
		stopCancel()
	}

	logger.Info("headunitd stopped")
}

// dispatchConfig maps file configuration onto lane configs.
func dispatchConfig(cfg *config.Config) dispatch.Config {
	lane := func(name string, hint sched.Hint, capacity int) dispatch.LaneConfig {
		return dispatch.LaneConfig{
			Name:         name,
			Hint:         hint,
			Capacity:     capacity,
			PollInterval: cfg.Dispatch.PollInterval,
			JoinTimeout:  cfg.Dispatch.JoinTimeout,
		}
	}
	return dispatch.Config{
		Audio:   lane("audio", sched.RealtimeAudio, cfg.Dispatch.Audio.Capacity),
		Video:   lane("video", sched.Display, cfg.Dispatch.Video.Capacity),
		Control: lane("control", sched.RealtimeInput, cfg.Dispatch.Control.Capacity),
	}
}

// installSinks registers counting placeholder handlers. The real media
// pipelines replace these through SetHandler once they come up.
func installSinks(disp *dispatch.Dispatcher, logger *slog.Logger) {
	sink := func(lane string, logEvery uint64) dispatch.Handler {
		var n atomic.Uint64
		return func(msg aap.Message) {
			if c := n.Add(1); c%logEvery == 0 {
				logger.Debug("sink progress",
					"lane", lane,
					"messages", c,
					"last_channel", aap.ChannelName(msg.Channel),
				)
			}
		}
	}
	disp.SetHandler(aap.CategoryAudio, sink("audio", 1000))
	disp.SetHandler(aap.CategoryVideo, sink("video", 300))
	disp.SetHandler(aap.CategoryControl, sink("control", 50))
}

// runSessions obtains link streams per the configured mode and serves one
// projection session per stream.
func runSessions(
	ctx context.Context,
	cfg *config.Config,
	disp *dispatch.Dispatcher,
	pool *pgxpool.Pool,
	currentReader *atomic.Pointer[link.Reader],
	logger *slog.Logger,
) error {
	switch cfg.Link.Mode {
	case "fd":
		stream := os.NewFile(uintptr(cfg.Link.FD), "link")
		if stream == nil {
			return fmt.Errorf("invalid link fd %d", cfg.Link.FD)
		}
		return runSession(ctx, cfg, disp, pool, currentReader, stream, "fd", logger)

	case "tcp-dial":
		conn, err := link.DialTCP(ctx, cfg.Link.Addr)
		if err != nil {
			return fmt.Errorf("dial link: %w", err)
		}
		logger.Info("link connected", "remote", conn.RemoteAddr())
		return runSession(ctx, cfg, disp, pool, currentReader, conn, "tcp", logger)

	case "tcp-listen":
		ln, err := net.Listen("tcp", cfg.Link.Addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		defer ln.Close()
		go func() {
			<-ctx.Done()
			ln.Close() // unblock Accept
		}()
		logger.Info("waiting for link connections", "addr", cfg.Link.Addr)

		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("accept: %w", err)
			}
			logger.Info("link connected", "remote", conn.RemoteAddr())

			if err := runSession(ctx, cfg, disp, pool, currentReader, conn, "tcp", logger); err != nil {
				logger.Warn("session ended with error", "error", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

	default:
		return fmt.Errorf("unsupported link mode %q", cfg.Link.Mode)
	}
}

// runSession drives one projection session over stream: recorder up,
// lanes up, reader up, then the reverse on the way down. Counters reset
// with the lanes, so every session starts from zero.
func runSession(
	ctx context.Context,
	cfg *config.Config,
	disp *dispatch.Dispatcher,
	pool *pgxpool.Pool,
	currentReader *atomic.Pointer[link.Reader],
	stream io.ReadCloser,
	linkKind string,
	logger *slog.Logger,
) error {
	var rec *record.Recorder
	if pool != nil {
		rec = record.NewRecorder(record.Config{
			Instance:       cfg.Instance.ID,
			LinkKind:       linkKind,
			SampleInterval: cfg.Record.SampleInterval,
			BatchSize:      cfg.Record.BatchSize,
			FlushInterval:  cfg.Record.FlushInterval,
		}, pool, disp.Stats, logger)
		if err := rec.Start(ctx); err != nil {
			stream.Close()
			return fmt.Errorf("start recorder: %w", err)
		}
		logger.Info("recording session", "session", rec.SessionID())
	}

	disp.Start()

	reader := link.NewReader(
		link.Config{BufferSize: cfg.Link.ReadBufferSize},
		stream,
		disp,
		func(err error) { logger.Warn("link fault", "error", err) },
		logger,
	)
	currentReader.Store(reader)

	if err := reader.Start(ctx); err != nil {
		disp.Stop()
		return fmt.Errorf("start reader: %w", err)
	}

	// Session runs until the link drops or we are told to shut down.
	select {
	case <-reader.Done():
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	if err := reader.Stop(stopCtx); err != nil {
		logger.Warn("reader shutdown", "error", err)
	}
	disp.Stop()

	if rec != nil {
		if err := rec.Stop(stopCtx); err != nil {
			logger.Warn("recorder shutdown", "error", err)
		}
	}

	logger.Info("session closed", "link", linkKind)
	return nil
}
