// Package record persists per-session link telemetry to Postgres: one row
// per projection session and periodic per-lane counter samples. It exists
// for bench rigs and soak testing; the host runs identically without it.
package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openauto-go/headlink/internal/aap"
	"github.com/openauto-go/headlink/internal/dispatch"
)

// Config holds recorder settings.
type Config struct {
	Instance       string
	LinkKind       string
	SampleInterval time.Duration
	BatchSize      int
	FlushInterval  time.Duration
}

// Metrics counts recorder activity.
type Metrics struct {
	Samples int64
	Inserts int64
	Flushes int64
	Errors  int64
}

// laneRow is one lane observation bound for the lane_samples table.
type laneRow struct {
	SessionID uuid.UUID
	SampledAt time.Time
	Lane      string
	Depth     int64
	Dropped   int64
	Enqueued  int64
	Consumed  int64
	Faults    int64
}

// Recorder samples dispatcher stats on an interval and batches them to the
// database. One Recorder covers one session.
type Recorder struct {
	cfg    Config
	logger *slog.Logger

	db     *pgxpool.Pool
	source func() dispatch.Stats

	sessionID uuid.UUID
	startedAt time.Time

	// Batching
	batch       []laneRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewRecorder creates a recorder for a new session. source is called on
// every sample tick and must be safe from any goroutine.
func NewRecorder(cfg Config, db *pgxpool.Pool, source func() dispatch.Stats, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		source:    source,
		sessionID: uuid.New(),
		batch:     make([]laneRow, 0, cfg.BatchSize),
	}
}

// SessionID returns this session's identifier.
func (r *Recorder) SessionID() uuid.UUID {
	return r.sessionID
}

// Start registers the session and begins sampling.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.startedAt = time.Now().UTC()

	_, err := r.db.Exec(r.ctx, `
		INSERT INTO sessions (id, instance, link_kind, started_at)
		VALUES ($1, $2, $3, $4)
	`, r.sessionID, r.cfg.Instance, r.cfg.LinkKind, r.startedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.sampleLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("session recorder started",
		"session", r.sessionID,
		"sample_interval", r.cfg.SampleInterval,
		"batch_size", r.cfg.BatchSize,
	)
	return nil
}

// Stop ends sampling, flushes whatever is pending, and closes out the
// session row.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping session recorder", "session", r.sessionID)

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("session recorder stop timed out")
	}

	r.flushWith(ctx)

	if _, err := r.db.Exec(ctx, `
		UPDATE sessions SET ended_at = $1 WHERE id = $2
	`, time.Now().UTC(), r.sessionID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	r.logger.Info("session recorder stopped", "session", r.sessionID)
	return nil
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// sampleLoop appends one row per lane per tick.
func (r *Recorder) sampleLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sample(time.Now().UTC(), r.source())
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flushWith(r.ctx)
		}
	}
}

// sample transforms one stats snapshot into rows and batches them.
func (r *Recorder) sample(at time.Time, stats dispatch.Stats) {
	rows := r.transform(at, stats)

	r.batchMu.Lock()
	r.batch = append(r.batch, rows...)
	r.metrics.Samples++
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flushWith(r.ctx)
	}
}

// transform converts a dispatcher snapshot to one row per lane.
func (r *Recorder) transform(at time.Time, stats dispatch.Stats) []laneRow {
	row := func(lane aap.Category, s dispatch.LaneStats) laneRow {
		return laneRow{
			SessionID: r.sessionID,
			SampledAt: at,
			Lane:      lane.String(),
			Depth:     int64(s.Depth),
			Dropped:   int64(s.Dropped),
			Enqueued:  int64(s.Enqueued),
			Consumed:  int64(s.Consumed),
			Faults:    int64(s.Faults),
		}
	}
	return []laneRow{
		row(aap.CategoryAudio, stats.Audio),
		row(aap.CategoryVideo, stats.Video),
		row(aap.CategoryControl, stats.Control),
	}
}

// flushWith writes the current batch to the database.
func (r *Recorder) flushWith(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}
	batch := r.batch
	r.batch = make([]laneRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"lane_samples"},
		[]string{"session_id", "sampled_at", "lane", "depth", "dropped", "enqueued", "consumed", "faults"},
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			row := batch[i]
			return []any{
				row.SessionID, row.SampledAt, row.Lane,
				row.Depth, row.Dropped, row.Enqueued, row.Consumed, row.Faults,
			}, nil
		}),
	)
	if err != nil {
		r.logger.Error("sample flush failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += n
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed lane samples",
		"count", n,
		"duration", time.Since(start),
	)
}
