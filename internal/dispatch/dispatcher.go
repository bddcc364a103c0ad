package dispatch

import (
	"log/slog"

	"github.com/openauto-go/headlink/internal/aap"
	"github.com/openauto-go/headlink/internal/sched"
)

// Config fixes the per-category lane configurations.
type Config struct {
	Audio   LaneConfig
	Video   LaneConfig
	Control LaneConfig
}

// DefaultConfig returns the tuned per-category settings: audio and control
// at the real-time hints with deeper queues, video at display priority with
// a shallow queue since it keeps its own downstream frame buffer and its
// burstier traffic is expected to tolerate more loss.
func DefaultConfig() Config {
	return Config{
		Audio: LaneConfig{
			Name:     aap.CategoryAudio.String(),
			Hint:     sched.RealtimeAudio,
			Capacity: 64,
		},
		Video: LaneConfig{
			Name:     aap.CategoryVideo.String(),
			Hint:     sched.Display,
			Capacity: 30,
		},
		Control: LaneConfig{
			Name:     aap.CategoryControl.String(),
			Hint:     sched.RealtimeInput,
			Capacity: 64,
		},
	}
}

// Stats aggregates per-lane snapshots.
type Stats struct {
	Audio   LaneStats `json:"audio"`
	Video   LaneStats `json:"video"`
	Control LaneStats `json:"control"`
}

// Dispatcher owns one lane per traffic category and exposes the single
// non-blocking entry point the link reader uses. The category→lane mapping
// is a fixed array built once at construction; lane state mutates, the
// mapping never does.
type Dispatcher struct {
	logger *slog.Logger
	lanes  [aap.CategoryCount]*Lane
}

// New builds a dispatcher with one lane per category.
func New(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{logger: logger}
	d.lanes[aap.CategoryAudio] = NewLane(cfg.Audio, logger)
	d.lanes[aap.CategoryVideo] = NewLane(cfg.Video, logger)
	d.lanes[aap.CategoryControl] = NewLane(cfg.Control, logger)
	return d
}

// Dispatch hands msg to the lane for cat. Called from the single link
// reader thread; completes in effectively constant time and never blocks on
// I/O or handler execution. Unknown categories and stopped lanes discard
// silently: all backpressure is absorbed here, the read path never
// observes it.
func (d *Dispatcher) Dispatch(cat aap.Category, msg aap.Message) {
	if !cat.Valid() {
		return
	}
	d.lanes[cat].Enqueue(msg)
}

// SetHandler registers (or with nil, unregisters) the handler for cat.
func (d *Dispatcher) SetHandler(cat aap.Category, h Handler) {
	if !cat.Valid() {
		return
	}
	d.lanes[cat].SetHandler(h)
}

// Start brings every lane up. Idempotent per lane.
func (d *Dispatcher) Start() {
	for _, l := range d.lanes {
		l.Start()
	}
	d.logger.Info("dispatcher started",
		"audio_capacity", d.lanes[aap.CategoryAudio].cfg.Capacity,
		"video_capacity", d.lanes[aap.CategoryVideo].cfg.Capacity,
		"control_capacity", d.lanes[aap.CategoryControl].cfg.Capacity,
	)
}

// Stop brings every lane down, each with its own bounded join, so total
// shutdown latency is bounded by categories × join timeout even if every
// handler is stuck.
func (d *Dispatcher) Stop() {
	for _, l := range d.lanes {
		l.Stop()
	}
	d.logger.Info("dispatcher stopped")
}

// QueueDepth returns the current queue depth for cat.
func (d *Dispatcher) QueueDepth(cat aap.Category) int {
	if !cat.Valid() {
		return 0
	}
	return d.lanes[cat].Depth()
}

// DroppedCount returns the cumulative dropped-message count for cat since
// its lane last started.
func (d *Dispatcher) DroppedCount(cat aap.Category) uint64 {
	if !cat.Valid() {
		return 0
	}
	return d.lanes[cat].Dropped()
}

// Stats returns a snapshot of every lane's counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Audio:   d.lanes[aap.CategoryAudio].Stats(),
		Video:   d.lanes[aap.CategoryVideo].Stats(),
		Control: d.lanes[aap.CategoryControl].Stats(),
	}
}
