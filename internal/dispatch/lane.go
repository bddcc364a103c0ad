package dispatch

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openauto-go/headlink/internal/aap"
	"github.com/openauto-go/headlink/internal/sched"
)

// Handler consumes a message on its lane's worker thread. A handler is
// never invoked concurrently with itself, but runs concurrently with the
// handlers of other lanes.
type Handler func(msg aap.Message)

// Default lane timings. The poll interval bounds how quickly an idle worker
// notices a stop request; the join timeout bounds how long Stop waits for a
// worker stuck inside a handler before abandoning it.
const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultJoinTimeout  = 500 * time.Millisecond
)

// dropWarnInterval rate-limits eviction warnings to one per this many
// cumulative drops.
const dropWarnInterval = 100

// LaneConfig fixes a lane's identity, scheduling and sizing at
// construction. Fields are never mutated afterwards.
type LaneConfig struct {
	Name         string
	Hint         sched.Hint
	Capacity     int
	PollInterval time.Duration
	JoinTimeout  time.Duration
}

func (c *LaneConfig) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
}

// LaneStats is a racy-but-safe snapshot of a lane's counters, for
// monitoring only, never for control decisions.
type LaneStats struct {
	Depth    int    `json:"depth"`
	Dropped  uint64 `json:"dropped"`
	Enqueued uint64 `json:"enqueued"`
	Consumed uint64 `json:"consumed"`
	Faults   uint64 `json:"faults"`
}

// Lane is a bounded queue plus one dedicated worker for a single traffic
// category. The queue is single-producer (the link reader thread) and
// single-consumer (the worker) by contract; the handler reference, running
// flag and counters are the only shared state and are all atomic.
type Lane struct {
	cfg    LaneConfig
	logger *slog.Logger

	queue  *ring
	notify chan struct{}

	handler atomic.Pointer[Handler]
	running atomic.Bool

	// Control plane. Serializes Start/Stop, never touched by Enqueue.
	ctlMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}

	enqueued atomic.Uint64
	dropped  atomic.Uint64
	consumed atomic.Uint64
	faults   atomic.Uint64
}

// NewLane creates an idle lane. Call Start to spawn its worker.
func NewLane(cfg LaneConfig, logger *slog.Logger) *Lane {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Lane{
		cfg:    cfg,
		logger: logger,
		queue:  newRing(cfg.Capacity),
		notify: make(chan struct{}, 1),
	}
}

// SetHandler replaces the registered handler; nil unregisters it, after
// which messages are drained and discarded without counting as drops. The
// worker observes the change on its next delivery: whether messages already
// queued reach the old or the new handler is deliberately unspecified
// ("last write before the next poll wins").
func (l *Lane) SetHandler(h Handler) {
	if h == nil {
		l.handler.Store(nil)
		return
	}
	l.handler.Store(&h)
}

// Start spawns the worker at the configured scheduling hint and resets the
// counters. Idempotent: a running lane is left untouched.
func (l *Lane) Start() {
	l.ctlMu.Lock()
	defer l.ctlMu.Unlock()

	if l.running.Load() {
		return
	}

	l.enqueued.Store(0)
	l.dropped.Store(0)
	l.consumed.Store(0)
	l.faults.Store(0)

	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.running.Store(true)

	go l.worker(l.stop, l.done)
}

// Stop requests termination and joins the worker with a bounded timeout.
// If a handler never returns the worker is abandoned rather than waited on,
// so Stop itself always returns within roughly the join timeout. The queue
// is cleared unconditionally. Idempotent.
func (l *Lane) Stop() {
	l.ctlMu.Lock()
	defer l.ctlMu.Unlock()

	if !l.running.Load() {
		return
	}
	l.running.Store(false)
	close(l.stop)

	select {
	case <-l.done:
	case <-time.After(l.cfg.JoinTimeout):
		l.logger.Warn("lane worker join timed out, abandoning thread",
			"lane", l.cfg.Name,
			"timeout", l.cfg.JoinTimeout,
		)
	}

	l.queue.clear()
}

// Enqueue appends msg for delivery, evicting the oldest pending message if
// the queue is full. Called from the link reader thread only; never blocks.
// A lane that is not running discards msg silently.
func (l *Lane) Enqueue(msg aap.Message) {
	if !l.running.Load() {
		return
	}

	if l.queue.pushEvict(msg) {
		n := l.dropped.Add(1)
		if n == 1 || n%dropWarnInterval == 0 {
			l.logger.Warn("lane queue full, dropping oldest",
				"lane", l.cfg.Name,
				"dropped_total", n,
				"capacity", l.cfg.Capacity,
			)
		}
	}
	l.enqueued.Add(1)

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Depth returns the current queue depth. Eventually consistent.
func (l *Lane) Depth() int {
	return l.queue.depth()
}

// Dropped returns the cumulative dropped-message count since the last
// Start. Eventually consistent.
func (l *Lane) Dropped() uint64 {
	return l.dropped.Load()
}

// Stats returns a snapshot of the lane's counters.
func (l *Lane) Stats() LaneStats {
	return LaneStats{
		Depth:    l.queue.depth(),
		Dropped:  l.dropped.Load(),
		Enqueued: l.enqueued.Load(),
		Consumed: l.consumed.Load(),
		Faults:   l.faults.Load(),
	}
}

// worker is the lane's consumer loop. It pins itself to an OS thread so the
// scheduling hint sticks, then alternates between draining the queue and a
// bounded wait. The wait is short so a stop request is noticed promptly
// without busy-spinning.
func (l *Lane) worker(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	runtime.LockOSThread()
	sched.Apply(l.cfg.Hint, l.logger)

	l.logger.Info("lane worker started",
		"lane", l.cfg.Name,
		"capacity", l.cfg.Capacity,
		"hint", l.cfg.Hint.String(),
	)

	timer := time.NewTimer(l.cfg.PollInterval)
	defer timer.Stop()

	for {
		for {
			select {
			case <-stop:
				l.logger.Info("lane worker stopped", "lane", l.cfg.Name)
				return
			default:
			}

			msg, ok := l.queue.tryPop()
			if !ok {
				break
			}
			l.deliver(msg)
			l.consumed.Add(1)
		}

		select {
		case <-stop:
			l.logger.Info("lane worker stopped", "lane", l.cfg.Name)
			return
		case <-l.notify:
		case <-timer.C:
		}
		timer.Reset(l.cfg.PollInterval)
	}
}

// deliver invokes the current handler with msg. A panicking handler is
// logged and contained here; the worker moves on to the next message. No
// handler means the message is consumed and discarded.
func (l *Lane) deliver(msg aap.Message) {
	h := l.handler.Load()
	if h == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.faults.Add(1)
			l.logger.Error("handler panicked",
				"lane", l.cfg.Name,
				"channel", aap.ChannelName(msg.Channel),
				"panic", r,
			)
		}
	}()

	(*h)(msg)
}
