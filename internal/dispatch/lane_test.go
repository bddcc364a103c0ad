package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/openauto-go/headlink/internal/aap"
	"github.com/openauto-go/headlink/internal/sched"
)

func testLaneConfig(capacity int) LaneConfig {
	return LaneConfig{
		Name:        "test",
		Hint:        sched.Normal,
		Capacity:    capacity,
		JoinTimeout: 200 * time.Millisecond,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// recorder collects delivered payload bytes.
type recorder struct {
	mu   sync.Mutex
	got  []byte
	seen chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 1024)}
}

func (r *recorder) handler(m aap.Message) {
	r.mu.Lock()
	r.got = append(r.got, m.Payload[0])
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) snapshot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.got...)
}

func TestLane_DeliversInOrder(t *testing.T) {
	rec := newRecorder()
	l := NewLane(testLaneConfig(8), nil)
	l.SetHandler(rec.handler)
	l.Start()
	defer l.Stop()

	for i := byte(0); i < 3; i++ {
		l.Enqueue(msg(i))
	}

	waitFor(t, 2*time.Second, "3 deliveries", func() bool {
		return len(rec.snapshot()) == 3
	})

	got := rec.snapshot()
	for i := byte(0); i < 3; i++ {
		if got[i] != i {
			t.Errorf("delivery %d = %d, want %d", i, got[i], i)
		}
	}
}

func TestLane_DropOldestUnderOverload(t *testing.T) {
	// First message parks the worker inside the handler so the queue
	// fills behind it; later deliveries are recorded.
	entered := make(chan struct{})
	release := make(chan struct{})
	rec := newRecorder()
	first := true

	l := NewLane(testLaneConfig(2), nil)
	l.SetHandler(func(m aap.Message) {
		if first {
			first = false
			close(entered)
			<-release
			return
		}
		rec.handler(m)
	})
	l.Start()
	defer l.Stop()

	l.Enqueue(msg(99)) // sentinel, parks the worker
	<-entered

	l.Enqueue(msg(0)) // A
	l.Enqueue(msg(1)) // B
	l.Enqueue(msg(2)) // C evicts A

	if depth := l.Depth(); depth != 2 {
		t.Errorf("Depth() = %d, want 2", depth)
	}
	if dropped := l.Dropped(); dropped != 1 {
		t.Errorf("Dropped() = %d, want 1", dropped)
	}

	close(release)

	waitFor(t, 2*time.Second, "survivor deliveries", func() bool {
		return len(rec.snapshot()) == 2
	})
	got := rec.snapshot()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("survivors = %v, want [1 2]", got)
	}
}

func TestLane_FaultIsolation(t *testing.T) {
	rec := newRecorder()
	l := NewLane(testLaneConfig(8), nil)
	l.SetHandler(func(m aap.Message) {
		if m.Payload[0] == 0 {
			panic("defective consumer")
		}
		rec.handler(m)
	})
	l.Start()
	defer l.Stop()

	l.Enqueue(msg(0)) // panics
	l.Enqueue(msg(1))
	l.Enqueue(msg(2))

	waitFor(t, 2*time.Second, "deliveries after panic", func() bool {
		return len(rec.snapshot()) == 2
	})

	got := rec.snapshot()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("deliveries after panic = %v, want [1 2]", got)
	}
	if faults := l.Stats().Faults; faults != 1 {
		t.Errorf("Faults = %d, want 1", faults)
	}

	// Worker is still alive for later traffic.
	l.Enqueue(msg(3))
	waitFor(t, 2*time.Second, "delivery after recovery", func() bool {
		return len(rec.snapshot()) == 3
	})
}

func TestLane_StopBoundedWithStuckHandler(t *testing.T) {
	entered := make(chan struct{})
	l := NewLane(testLaneConfig(4), nil)
	l.SetHandler(func(aap.Message) {
		close(entered)
		select {} // never returns
	})
	l.Start()

	l.Enqueue(msg(0))
	<-entered

	start := time.Now()
	l.Stop()
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Stop took %v, want bounded by join timeout (~200ms)", elapsed)
	}
	if depth := l.Depth(); depth != 0 {
		t.Errorf("Depth() after Stop = %d, want 0", depth)
	}
}

func TestLane_NoHandlerDrains(t *testing.T) {
	l := NewLane(testLaneConfig(8), nil)
	l.Start()
	defer l.Stop()

	for i := byte(0); i < 5; i++ {
		l.Enqueue(msg(i))
	}

	waitFor(t, 2*time.Second, "handler-less drain", func() bool {
		s := l.Stats()
		return s.Consumed == 5 && s.Depth == 0
	})

	if dropped := l.Dropped(); dropped != 0 {
		t.Errorf("Dropped() = %d, want 0 (discard-by-policy is not overload)", dropped)
	}
}

func TestLane_NotRunningEnqueueIsNoop(t *testing.T) {
	l := NewLane(testLaneConfig(4), nil)

	l.Enqueue(msg(0))

	if depth := l.Depth(); depth != 0 {
		t.Errorf("Depth() = %d, want 0", depth)
	}
	if s := l.Stats(); s.Enqueued != 0 || s.Dropped != 0 {
		t.Errorf("Stats() = %+v, want untouched counters", s)
	}
}

func TestLane_RestartResetsCounters(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	l := NewLane(testLaneConfig(1), nil)
	l.SetHandler(func(aap.Message) {
		once.Do(func() { close(entered) })
		<-release
	})
	l.Start()

	l.Enqueue(msg(0))
	<-entered
	l.Enqueue(msg(1))
	l.Enqueue(msg(2)) // evicts 1

	if dropped := l.Dropped(); dropped != 1 {
		t.Fatalf("Dropped() = %d, want 1", dropped)
	}

	close(release)
	l.Stop()
	l.SetHandler(nil)
	l.Start()
	defer l.Stop()

	if dropped := l.Dropped(); dropped != 0 {
		t.Errorf("Dropped() after restart = %d, want 0", dropped)
	}
	if s := l.Stats(); s.Enqueued != 0 || s.Consumed != 0 {
		t.Errorf("Stats() after restart = %+v, want zeroed", s)
	}
}

func TestLane_StartIdempotent(t *testing.T) {
	rec := newRecorder()
	l := NewLane(testLaneConfig(8), nil)
	l.SetHandler(rec.handler)
	l.Start()
	l.Start() // no-op
	defer l.Stop()

	l.Enqueue(msg(7))
	waitFor(t, 2*time.Second, "single delivery", func() bool {
		return len(rec.snapshot()) == 1
	})

	// A duplicate worker would double-deliver subsequent messages.
	l.Enqueue(msg(8))
	waitFor(t, 2*time.Second, "second delivery", func() bool {
		return len(rec.snapshot()) == 2
	})
	time.Sleep(50 * time.Millisecond)
	if n := len(rec.snapshot()); n != 2 {
		t.Errorf("deliveries = %d, want 2", n)
	}
}

func TestLane_AccountingAtQuiescence(t *testing.T) {
	rec := newRecorder()
	l := NewLane(testLaneConfig(2), nil)
	l.SetHandler(func(m aap.Message) {
		time.Sleep(2 * time.Millisecond) // slow consumer to force drops
		rec.handler(m)
	})
	l.Start()
	defer l.Stop()

	const total = 50
	for i := 0; i < total; i++ {
		l.Enqueue(msg(byte(i)))
	}

	waitFor(t, 5*time.Second, "quiescence", func() bool {
		s := l.Stats()
		return s.Depth == 0 && s.Consumed+s.Dropped == total
	})

	s := l.Stats()
	if s.Enqueued != total {
		t.Errorf("Enqueued = %d, want %d", s.Enqueued, total)
	}
	if s.Dropped != s.Enqueued-s.Consumed-uint64(s.Depth) {
		t.Errorf("accounting broken: %+v", s)
	}
}
