package dispatch

import (
	"sync"

	"github.com/openauto-go/headlink/internal/aap"
)

// ring is a fixed-capacity FIFO for queued messages. Unlike a channel it
// supports evicting the oldest entry when full, which is the lane
// backpressure policy: for audio, video and input alike, fresh data beats
// complete data. The storage is allocated once at construction.
type ring struct {
	mu    sync.Mutex
	buf   []aap.Message
	head  int // read position
	tail  int // write position
	count int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]aap.Message, capacity)}
}

// pushEvict appends msg to the tail. If the ring is full it evicts the
// entry at the head first and reports the eviction.
func (r *ring) pushEvict(msg aap.Message) (evicted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == len(r.buf) {
		r.buf[r.head] = aap.Message{}
		r.head = (r.head + 1) % len(r.buf)
		r.count--
		evicted = true
	}

	r.buf[r.tail] = msg
	r.tail = (r.tail + 1) % len(r.buf)
	r.count++
	return evicted
}

// tryPop removes and returns the oldest entry without blocking.
func (r *ring) tryPop() (aap.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return aap.Message{}, false
	}

	msg := r.buf[r.head]
	r.buf[r.head] = aap.Message{} // release payload reference
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return msg, true
}

// depth returns the number of queued entries.
func (r *ring) depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// clear discards all queued entries.
func (r *ring) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count > 0 {
		r.buf[r.head] = aap.Message{}
		r.head = (r.head + 1) % len(r.buf)
		r.count--
	}
	r.head = 0
	r.tail = 0
}
