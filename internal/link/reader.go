package link

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/openauto-go/headlink/internal/aap"
)

// Sink receives decoded messages. *dispatch.Dispatcher satisfies it.
type Sink interface {
	Dispatch(cat aap.Category, msg aap.Message)
}

// Config holds reader settings.
type Config struct {
	// BufferSize is the size of the buffered reader in front of the
	// link. Bulk transfers arrive in large chunks; the buffer absorbs
	// them so frame parsing never goes back to the fd per header.
	BufferSize int
}

// DefaultBufferSize absorbs roughly 100 ms of combined AV traffic.
const DefaultBufferSize = 512 * 1024

// Stats is a racy-but-safe snapshot of reader progress.
type Stats struct {
	Frames  uint64 `json:"frames"`
	Bytes   uint64 `json:"bytes"`
	Resyncs uint64 `json:"resyncs"`
}

// Reader decodes frames off a single link stream and dispatches them.
type Reader struct {
	cfg    Config
	logger *slog.Logger

	src  io.ReadCloser
	sink Sink

	// onError is invoked once if the read loop ends on anything other
	// than a clean close. Optional.
	onError func(error)

	done chan struct{}

	frames  atomic.Uint64
	bytes   atomic.Uint64
	resyncs atomic.Uint64
}

// NewReader creates a reader over src. It does not start reading until
// Start is called. onError may be nil.
func NewReader(cfg Config, src io.ReadCloser, sink Sink, onError func(error), logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}

	return &Reader{
		cfg:     cfg,
		logger:  logger,
		src:     src,
		sink:    sink,
		onError: onError,
		done:    make(chan struct{}),
	}
}

// Start spawns the single read goroutine.
func (r *Reader) Start(ctx context.Context) error {
	go r.readLoop()
	r.logger.Info("link reader started", "buffer_size", r.cfg.BufferSize)
	return nil
}

// Stop closes the underlying link to unblock the read loop and waits for
// it to exit, bounded by ctx.
func (r *Reader) Stop(ctx context.Context) error {
	_ = r.src.Close()

	select {
	case <-r.done:
		r.logger.Info("link reader stopped")
	case <-ctx.Done():
		r.logger.Warn("link reader stop timed out")
	}
	return nil
}

// Done is closed when the read loop exits, whether from Stop, a device
// disconnect, or a decode-fatal error.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Stats returns a snapshot of reader progress.
func (r *Reader) Stats() Stats {
	return Stats{
		Frames:  r.frames.Load(),
		Bytes:   r.bytes.Load(),
		Resyncs: r.resyncs.Load(),
	}
}

// readLoop reassembles frames. The header is pulled through a sliding
// 4-byte window: on an invalid header the window shifts by one byte and
// parsing retries, which re-finds frame alignment without discarding more
// than it must.
func (r *Reader) readLoop() {
	defer close(r.done)

	br := bufio.NewReaderSize(r.src, r.cfg.BufferSize)

	var hdr [aap.HeaderSize]byte
	have := 0

	for {
		if _, err := io.ReadFull(br, hdr[have:]); err != nil {
			r.finish(err)
			return
		}

		h := aap.ParseHeader(hdr[:])
		if !h.Encrypted() {
			n := r.resyncs.Add(1)
			if n == 1 || n%100 == 0 {
				r.logger.Warn("lost frame alignment, resyncing",
					"flags", h.Flags,
					"resyncs_total", n,
				)
			}
			copy(hdr[:], hdr[1:])
			have = aap.HeaderSize - 1
			continue
		}
		have = 0

		payload := make([]byte, int(h.Length))
		if _, err := io.ReadFull(br, payload); err != nil {
			r.finish(err)
			return
		}

		r.frames.Add(1)
		r.bytes.Add(uint64(aap.HeaderSize + len(payload)))

		r.sink.Dispatch(aap.CategoryFor(h.Channel), aap.Message{
			Channel: h.Channel,
			Flags:   h.Flags,
			Payload: payload,
		})
	}
}

// finish classifies the terminal read error. EOF and closed-connection
// errors are a normal session end; anything else is surfaced.
func (r *Reader) finish(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		r.logger.Info("link closed", "frames", r.frames.Load(), "bytes", r.bytes.Load())
		return
	}

	r.logger.Error("link read failed", "error", err)
	if r.onError != nil {
		r.onError(err)
	}
}

// DialTCP connects to a wireless-mode device endpoint.
func DialTCP(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Frames are latency-sensitive; never batch them.
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}
