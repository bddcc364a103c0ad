// linksim generates a synthetic projection traffic mix against a headunitd
// instance listening in tcp mode: a steady audio cadence, bursty video
// frames, and sparse control taps, all as valid encrypted-flag frames. It
// exists for soak and backpressure testing; numbers approximate a real
// session (100 audio packets/s, 30 video frames/s).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/openauto-go/headlink/internal/aap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5277", "headunitd link address")
	duration := flag.Duration("duration", 30*time.Second, "how long to stream")
	videoBurst := flag.Int("video-burst", 5, "frames per video burst")
	seed := flag.Int64("seed", 1, "payload RNG seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Error("dial failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("streaming", "addr", *addr, "duration", *duration)

	rng := rand.New(rand.NewSource(*seed))
	payload := func(n int) []byte {
		b := make([]byte, n)
		rng.Read(b)
		return b
	}

	var frames, bytesOut int64
	send := func(channel uint8, size int) bool {
		frame := aap.AppendFrame(nil, channel, aap.FlagEncrypted, payload(size))
		if _, err := conn.Write(frame); err != nil {
			logger.Error("write failed", "error", err)
			return false
		}
		frames++
		bytesOut += int64(len(frame))
		return true
	}

	audioTick := time.NewTicker(10 * time.Millisecond)  // ~100 packets/s
	videoTick := time.NewTicker(33 * time.Millisecond)  // ~30 fps
	inputTick := time.NewTicker(150 * time.Millisecond) // occasional taps
	defer audioTick.Stop()
	defer videoTick.Stop()
	defer inputTick.Stop()

	deadline := time.After(*duration)
	start := time.Now()

loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-audioTick.C:
			if !send(aap.ChannelAudio, 512) {
				break loop
			}
		case <-videoTick.C:
			// Video arrives in bursts, which is what pressures the
			// video lane's shallow queue.
			for i := 0; i < *videoBurst; i++ {
				if !send(aap.ChannelVideo, 4096) {
					break loop
				}
			}
		case <-inputTick.C:
			if !send(aap.ChannelInput, 32) {
				break loop
			}
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("sent %d frames, %d bytes in %s (%.0f frames/s)\n",
		frames, bytesOut, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
}
