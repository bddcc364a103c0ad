//go:build linux

package sched

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

const (
	// SCHED_FIFO priority for real-time lanes. 99 is the maximum on Linux.
	rtPriority = 99

	// Nice levels used when SCHED_FIFO is unavailable (it usually needs
	// CAP_SYS_NICE or an RLIMIT_RTPRIO grant).
	rtFallbackNice = -19
	displayNice    = -10
)

func apply(h Hint, logger *slog.Logger) {
	tid := unix.Gettid()

	switch h {
	case RealtimeAudio, RealtimeInput:
		attr := unix.SchedAttr{
			Size:     unix.SizeofSchedAttr,
			Policy:   unix.SCHED_FIFO,
			Priority: rtPriority,
		}
		if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
			if err2 := unix.Setpriority(unix.PRIO_PROCESS, tid, rtFallbackNice); err2 != nil {
				logger.Debug("scheduling hint not applied", "hint", h.String(), "tid", tid, "error", err)
				return
			}
			logger.Debug("sched_fifo unavailable, using nice",
				"hint", h.String(), "tid", tid, "nice", rtFallbackNice, "error", err)
			return
		}
		logger.Debug("sched_fifo applied", "hint", h.String(), "tid", tid, "priority", rtPriority)

	case Display:
		if err := unix.Setpriority(unix.PRIO_PROCESS, tid, displayNice); err != nil {
			logger.Debug("scheduling hint not applied", "hint", h.String(), "tid", tid, "error", err)
			return
		}
		logger.Debug("nice applied", "hint", h.String(), "tid", tid, "nice", displayNice)
	}
}
