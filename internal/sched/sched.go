// Package sched applies best-effort OS scheduling hints to worker threads.
//
// Lane workers for latency-critical traffic want real-time scheduling so a
// busy video pipeline cannot starve audio or touch input. Priority APIs are
// platform-specific, so the core expresses intent through a Hint and the
// platform file maps it to whatever the OS offers. Failures are logged and
// swallowed: a hint that cannot be applied never prevents a worker from
// running.
package sched

import "log/slog"

// Hint describes the scheduling intent for a worker thread.
type Hint int

const (
	// Normal leaves the thread at the default priority.
	Normal Hint = iota

	// Display aligns the thread with display-refresh work.
	Display

	// RealtimeAudio requests the highest real-time priority for
	// glitch-free audio delivery.
	RealtimeAudio

	// RealtimeInput requests the highest real-time priority for touch
	// and input responsiveness.
	RealtimeInput
)

// String returns the hint name.
func (h Hint) String() string {
	switch h {
	case Normal:
		return "normal"
	case Display:
		return "display"
	case RealtimeAudio:
		return "realtime-audio"
	case RealtimeInput:
		return "realtime-input"
	default:
		return "unknown"
	}
}

// Apply applies h to the calling thread. The caller must have pinned the
// goroutine with runtime.LockOSThread first, otherwise the hint lands on an
// arbitrary thread. Best effort: errors are logged at debug level.
func Apply(h Hint, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	apply(h, logger)
}
