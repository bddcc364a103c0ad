//go:build !linux

package sched

import "log/slog"

// No fine-grained priority control on this platform.
func apply(h Hint, logger *slog.Logger) {
	if h != Normal {
		logger.Debug("scheduling hints unsupported on this platform", "hint", h.String())
	}
}
