package sched

import (
	"runtime"
	"testing"
)

func TestHintString(t *testing.T) {
	tests := []struct {
		hint Hint
		want string
	}{
		{Normal, "normal"},
		{Display, "display"},
		{RealtimeAudio, "realtime-audio"},
		{RealtimeInput, "realtime-input"},
		{Hint(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.hint.String(); got != tt.want {
			t.Errorf("Hint(%d).String() = %q, want %q", tt.hint, got, tt.want)
		}
	}
}

// Apply is best effort: whatever the platform or privileges, it must never
// panic or block.
func TestApplyBestEffort(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for _, h := range []Hint{Normal, Display, RealtimeAudio, RealtimeInput} {
		Apply(h, nil)
	}
}
