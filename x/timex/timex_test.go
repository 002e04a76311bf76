package timex

import (
	"testing"
	"time"
)

func TestTimerPeriodAVRTimer2(t *testing.T) {
	// 16 MHz, /1024, wrapping after OCR2A+1 = 125 counts.
	if got := TimerPeriod(16_000_000, 1024, 125); got != 8*time.Millisecond {
		t.Fatalf("TimerPeriod = %v, want 8ms", got)
	}
	// Full 8-bit range: the longest interval Timer2 can measure.
	if got := TimerPeriod(16_000_000, 1024, 256); got != 16384*time.Microsecond {
		t.Fatalf("TimerPeriod(256) = %v, want 16.384ms", got)
	}
	if got := TimerPeriod(0, 1024, 125); got != 0 {
		t.Fatalf("zero clock = %v", got)
	}
}

func TestTimerCountsRoundTrip(t *testing.T) {
	if got := TimerCounts(16_000_000, 1024, 8*time.Millisecond); got != 125 {
		t.Fatalf("TimerCounts = %d, want 125", got)
	}
	if got := TimerCounts(16_000_000, 0, time.Millisecond); got != 0 {
		t.Fatalf("zero prescaler = %d", got)
	}
	if got := TimerCounts(16_000_000, 1024, -time.Millisecond); got != 0 {
		t.Fatalf("negative period = %d", got)
	}
}
