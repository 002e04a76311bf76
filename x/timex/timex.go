package timex

import (
	"time"

	"fadecode-go/x/mathx"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// TimerPeriod returns the overflow period of a hardware counter clocked at
// clockHz through prescaler that wraps after counts ticks.
func TimerPeriod(clockHz, prescaler, counts uint32) time.Duration {
	if clockHz == 0 {
		return 0
	}
	ns := uint64(prescaler) * uint64(counts) * uint64(time.Second)
	return time.Duration(mathx.RoundDiv(ns, uint64(clockHz)))
}

// TimerCounts is the inverse of TimerPeriod: the number of prescaled ticks
// that make up period, rounded to the nearest tick.
func TimerCounts(clockHz, prescaler uint32, period time.Duration) uint32 {
	if prescaler == 0 || period <= 0 {
		return 0
	}
	ticks := uint64(clockHz) * uint64(period)
	return uint32(mathx.RoundDiv(ticks, uint64(prescaler)*uint64(time.Second)))
}
