package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns elapsed time measured against NowFunc.
func Since(t time.Time) time.Duration { return Now().Sub(t) }

// SinceMs returns elapsed milliseconds, never negative.
func SinceMs(t time.Time) int64 {
	ms := Since(t).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
