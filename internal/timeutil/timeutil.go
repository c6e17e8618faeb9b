// Package timeutil provides helpers for converting between integer counts and
// time.Duration values without duration-by-duration arithmetic, which is
// flagged by linters like durationcheck.
package timeutil

import "time"

// FromMillis converts a non-negative millisecond count to time.Duration.
// Negative inputs return 0.
func FromMillis(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms * int64(time.Millisecond))
}

// Seconds renders a duration as fractional seconds with nanosecond
// resolution. Used for human-readable timing output.
func Seconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / float64(time.Second)
}
