package runtime

import (
	"time"
	_ "unsafe" // for go:linkname
)

// NanoTime returns the current time in nanoseconds from a monotonic clock.
// Values are only meaningful relative to each other within one process.
//
//go:linkname NanoTime runtime.nanotime
func NanoTime() int64

// Since returns the time elapsed since a NanoTime reading.
func Since(start int64) time.Duration {
	return time.Duration(NanoTime() - start)
}
