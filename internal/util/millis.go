package util

import "time"

// Millis returns the current wall-clock time in floating-point
// milliseconds since the Unix epoch. The protocol exchanges timestamps
// in this unit (ping/pong probes, the state-probe cadence).
func Millis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
