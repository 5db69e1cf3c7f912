package audio

import "math"

// Midpoint is the zero-signal value of unsigned 8-bit samples.
const Midpoint = 128.0

// RMS returns the root mean square deviation of buf around midpoint. An empty
// buffer has zero loudness.
func RMS(buf []byte, midpoint float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, b := range buf {
		d := float64(b) - midpoint
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(buf)))
}
