package opusnative

import "math"

// float32ToInt16 scales a sample to 16 bits, saturating and rounding half
// to even.
func float32ToInt16(x float32) int16 {
	v := x * 32768
	switch {
	case v >= 32767:
		return 32767
	case v <= -32768:
		return -32768
	}
	return int16(math.RoundToEven(float64(v)))
}
