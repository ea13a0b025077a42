package testvectors

import "math"

const (
	// PassThreshold is the lowest passing quality score.
	PassThreshold = 0.0

	// referenceSNR is the SNR in dB that scores exactly PassThreshold.
	referenceSNR = 48.0

	// PerfectScore is returned for identical signals.
	PerfectScore = 100.0
)

// SNR returns the ratio in dB of the reference power to the power of the
// difference between decoded and reference, over the shorter of the two.
// It is +Inf for identical signals and -Inf when the reference is silent
// but the decode is not.
func SNR(decoded, reference []int16) float64 {
	n := min(len(decoded), len(reference))
	var sig, noise float64
	for i := 0; i < n; i++ {
		r := float64(reference[i])
		e := float64(decoded[i]) - r
		sig += r * r
		noise += e * e
	}
	switch {
	case noise == 0:
		return math.Inf(1)
	case sig == 0:
		return math.Inf(-1)
	}
	return 10 * math.Log10(sig/noise)
}

// Quality maps the SNR of decoded against reference onto the opus_compare
// scale: 0 at 48 dB, 100 at 96 dB. Identical signals score PerfectScore.
// Signals of different lengths score -Inf.
func Quality(decoded, reference []int16) float64 {
	if len(decoded) != len(reference) {
		return math.Inf(-1)
	}
	snr := SNR(decoded, reference)
	if math.IsInf(snr, 1) {
		return PerfectScore
	}
	return (snr - referenceSNR) * PerfectScore / referenceSNR
}

// Passes reports whether q meets threshold.
func Passes(q, threshold float64) bool {
	return q >= threshold
}
