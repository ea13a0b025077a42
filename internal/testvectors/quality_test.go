package testvectors

import (
	"math"
	"testing"
)

func TestQuality(t *testing.T) {
	ref := make([]int16, 4800)
	for i := range ref {
		ref[i] = int16(10000 * math.Sin(2*math.Pi*float64(i)/48))
	}

	if q := Quality(ref, ref); q != PerfectScore {
		t.Errorf("identical signals score %v, want %v", q, PerfectScore)
	}
	if q := Quality(ref[:100], ref); !math.IsInf(q, -1) {
		t.Errorf("length mismatch scores %v, want -Inf", q)
	}

	// A constant error of 1 LSB against a 10000 amplitude sine is about
	// 77 dB SNR.
	dec := make([]int16, len(ref))
	for i, v := range ref {
		dec[i] = v + 1
	}
	q := Quality(dec, ref)
	if q < 55 || q > 65 {
		t.Errorf("1 LSB error scores %v", q)
	}
	if !Passes(q, PassThreshold) {
		t.Error("1 LSB error fails")
	}

	// Halving the signal is a 6 dB SNR.
	for i, v := range ref {
		dec[i] = v / 2
	}
	if q := Quality(dec, ref); Passes(q, PassThreshold) {
		t.Errorf("halved signal passes with %v", q)
	}
}

func TestSNREdgeCases(t *testing.T) {
	silence := make([]int16, 10)
	noise := []int16{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	if s := SNR(silence, silence); !math.IsInf(s, 1) {
		t.Errorf("SNR(silence, silence) = %v, want +Inf", s)
	}
	if s := SNR(noise, silence); !math.IsInf(s, -1) {
		t.Errorf("SNR(noise, silence) = %v, want -Inf", s)
	}
	if s := SNR([]int16{2, 2}, []int16{1, 1}); math.Abs(s) > 1e-9 {
		t.Errorf("SNR with noise equal to signal = %v, want 0", s)
	}
}
