package celt

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestFFTMatchesNaiveDFT(t *testing.T) {
	l := getMDCT()
	r := rand.New(rand.NewPCG(3, 4))
	for shift, st := range l.fft {
		n := st.nfft
		in := make([]cpx, n)
		for i := range in {
			in[i] = cpx{float32(r.NormFloat64()), float32(r.NormFloat64())}
		}
		buf := make([]cpx, n)
		for i, v := range in {
			buf[st.bitrev[i]] = v
		}
		st.transform(buf)

		var maxErr, maxMag float64
		for k := 0; k < n; k++ {
			var re, im float64
			for j, v := range in {
				phase := -2 * math.Pi * float64(j*k) / float64(n)
				c, s := math.Cos(phase), math.Sin(phase)
				re += float64(v.r)*c - float64(v.i)*s
				im += float64(v.r)*s + float64(v.i)*c
			}
			maxErr = max(maxErr, math.Hypot(re-float64(buf[k].r), im-float64(buf[k].i)))
			maxMag = max(maxMag, math.Hypot(re, im))
		}
		if maxErr > 1e-4*maxMag {
			t.Errorf("shift %d (n=%d): max error %g against peak %g", shift, n, maxErr, maxMag)
		}
	}
}

func TestFFTFactors(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{480, []int{5, 3, 4, 2, 4}},
		{240, []int{5, 3, 4, 4}},
		{120, []int{5, 3, 2, 4}},
		{60, []int{5, 3, 4}},
	}
	for _, tc := range tests {
		var st fftState
		factorFFT(tc.n, &st)
		got := make([]int, st.stages)
		prod := 1
		for i := range got {
			got[i] = st.factors[2*i]
			prod *= got[i]
		}
		if prod != tc.n {
			t.Errorf("n=%d: factors %v multiply to %d", tc.n, got, prod)
		}
		if len(got) != len(tc.want) {
			t.Errorf("n=%d: factors %v, want %v", tc.n, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("n=%d: factors %v, want %v", tc.n, got, tc.want)
				break
			}
		}
	}
}

func TestBitrevIsPermutation(t *testing.T) {
	for _, st := range getMDCT().fft {
		seen := make([]bool, st.nfft)
		for _, v := range st.bitrev {
			if v < 0 || v >= st.nfft || seen[v] {
				t.Fatalf("n=%d: bitrev is not a permutation", st.nfft)
			}
			seen[v] = true
		}
	}
}

func TestWideKernelMatchesScalar(t *testing.T) {
	st := getMDCT().fft[0]
	r := rand.New(rand.NewPCG(9, 9))
	in := make([]cpx, st.nfft)
	for i := range in {
		in[i] = cpx{float32(r.NormFloat64()), float32(r.NormFloat64())}
	}
	run := func(wide bool) []cpx {
		saved := wideBfly4
		wideBfly4 = wide
		defer func() { wideBfly4 = saved }()
		buf := make([]cpx, st.nfft)
		for i, v := range in {
			buf[st.bitrev[i]] = v
		}
		st.transform(buf)
		return buf
	}
	a, b := run(false), run(true)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bin %d: scalar %v, wide %v", i, a[i], b[i])
		}
	}
}
