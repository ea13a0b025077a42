package celt

import (
	"math"
	"sync"
)

// mdctSize is the largest inverse MDCT (two 20 ms frames).
const mdctSize = 2 * ShortMDCTSize << MaxLM

type mdctLookup struct {
	n    int
	fft  [MaxLM + 1]*fftState
	trig []float32
}

var getMDCT = sync.OnceValue(func() *mdctLookup {
	l := &mdctLookup{n: mdctSize}
	tw := computeTwiddles(mdctSize / 4)
	for shift := 0; shift <= MaxLM; shift++ {
		l.fft[shift] = newFFTState(mdctSize>>2>>shift, shift, tw)
	}
	n := mdctSize
	for shift := 0; shift <= MaxLM; shift++ {
		n2 := n >> 1
		for i := 0; i < n2; i++ {
			l.trig = append(l.trig, float32(math.Cos(2*math.Pi*(float64(i)+0.125)/float64(n))))
		}
		n >>= 1
	}
	return l
})

// backward computes the inverse MDCT of the spectrum in[0], in[stride], ...
// and overlap-adds it into out. On entry out[:overlap/2] holds the folded
// tail of the previous block; on return out[:overlap/2+n/2] holds finished
// samples followed by the new folded tail.
//
// Reference: libopus celt/mdct.c clt_mdct_backward_c
func (l *mdctLookup) backward(in []float32, out []float32, shift, stride int, buf []cpx) {
	n := l.n
	trig := l.trig
	for i := 0; i < shift; i++ {
		n >>= 1
		trig = trig[n:]
	}
	n2 := n >> 1
	n4 := n >> 2
	st := l.fft[shift]

	// Pre-rotation, stored in bit-reversed order with re/im swapped so the
	// forward FFT acts as an inverse.
	f := buf[:n4]
	xp1 := 0
	xp2 := stride * (n2 - 1)
	for i := 0; i < n4; i++ {
		rev := st.bitrev[i]
		t0, t1 := trig[i], trig[n4+i]
		yr := in[xp2]*t0 + in[xp1]*t1
		yi := in[xp1]*t0 - in[xp2]*t1
		f[rev] = cpx{yi, yr}
		xp1 += 2 * stride
		xp2 -= 2 * stride
	}

	st.transform(f)

	// Post-rotation, walking in from both ends so it can run in place.
	y := out[Overlap/2 : Overlap/2+n2]
	for i, j := 0, n4-1; i < (n4+1)>>1; i, j = i+1, j-1 {
		re, im := f[i].i, f[i].r
		t0, t1 := trig[i], trig[n4+i]
		yr0 := re*t0 + im*t1
		yi0 := re*t1 - im*t0

		re, im = f[j].i, f[j].r
		t0, t1 = trig[n4-i-1], trig[n2-i-1]
		yr1 := re*t0 + im*t1
		yi1 := re*t1 - im*t0

		y[2*i] = yr0
		y[2*j+1] = yi0
		y[2*j] = yr1
		y[2*i+1] = yi1
	}

	// Mirror on both sides for TDAC.
	for i := 0; i < Overlap/2; i++ {
		x1 := out[Overlap-1-i]
		x2 := out[i]
		w1, w2 := window[i], window[Overlap-1-i]
		out[i] = w2*x2 - w1*x1
		out[Overlap-1-i] = w1*x2 + w2*x1
	}
}
