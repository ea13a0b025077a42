package celt

import (
	"math"

	"golang.org/x/sys/cpu"
)

// Mixed-radix complex FFT in the layout of libopus celt/kiss_fft.c. All four
// MDCT sizes share the twiddles of the largest (480 point) transform; the
// smaller ones step through them with a stride of 1<<shift.

type cpx struct {
	r, i float32
}

const maxFactors = 8

type fftState struct {
	nfft    int
	shift   int
	factors [2 * maxFactors]int
	stages  int
	bitrev  []int
	twiddle []cpx
}

// wideBfly4 selects the two-at-a-time degenerate radix-4 kernel. Both
// kernels perform identical arithmetic in identical order.
var wideBfly4 = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

func factorFFT(n int, st *fftState) {
	p := 4
	nbak := n
	stages := 0
	for n > 1 {
		for n%p != 0 {
			switch p {
			case 4:
				p = 2
			case 2:
				p = 3
			default:
				p += 2
			}
			if p*p > n {
				p = n
			}
		}
		n /= p
		st.factors[2*stages] = p
		if p == 2 && stages > 1 {
			st.factors[2*stages] = 4
			st.factors[2] = 2
		}
		stages++
	}
	// Radix 4 last, so the degenerate m == 1 butterfly runs on it.
	for i := 0; i < stages/2; i++ {
		j := stages - i - 1
		st.factors[2*i], st.factors[2*j] = st.factors[2*j], st.factors[2*i]
	}
	n = nbak
	for i := 0; i < stages; i++ {
		n /= st.factors[2*i]
		st.factors[2*i+1] = n
	}
	st.stages = stages
}

func (st *fftState) buildBitrev(fout, f, fstride int, stage int) {
	p := st.factors[2*stage]
	m := st.factors[2*stage+1]
	if m == 1 {
		for j := 0; j < p; j++ {
			st.bitrev[f] = fout + j
			f += fstride
		}
		return
	}
	for j := 0; j < p; j++ {
		st.buildBitrev(fout, f, fstride*p, stage+1)
		f += fstride
		fout += m
	}
}

func newFFTState(nfft, shift int, twiddle []cpx) *fftState {
	st := &fftState{nfft: nfft, shift: shift, twiddle: twiddle}
	factorFFT(nfft, st)
	st.bitrev = make([]int, nfft)
	st.buildBitrev(0, 0, 1, 0)
	return st
}

func computeTwiddles(nfft int) []cpx {
	tw := make([]cpx, nfft)
	for i := range tw {
		phase := -2 * math.Pi / float64(nfft) * float64(i)
		tw[i] = cpx{float32(math.Cos(phase)), float32(math.Sin(phase))}
	}
	return tw
}

func cmul(a, b cpx) cpx {
	return cpx{a.r*b.r - a.i*b.i, a.r*b.i + a.i*b.r}
}

// transform runs the in-place FFT over data already in bit-reversed order.
func (st *fftState) transform(fout []cpx) {
	var fstride [maxFactors + 1]int
	fstride[0] = 1
	l := 0
	for {
		p := st.factors[2*l]
		m := st.factors[2*l+1]
		fstride[l+1] = fstride[l] * p
		l++
		if m == 1 {
			break
		}
	}
	m := st.factors[2*l-1]
	for i := l - 1; i >= 0; i-- {
		m2 := 1
		if i != 0 {
			m2 = st.factors[2*i-1]
		}
		switch st.factors[2*i] {
		case 2:
			bfly2(fout, fstride[i])
		case 3:
			st.bfly3(fout, fstride[i]<<st.shift, m, fstride[i], m2)
		case 4:
			st.bfly4(fout, fstride[i]<<st.shift, m, fstride[i], m2)
		case 5:
			st.bfly5(fout, fstride[i]<<st.shift, m, fstride[i], m2)
		}
		m = m2
	}
}

// bfly2 always follows a radix-4 stage, so m is 4.
func bfly2(fout []cpx, n int) {
	const tw = 0.7071067812
	for i := 0; i < n; i++ {
		f := fout[8*i : 8*i+8]
		t := f[4]
		f[4] = cpx{f[0].r - t.r, f[0].i - t.i}
		f[0] = cpx{f[0].r + t.r, f[0].i + t.i}

		t = cpx{(f[5].r + f[5].i) * tw, (f[5].i - f[5].r) * tw}
		f[5] = cpx{f[1].r - t.r, f[1].i - t.i}
		f[1] = cpx{f[1].r + t.r, f[1].i + t.i}

		t = cpx{f[6].i, -f[6].r}
		f[6] = cpx{f[2].r - t.r, f[2].i - t.i}
		f[2] = cpx{f[2].r + t.r, f[2].i + t.i}

		t = cpx{(f[7].i - f[7].r) * tw, -(f[7].i + f[7].r) * tw}
		f[7] = cpx{f[3].r - t.r, f[3].i - t.i}
		f[3] = cpx{f[3].r + t.r, f[3].i + t.i}
	}
}

func bfly4Unit(f []cpx) {
	s0 := cpx{f[0].r - f[2].r, f[0].i - f[2].i}
	f[0] = cpx{f[0].r + f[2].r, f[0].i + f[2].i}
	s1 := cpx{f[1].r + f[3].r, f[1].i + f[3].i}
	f[2] = cpx{f[0].r - s1.r, f[0].i - s1.i}
	f[0] = cpx{f[0].r + s1.r, f[0].i + s1.i}
	s1 = cpx{f[1].r - f[3].r, f[1].i - f[3].i}
	f[1] = cpx{s0.r + s1.i, s0.i - s1.r}
	f[3] = cpx{s0.r - s1.i, s0.i + s1.r}
}

func (st *fftState) bfly4(fout []cpx, fstride, m, n, mm int) {
	if m == 1 {
		i := 0
		if wideBfly4 {
			for ; i+1 < n; i += 2 {
				bfly4Unit(fout[4*i : 4*i+4])
				bfly4Unit(fout[4*i+4 : 4*i+8])
			}
		}
		for ; i < n; i++ {
			bfly4Unit(fout[4*i : 4*i+4])
		}
		return
	}
	tw := st.twiddle
	m2, m3 := 2*m, 3*m
	for i := 0; i < n; i++ {
		f := fout[i*mm:]
		for j := 0; j < m; j++ {
			s0 := cmul(f[j+m], tw[j*fstride])
			s1 := cmul(f[j+m2], tw[2*j*fstride])
			s2 := cmul(f[j+m3], tw[3*j*fstride])

			s5 := cpx{f[j].r - s1.r, f[j].i - s1.i}
			f[j] = cpx{f[j].r + s1.r, f[j].i + s1.i}
			s3 := cpx{s0.r + s2.r, s0.i + s2.i}
			s4 := cpx{s0.r - s2.r, s0.i - s2.i}
			f[j+m2] = cpx{f[j].r - s3.r, f[j].i - s3.i}
			f[j] = cpx{f[j].r + s3.r, f[j].i + s3.i}

			f[j+m] = cpx{s5.r + s4.i, s5.i - s4.r}
			f[j+m3] = cpx{s5.r - s4.i, s5.i + s4.r}
		}
	}
}

func (st *fftState) bfly3(fout []cpx, fstride, m, n, mm int) {
	tw := st.twiddle
	m2 := 2 * m
	epi3 := tw[fstride*m]
	for i := 0; i < n; i++ {
		f := fout[i*mm:]
		for k := 0; k < m; k++ {
			s1 := cmul(f[k+m], tw[k*fstride])
			s2 := cmul(f[k+m2], tw[2*k*fstride])
			s3 := cpx{s1.r + s2.r, s1.i + s2.i}
			s0 := cpx{s1.r - s2.r, s1.i - s2.i}

			fm := cpx{f[k].r - s3.r*0.5, f[k].i - s3.i*0.5}
			s0 = cpx{s0.r * epi3.i, s0.i * epi3.i}
			f[k] = cpx{f[k].r + s3.r, f[k].i + s3.i}

			f[k+m2] = cpx{fm.r + s0.i, fm.i - s0.r}
			f[k+m] = cpx{fm.r - s0.i, fm.i + s0.r}
		}
	}
}

func (st *fftState) bfly5(fout []cpx, fstride, m, n, mm int) {
	tw := st.twiddle
	ya := tw[fstride*m]
	yb := tw[fstride*2*m]
	for i := 0; i < n; i++ {
		f := fout[i*mm:]
		for u := 0; u < m; u++ {
			s0 := f[u]
			s1 := cmul(f[u+m], tw[u*fstride])
			s2 := cmul(f[u+2*m], tw[2*u*fstride])
			s3 := cmul(f[u+3*m], tw[3*u*fstride])
			s4 := cmul(f[u+4*m], tw[4*u*fstride])

			s7 := cpx{s1.r + s4.r, s1.i + s4.i}
			s10 := cpx{s1.r - s4.r, s1.i - s4.i}
			s8 := cpx{s2.r + s3.r, s2.i + s3.i}
			s9 := cpx{s2.r - s3.r, s2.i - s3.i}

			f[u] = cpx{s0.r + (s7.r + s8.r), s0.i + (s7.i + s8.i)}

			s5 := cpx{
				s0.r + (s7.r*ya.r + s8.r*yb.r),
				s0.i + (s7.i*ya.r + s8.i*yb.r),
			}
			s6 := cpx{
				s10.i*ya.i + s9.i*yb.i,
				-(s10.r*ya.i + s9.r*yb.i),
			}
			f[u+m] = cpx{s5.r - s6.r, s5.i - s6.i}
			f[u+4*m] = cpx{s5.r + s6.r, s5.i + s6.i}

			s11 := cpx{
				s0.r + (s7.r*yb.r + s8.r*ya.r),
				s0.i + (s7.i*yb.r + s8.i*ya.r),
			}
			s12 := cpx{
				s9.i*ya.i - s10.i*yb.i,
				s10.r*yb.i - s9.r*ya.i,
			}
			f[u+2*m] = cpx{s11.r + s12.r, s11.i + s12.i}
			f[u+3*m] = cpx{s11.r - s12.r, s11.i - s12.i}
		}
	}
}
