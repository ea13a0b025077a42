package celt

// Pyramid vector dequantization and spreading.
// Reference: RFC 6716 Sections 4.3.4.3-4.3.4.4, libopus celt/vq.c

const (
	spreadNone       = 0
	spreadLight      = 1
	spreadNormal     = 2
	spreadAggressive = 3
)

const epsilon = 1e-15

func expRotation1(x []float32, n, stride int, c, s float32) {
	ms := -s
	for i := 0; i < n-stride; i++ {
		x1, x2 := x[i], x[i+stride]
		x[i+stride] = c*x2 + s*x1
		x[i] = c*x1 + ms*x2
	}
	for i := n - 2*stride - 1; i >= 0; i-- {
		x1, x2 := x[i], x[i+stride]
		x[i+stride] = c*x2 + s*x1
		x[i] = c*x1 + ms*x2
	}
}

// expRotation spreads (dir < 0) or collapses (dir > 0) the energy of a
// sparse PVQ codeword across neighbouring coefficients.
func expRotation(x []float32, n, dir, stride, k, spread int) {
	if 2*k >= n || spread == spreadNone {
		return
	}
	factor := spreadFactor[spread-1]
	gain := float32(n) / float32(n+factor*k)
	theta := 0.5 * (gain * gain)
	c := celtCosNorm(theta)
	s := celtCosNorm(1 - theta)

	stride2 := 0
	if n >= 8*stride {
		stride2 = 1
		for (stride2*stride2+stride2)*stride+(stride>>2) < n {
			stride2++
		}
	}
	n /= stride
	for i := 0; i < stride; i++ {
		xs := x[i*n : (i+1)*n]
		if dir < 0 {
			if stride2 != 0 {
				expRotation1(xs, n, stride2, s, c)
			}
			expRotation1(xs, n, 1, c, s)
		} else {
			expRotation1(xs, n, 1, c, -s)
			if stride2 != 0 {
				expRotation1(xs, n, stride2, s, -c)
			}
		}
	}
}

// extractCollapseMask returns one bit per short block that received pulses.
func extractCollapseMask(iy []int, n, b int) uint32 {
	if b <= 1 {
		return 1
	}
	n0 := n / b
	var mask uint32
	for i := 0; i < b; i++ {
		tmp := 0
		for j := 0; j < n0; j++ {
			tmp |= iy[i*n0+j]
		}
		if tmp != 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// algUnquant decodes k pulses over n coefficients into x, scaled to gain.
func (bd *bandDecoder) algUnquant(x []float32, n, k, spread, b int, gain float32) (uint32, error) {
	iy := bd.iy[:n]
	ryy, err := bd.pvq.decodePulses(bd.rd, iy, n, k)
	if err != nil {
		return 0, err
	}
	g := celtRsqrt(ryy) * gain
	for i := range n {
		x[i] = g * float32(iy[i])
	}
	expRotation(x, n, -1, b, k, spread)
	return extractCollapseMask(iy, n, b), nil
}

func innerProd(x, y []float32, n int) float32 {
	var s float32
	for i := 0; i < n; i++ {
		s += x[i] * y[i]
	}
	return s
}

// renormaliseVector scales x to have norm gain.
func renormaliseVector(x []float32, n int, gain float32) {
	e := epsilon + innerProd(x, x, n)
	g := celtRsqrt(e) * gain
	for i := 0; i < n; i++ {
		x[i] *= g
	}
}
