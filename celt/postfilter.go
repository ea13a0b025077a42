package celt

// combFilter applies the pitch post-filter to n samples starting at x[off],
// writing y[0:n]. y may alias x[off:], in which case the filter is
// recursive as in the reference decoder. The first overlap samples
// cross-fade from (t0, g0, tapset0) to (t1, g1, tapset1) with the squared
// window; the remainder uses the new parameters.
//
// Reference: RFC 6716 Section 4.3.7.1, libopus celt/celt.c comb_filter
func combFilter(y, x []float32, off, t0, t1, n int, g0, g1 float32, tapset0, tapset1, overlap int) {
	if g0 == 0 && g1 == 0 {
		copy(y[:n], x[off:off+n])
		return
	}
	t0 = max(t0, minPeriod)
	t1 = max(t1, minPeriod)
	g00 := g0 * postFilterGains[tapset0][0]
	g01 := g0 * postFilterGains[tapset0][1]
	g02 := g0 * postFilterGains[tapset0][2]
	g10 := g1 * postFilterGains[tapset1][0]
	g11 := g1 * postFilterGains[tapset1][1]
	g12 := g1 * postFilterGains[tapset1][2]

	x1 := x[off-t1+1]
	x2 := x[off-t1]
	x3 := x[off-t1-1]
	x4 := x[off-t1-2]
	if g0 == g1 && t0 == t1 && tapset0 == tapset1 {
		overlap = 0
	}
	i := 0
	for ; i < overlap; i++ {
		p := off + i
		x0 := x[p-t1+2]
		f := window[i] * window[i]
		y[i] = x[p] +
			((1-f)*g00)*x[p-t0] +
			((1-f)*g01)*(x[p-t0+1]+x[p-t0-1]) +
			((1-f)*g02)*(x[p-t0+2]+x[p-t0-2]) +
			(f*g10)*x2 +
			(f*g11)*(x1+x3) +
			(f*g12)*(x0+x4)
		x4, x3, x2, x1 = x3, x2, x1, x0
	}
	if g1 == 0 {
		copy(y[overlap:n], x[off+overlap:off+n])
		return
	}
	for ; i < n; i++ {
		p := off + i
		x0 := x[p-t1+2]
		y[i] = x[p] + g10*x2 + g11*(x1+x3) + g12*(x0+x4)
		x4, x3, x2, x1 = x3, x2, x1, x0
	}
}
