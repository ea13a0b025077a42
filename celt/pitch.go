package celt

// Pitch analysis and LPC helpers for the pitch-based concealment.
//
// Reference: libopus celt/pitch.c, celt/celt_lpc.c

// pitchDownsample low-passes and decimates the channels of x by two into
// xlp, then whitens the result with a 4th order LPC filter plus a zero.
func pitchDownsample(x [][]float32, xlp []float32) {
	n := len(xlp)
	for c, ch := range x {
		for i := 1; i < n; i++ {
			v := 0.5 * (0.5*(ch[2*i-1]+ch[2*i+1]) + ch[2*i])
			if c == 0 {
				xlp[i] = v
			} else {
				xlp[i] += v
			}
		}
		v := 0.5 * (0.5*ch[1] + ch[0])
		if c == 0 {
			xlp[0] = v
		} else {
			xlp[0] += v
		}
	}

	var ac [5]float32
	autocorr(xlp, ac[:], nil, 0, 4)
	ac[0] *= 1.0001
	for i := 1; i <= 4; i++ {
		lag := 0.008 * float32(i)
		ac[i] -= ac[i] * lag * lag
	}
	var lpc [4]float32
	lpcFromAutocorr(lpc[:], ac[:])
	tmp := float32(1)
	for i := range lpc {
		tmp *= 0.9
		lpc[i] *= tmp
	}
	const c1 = 0.8
	lpc2 := [5]float32{
		lpc[0] + 0.8,
		lpc[1] + c1*lpc[0],
		lpc[2] + c1*lpc[1],
		lpc[3] + c1*lpc[2],
		c1 * lpc[3],
	}
	fir5(xlp, &lpc2)
}

func fir5(x []float32, num *[5]float32) {
	var m0, m1, m2, m3, m4 float32
	for i, v := range x {
		sum := v + num[0]*m0 + num[1]*m1 + num[2]*m2 + num[3]*m3 + num[4]*m4
		m4, m3, m2, m1, m0 = m3, m2, m1, m0, v
		x[i] = sum
	}
}

// pitchXcorr computes xcorr[i] = <x[:n], y[i:i+n]> for i < maxPitch.
func pitchXcorr(x, y, xcorr []float32, n, maxPitch int) {
	for i := 0; i < maxPitch; i++ {
		xcorr[i] = innerProd(x, y[i:], n)
	}
}

// pitchSearch finds the lag in [0, maxPitch) maximizing the normalized
// correlation between xlp and y, both at half rate.
func pitchSearch(xlp, y []float32, n, maxPitch int) int {
	lag := n + maxPitch
	xlp4 := make([]float32, n>>2)
	ylp4 := make([]float32, lag>>2)
	xcorr := make([]float32, maxPitch>>1)

	for j := range xlp4 {
		xlp4[j] = xlp[2*j]
	}
	for j := range ylp4 {
		ylp4[j] = y[2*j]
	}

	// Coarse search at a quarter of the rate.
	pitchXcorr(xlp4, ylp4, xcorr, n>>2, maxPitch>>2)
	best := findBestPitch(xcorr, ylp4, n>>2, maxPitch>>2)

	// Refine around the two best candidates at half rate.
	for i := 0; i < maxPitch>>1; i++ {
		xcorr[i] = 0
		if abs(i-2*best[0]) > 2 && abs(i-2*best[1]) > 2 {
			continue
		}
		xcorr[i] = max(-1, innerProd(xlp, y[i:], n>>1))
	}
	best = findBestPitch(xcorr, y, n>>1, maxPitch>>1)

	offset := 0
	if b := best[0]; b > 0 && b < (maxPitch>>1)-1 {
		a, m, c := xcorr[b-1], xcorr[b], xcorr[b+1]
		if c-a > 0.7*(m-a) {
			offset = 1
		} else if a-c > 0.7*(m-c) {
			offset = -1
		}
	}
	return 2*best[0] - offset
}

func findBestPitch(xcorr, y []float32, n, maxPitch int) [2]int {
	syy := float32(1)
	bestNum := [2]float32{-1, -1}
	bestDen := [2]float32{0, 0}
	best := [2]int{0, 1}
	for j := 0; j < n; j++ {
		syy += y[j] * y[j]
	}
	for i := 0; i < maxPitch; i++ {
		if xcorr[i] > 0 {
			num := xcorr[i] * xcorr[i]
			if num*bestDen[1] > bestNum[1]*syy {
				if num*bestDen[0] > bestNum[0]*syy {
					bestNum[1], bestDen[1], best[1] = bestNum[0], bestDen[0], best[0]
					bestNum[0], bestDen[0], best[0] = num, syy, i
				} else {
					bestNum[1], bestDen[1], best[1] = num, syy, i
				}
			}
		}
		syy += y[i+n]*y[i+n] - y[i]*y[i]
		syy = max(1, syy)
	}
	return best
}

// autocorr computes lag+1 autocorrelation values of x, tapering the first
// and last overlap samples with win when overlap > 0.
func autocorr(x, ac, win []float32, overlap, lag int) {
	n := len(x)
	xx := x
	if overlap > 0 {
		xx = make([]float32, n)
		copy(xx, x)
		for i := 0; i < overlap; i++ {
			xx[i] = x[i] * win[i]
			xx[n-i-1] = x[n-i-1] * win[i]
		}
	}
	fastN := n - lag
	pitchXcorr(xx, xx, ac, fastN, lag+1)
	for k := 0; k <= lag; k++ {
		var d float32
		for i := k + fastN; i < n; i++ {
			d += xx[i] * xx[i-k]
		}
		ac[k] += d
	}
}

// lpcFromAutocorr runs the Levinson-Durbin recursion, stopping early once
// the prediction gain reaches 30 dB.
func lpcFromAutocorr(lpc, ac []float32) {
	p := len(lpc)
	clear(lpc)
	errv := ac[0]
	if ac[0] <= 1e-10 {
		return
	}
	for i := 0; i < p; i++ {
		var rr float32
		for j := 0; j < i; j++ {
			rr += lpc[j] * ac[i-j]
		}
		rr += ac[i+1]
		r := -rr / errv
		lpc[i] = r
		for j := 0; j < (i+1)>>1; j++ {
			t1 := lpc[j]
			t2 := lpc[i-1-j]
			lpc[j] = t1 + r*t2
			lpc[i-1-j] = t2 + r*t1
		}
		errv -= r * r * errv
		if errv <= 0.001*ac[0] {
			break
		}
	}
}

// firFilter writes y[i] = x[start+i] + sum_k num[k]*x[start+i-k-1].
func firFilter(x []float32, start int, num []float32, y []float32) {
	ord := len(num)
	for i := range y {
		p := start + i
		sum := x[p]
		for j := 0; j < ord; j++ {
			sum += num[ord-1-j] * x[p+j-ord]
		}
		y[i] = sum
	}
}

// iirFilter runs the all-pole synthesis filter 1/A(z) in place over y with
// filter memory mem, most recent sample first.
func iirFilter(y, den, mem []float32) {
	ord := len(den)
	for i := range y {
		sum := y[i]
		for j := 0; j < ord; j++ {
			sum -= den[j] * mem[j]
		}
		copy(mem[1:], mem[:ord-1])
		mem[0] = sum
		y[i] = sum
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
