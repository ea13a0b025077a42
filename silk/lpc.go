package silk

// LPC helpers shared by the synthesis, concealment and comfort noise paths.
//
// Reference: libopus silk/LPC_inv_pred_gain.c, silk/LPC_fit.c,
// silk/bwexpander.c, silk/bwexpander_32.c, silk/LPC_analysis_filter.c

const (
	invPredQA = 24

	// 0.99975 in Q24
	aLimitQ24 = 16773022

	// Inverse of the maximum prediction power gain (1e4) in Q30.
	minInvGainQ30 = 107374
)

// lpcInversePredGain returns the inverse prediction gain of aQ12 in Q30, or
// 0 if the filter is unstable or too resonant.
func lpcInversePredGain(aQ12 []int16) int32 {
	var a [maxLPCOrder]int32
	var dc int32
	for k, v := range aQ12 {
		dc += int32(v)
		a[k] = int32(v) << (invPredQA - 12)
	}
	if dc >= 4096 {
		return 0
	}
	return inversePredGainQA(a[:len(aQ12)])
}

func inversePredGainQA(a []int32) int32 {
	invGain := int32(1 << 30)
	for k := len(a) - 1; k > 0; k-- {
		if a[k] > aLimitQ24 || a[k] < -aLimitQ24 {
			return 0
		}
		rc := -(a[k] << (31 - invPredQA))
		rcMult1 := int32(1<<30) - smmul(rc, rc)
		invGain = smmul(invGain, rcMult1) << 2
		if invGain < minInvGainQ30 {
			return 0
		}
		mult2Q := int(32 - clz32(abs32(rcMult1)))
		rcMult2 := inverse32varQ(rcMult1, mult2Q+30)

		for n := 0; n < (k+1)>>1; n++ {
			t1, t2 := a[n], a[k-n-1]
			v := rshiftRound64(int64(subSat32(t1, mul32FracQ31(t2, rc)))*int64(rcMult2), uint(mult2Q))
			if v > 1<<31-1 || v < -1<<31 {
				return 0
			}
			a[n] = int32(v)
			v = rshiftRound64(int64(subSat32(t2, mul32FracQ31(t1, rc)))*int64(rcMult2), uint(mult2Q))
			if v > 1<<31-1 || v < -1<<31 {
				return 0
			}
			a[k-n-1] = int32(v)
		}
	}
	if a[0] > aLimitQ24 || a[0] < -aLimitQ24 {
		return 0
	}
	rc := -(a[0] << (31 - invPredQA))
	rcMult1 := int32(1<<30) - smmul(rc, rc)
	invGain = smmul(invGain, rcMult1) << 2
	if invGain < minInvGainQ30 {
		return 0
	}
	return invGain
}

func mul32FracQ31(a, b int32) int32 {
	return int32(rshiftRound64(int64(a)*int64(b), 31))
}

// lpcFit converts Q(qin) coefficients to int16 Q(qout), chirping them until
// they fit.
func lpcFit(aOut []int16, aIn []int32, qout, qin uint) {
	d := len(aIn)
	i := 0
	for ; i < 10; i++ {
		var maxAbs int32
		idx := 0
		for k, v := range aIn {
			if av := abs32(v); av > maxAbs {
				maxAbs = av
				idx = k
			}
		}
		maxAbs = rshiftRound(maxAbs, qin-qout)
		if maxAbs <= 32767 {
			break
		}
		maxAbs = min(maxAbs, 163838)
		chirpQ16 := 65470 - ((maxAbs-32767)<<14)/((maxAbs*int32(idx+1))>>2)
		bwExpander32(aIn, chirpQ16)
	}

	if i == 10 {
		for k := 0; k < d; k++ {
			aOut[k] = int16(sat16(rshiftRound(aIn[k], qin-qout)))
			aIn[k] = int32(aOut[k]) << (qin - qout)
		}
		return
	}
	for k := 0; k < d; k++ {
		aOut[k] = int16(rshiftRound(aIn[k], qin-qout))
	}
}

// bwExpander32 scales coefficient i by chirp^(i+1) in Q16.
func bwExpander32(ar []int32, chirpQ16 int32) {
	d := len(ar)
	chirpMinusOne := chirpQ16 - 65536
	for i := 0; i < d-1; i++ {
		ar[i] = smulww(chirpQ16, ar[i])
		chirpQ16 += rshiftRound(chirpQ16*chirpMinusOne, 16)
	}
	ar[d-1] = smulww(chirpQ16, ar[d-1])
}

func bwExpander(ar []int16, chirpQ16 int32) {
	d := len(ar)
	chirpMinusOne := chirpQ16 - 65536
	for i := 0; i < d-1; i++ {
		ar[i] = int16(rshiftRound(chirpQ16*int32(ar[i]), 16))
		chirpQ16 += rshiftRound(chirpQ16*chirpMinusOne, 16)
	}
	ar[d-1] = int16(rshiftRound(chirpQ16*int32(ar[d-1]), 16))
}

// lpcAnalysisFilter runs the whitening filter A(z) over in, writing
// len(out) samples. The first d outputs are zero.
func lpcAnalysisFilter(out, in []int16, b []int16, d int) {
	n := len(out)
	for ix := d; ix < n; ix++ {
		var acc int32
		for j := 0; j < d; j++ {
			acc += int32(in[ix-1-j]) * int32(b[j])
		}
		acc = int32(in[ix])<<12 - acc
		out[ix] = int16(sat16(rshiftRound(acc, 12)))
	}
	clear(out[:d])
}

// lpcSynthesisStep runs one sample of the all-pole synthesis filter over
// the Q14 state s, whose last order entries precede the current sample.
func lpcSynthesisStep(s []int32, i int, aQ12 []int16) int32 {
	order := len(aQ12)
	pred := int32(order >> 1)
	for j := 0; j < order; j++ {
		pred = smlawb(pred, s[maxLPCOrder+i-1-j], int32(aQ12[j]))
	}
	return addSat32(s[maxLPCOrder+i], lshiftSat32(pred, 4))
}
