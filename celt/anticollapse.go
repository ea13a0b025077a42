package celt

// antiCollapse injects noise into short blocks of transient frames that
// received no pulses, at a level bounded by the energy of the two previous
// frames.
//
// Reference: RFC 6716 Section 4.3.5, libopus celt/bands.c anti_collapse
func antiCollapse(x []float32, collapse []uint8, lm, channels, size, start, end int,
	logE, prev1LogE, prev2LogE *[2 * MaxBands]float32, pulses *[MaxBands]int, seed uint32) {
	for i := start; i < end; i++ {
		n0 := eBands[i+1] - eBands[i]
		depth := ((1 + pulses[i]) / n0) >> lm
		thresh := 0.5 * celtExp2(-0.125*float32(depth))
		sqrt1 := celtRsqrt(float32(n0 << lm))

		for c := 0; c < channels; c++ {
			prev1 := prev1LogE[c*MaxBands+i]
			prev2 := prev2LogE[c*MaxBands+i]
			if channels == 1 {
				prev1 = max(prev1, prev1LogE[MaxBands+i])
				prev2 = max(prev2, prev2LogE[MaxBands+i])
			}
			ediff := max(0, logE[c*MaxBands+i]-min(prev1, prev2))
			r := 2 * celtExp2(-ediff)
			if lm == 3 {
				r *= 1.41421356
			}
			r = min(thresh, r)
			r *= sqrt1

			xb := x[c*size+(eBands[i]<<lm):]
			renormalize := false
			for k := 0; k < 1<<lm; k++ {
				if collapse[i*channels+c]&(1<<k) != 0 {
					continue
				}
				for j := 0; j < n0; j++ {
					seed = lcgRand(seed)
					if seed&0x8000 != 0 {
						xb[(j<<lm)+k] = r
					} else {
						xb[(j<<lm)+k] = -r
					}
				}
				renormalize = true
			}
			if renormalize {
				renormaliseVector(xb, n0<<lm, 1)
			}
		}
	}
}
