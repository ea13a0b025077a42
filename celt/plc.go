package celt

// decodeLost synthesizes a replacement for a lost frame of n samples.
//
// The first few losses after good audio extrapolate the last pitch period
// through an LPC excitation model; longer losses, hybrid frames and losses
// right after a reset fall back to band-energy shaped noise that decays
// toward the background level.
//
// Reference: RFC 6716 Section 4.4, libopus celt/celt_decoder.c celt_decode_lost
func (d *Decoder) decodeLost(n, lm int) {
	st := &d.st
	noiseBased := st.lossCount >= 5 || d.start != 0 || st.skipPLC
	if noiseBased {
		d.concealNoise(n, lm)
	} else {
		d.concealPitch(n)
	}
	st.lossCount++
}

func (d *Decoder) concealNoise(n, lm int) {
	st := &d.st
	cc := d.channels
	start, end := d.start, d.end
	effEnd := max(start, min(end, effBands))

	for c := 0; c < cc; c++ {
		mem := st.decodeMem[c][:]
		copy(mem, mem[n:decodeBufferSize+Overlap/2])
	}

	decay := float32(0.5)
	if st.lossCount == 0 {
		decay = 1.5
	}
	for c := 0; c < cc; c++ {
		for i := start; i < end; i++ {
			j := c*MaxBands + i
			st.oldBandE[j] = max(st.backgroundLogE[j], st.oldBandE[j]-decay)
		}
	}

	x := d.x[:cc*n]
	seed := st.rng
	for c := 0; c < cc; c++ {
		for i := start; i < effEnd; i++ {
			off := n*c + eBands[i]<<lm
			width := (eBands[i+1] - eBands[i]) << lm
			for j := 0; j < width; j++ {
				seed = lcgRand(seed)
				x[off+j] = float32(int32(seed) >> 20)
			}
			renormaliseVector(x[off:], width, 1)
		}
	}
	st.rng = seed

	d.synthesis(x, start, effEnd, cc, false, lm, false)
}

func (d *Decoder) concealPitch(n int) {
	st := &d.st
	cc := d.channels

	fade := float32(1)
	var pitchIndex int
	if st.lossCount == 0 {
		pitchIndex = d.plcPitchSearch()
		st.lastPitchIndex = pitchIndex
	} else {
		pitchIndex = st.lastPitchIndex
		fade = 0.8
	}

	// Two pitch periods of excitation to look for a decaying signal.
	excLength := min(2*pitchIndex, maxPeriod)

	var excBuf [maxPeriod + lpcOrder]float32
	var firTmp [maxPeriod]float32
	var etmp [Overlap]float32
	exc := excBuf[lpcOrder:]

	for c := 0; c < cc; c++ {
		buf := st.decodeMem[c][:]
		copy(excBuf[:], buf[decodeBufferSize-maxPeriod-lpcOrder:decodeBufferSize])

		if st.lossCount == 0 {
			var ac [lpcOrder + 1]float32
			autocorr(exc[:maxPeriod], ac[:], window[:], Overlap, lpcOrder)
			// -40 dB noise floor and lag windowing for a stable recursion.
			ac[0] *= 1.0001
			for i := 1; i <= lpcOrder; i++ {
				ac[i] -= ac[i] * (0.008 * 0.008) * float32(i) * float32(i)
			}
			lpcFromAutocorr(st.lpc[c][:], ac[:])
		}

		// Excitation for the excLength samples before the loss.
		firFilter(excBuf[:], lpcOrder+maxPeriod-excLength, st.lpc[c][:], firTmp[:excLength])
		copy(exc[maxPeriod-excLength:maxPeriod], firTmp[:excLength])

		var decay float32
		{
			e1, e2 := float32(1), float32(1)
			decayLength := excLength >> 1
			for i := 0; i < decayLength; i++ {
				e := exc[maxPeriod-decayLength+i]
				e1 += e * e
				e = exc[maxPeriod-2*decayLength+i]
				e2 += e * e
			}
			e1 = min(e1, e2)
			decay = celtSqrt(e1 / e2)
		}

		// Slide the history left by one frame; the overlap tail past the
		// end of the buffer is regenerated below.
		copy(buf, buf[n:decodeBufferSize])

		extrapOffset := maxPeriod - pitchIndex
		extrapLen := n + Overlap
		attenuation := fade * decay
		var s1 float32
		for i, j := 0, 0; i < extrapLen; i, j = i+1, j+1 {
			if j >= pitchIndex {
				j -= pitchIndex
				attenuation *= decay
			}
			buf[decodeBufferSize-n+i] = attenuation * exc[extrapOffset+j]
			tmp := buf[decodeBufferSize-maxPeriod-n+extrapOffset+j]
			s1 += tmp * tmp
		}

		var lpcMem [lpcOrder]float32
		for i := range lpcMem {
			lpcMem[i] = buf[decodeBufferSize-n-1-i]
		}
		iirFilter(buf[decodeBufferSize-n:decodeBufferSize-n+extrapLen], st.lpc[c][:], lpcMem[:])

		// Attenuate if the synthesis gained energy; the inverted test also
		// catches NaN from the IIR filter.
		{
			var s2 float32
			for i := 0; i < extrapLen; i++ {
				tmp := buf[decodeBufferSize-n+i]
				s2 += tmp * tmp
			}
			if !(s1 > 0.2*s2) {
				clear(buf[decodeBufferSize-n : decodeBufferSize-n+extrapLen])
			} else if s1 < s2 {
				ratio := celtSqrt((s1 + 1) / (s2 + 1))
				for i := 0; i < Overlap; i++ {
					g := 1 - window[i]*(1-ratio)
					buf[decodeBufferSize-n+i] *= g
				}
				for i := Overlap; i < extrapLen; i++ {
					buf[decodeBufferSize-n+i] *= ratio
				}
			}
		}

		// Pre-filter the overlap so that the post-filter of the next good
		// frame cancels out, then fold it like an MDCT would.
		combFilter(etmp[:], buf, decodeBufferSize, st.postfilterPeriod, st.postfilterPeriod, Overlap,
			-st.postfilterGain, -st.postfilterGain, st.postfilterTapset, st.postfilterTapset, 0)
		for i := 0; i < Overlap/2; i++ {
			buf[decodeBufferSize+i] = window[i]*etmp[Overlap-1-i] + window[Overlap-i-1]*etmp[i]
		}
	}
}

// plcPitchSearch estimates the pitch period of the decoded history.
func (d *Decoder) plcPitchSearch() int {
	var lp [decodeBufferSize >> 1]float32
	mem := [2][]float32{d.st.decodeMem[0][:decodeBufferSize], d.st.decodeMem[1][:decodeBufferSize]}
	pitchDownsample(mem[:d.channels], lp[:])
	pitch := pitchSearch(lp[plcPitchLagMax>>1:], lp[:], decodeBufferSize-plcPitchLagMax, plcPitchLagMax-plcPitchLagMin)
	return plcPitchLagMax - pitch
}
