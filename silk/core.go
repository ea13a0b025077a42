package silk

// decodeCore rebuilds the excitation from the pulses and runs it through
// the long-term (pitch) and short-term (LPC) synthesis filters, writing
// frameLength samples to xq.
//
// Reference: RFC 6716 Sections 4.2.7.8.6-4.2.7.9, libopus silk/decode_core.c
func (c *channelState) decodeCore(ctrl *frameControl, xq []int16, pulses []int16) {
	ix := &c.indices
	var sLTP [maxLTPMemLength]int16
	var sLTPQ15 [maxLTPMemLength + maxFrameLength]int32
	var resQ14 [maxSubFrameLength]int32
	var sLPCQ14 [maxSubFrameLength + maxLPCOrder]int32

	offsetQ10 := quantizationOffsetsQ10[ix.signalType>>1][ix.quantOffsetType]
	interpolated := ix.nlsfInterpCoefQ2 < 1<<2

	seed := int32(ix.seed)
	for i := 0; i < c.frameLength; i++ {
		seed = silkRand(seed)
		e := int32(pulses[i]) << 14
		if e > 0 {
			e -= quantLevelAdjustQ10 << 4
		} else if e < 0 {
			e += quantLevelAdjustQ10 << 4
		}
		e += offsetQ10 << 4
		if seed < 0 {
			e = -e
		}
		c.excQ14[i] = e
		seed += int32(pulses[i])
	}

	copy(sLPCQ14[:maxLPCOrder], c.sLPCQ14Buf[:])

	order := c.lpcOrder
	ltpMem := c.ltpMemLength
	sub := c.subfrLength
	ltpIdx := ltpMem
	lag := 0

	for k := 0; k < c.nbSubfr; k++ {
		exc := c.excQ14[k*sub : (k+1)*sub]
		out := xq[k*sub : (k+1)*sub]
		aQ12 := ctrl.predCoefQ12[k>>1][:order]
		var bQ14 [ltpOrder]int16
		copy(bQ14[:], ctrl.ltpCoefQ14[k*ltpOrder:])
		signalType := int(ix.signalType)

		gainQ10 := ctrl.gainsQ16[k] >> 6
		invGainQ31 := inverse32varQ(ctrl.gainsQ16[k], 47)

		gainAdjQ16 := int32(1 << 16)
		if ctrl.gainsQ16[k] != c.prevGainQ16 {
			gainAdjQ16 = div32varQ(c.prevGainQ16, ctrl.gainsQ16[k], 16)
			for i := 0; i < maxLPCOrder; i++ {
				sLPCQ14[i] = smulww(gainAdjQ16, sLPCQ14[i])
			}
		}
		c.prevGainQ16 = ctrl.gainsQ16[k]

		// Soften the switch from concealed voiced audio to an unvoiced frame.
		if c.lossCnt > 0 && c.prevSignalType == typeVoiced && ix.signalType != typeVoiced && k < maxNbSubfr/2 {
			bQ14 = [ltpOrder]int16{}
			bQ14[ltpOrder/2] = 4096 // 0.25
			signalType = typeVoiced
			ctrl.pitchL[k] = c.lagPrev
		}

		if signalType == typeVoiced {
			lag = ctrl.pitchL[k]

			// Re-whiten the output history at the start of each LPC set.
			if k == 0 || (k == 2 && interpolated) {
				start := ltpMem - lag - order - ltpOrder/2
				if k == 2 {
					copy(c.outBuf[ltpMem:], xq[:2*sub])
				}
				lpcAnalysisFilter(sLTP[start:ltpMem], c.outBuf[start+k*sub:start+k*sub+ltpMem-start], aQ12, order)

				if k == 0 {
					// The history is unscaled after re-whitening.
					invGainQ31 = smulwb(invGainQ31, ctrl.ltpScaleQ14) << 2
				}
				for i := 0; i < lag+ltpOrder/2; i++ {
					sLTPQ15[ltpIdx-i-1] = smulwb(invGainQ31, int32(sLTP[ltpMem-i-1]))
				}
			} else if gainAdjQ16 != 1<<16 {
				for i := 0; i < lag+ltpOrder/2; i++ {
					sLTPQ15[ltpIdx-i-1] = smulww(gainAdjQ16, sLTPQ15[ltpIdx-i-1])
				}
			}
		}

		res := exc
		if signalType == typeVoiced {
			res = resQ14[:sub]
			p := ltpIdx - lag + ltpOrder/2
			for i := 0; i < sub; i++ {
				pred := int32(2)
				pred = smlawb(pred, sLTPQ15[p], int32(bQ14[0]))
				pred = smlawb(pred, sLTPQ15[p-1], int32(bQ14[1]))
				pred = smlawb(pred, sLTPQ15[p-2], int32(bQ14[2]))
				pred = smlawb(pred, sLTPQ15[p-3], int32(bQ14[3]))
				pred = smlawb(pred, sLTPQ15[p-4], int32(bQ14[4]))
				p++

				res[i] = exc[i] + pred<<1
				sLTPQ15[ltpIdx] = res[i] << 1
				ltpIdx++
			}
		}

		for i := 0; i < sub; i++ {
			sLPCQ14[maxLPCOrder+i] = res[i]
			sLPCQ14[maxLPCOrder+i] = lpcSynthesisStep(sLPCQ14[:], i, aQ12)
			out[i] = int16(sat16(rshiftRound(smulww(sLPCQ14[maxLPCOrder+i], gainQ10), 8)))
		}

		copy(sLPCQ14[:maxLPCOrder], sLPCQ14[sub:sub+maxLPCOrder])
	}

	copy(c.sLPCQ14Buf[:], sLPCQ14[:maxLPCOrder])
}
