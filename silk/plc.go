package silk

// Packet loss concealment: the last pitch period keeps being extrapolated
// through the LTP filter with decaying gains, mixed with noise drawn from
// the last excitation, and run through the last LPC filter.
//
// Reference: RFC 6716 Section 4.2.8 (non-normative), libopus silk/PLC.c

const (
	plcBWECoefQ16         = 64881 // 0.99
	vPitchGainStartMinQ14 = 11469 // 0.7
	vPitchGainStartMaxQ14 = 15565 // 0.95
	maxPitchLagMs         = 18
	randBufSize           = 128
	randBufMask           = randBufSize - 1
	log2InvLPCGainHigh    = 3
	log2InvLPCGainLow     = 8
	pitchDriftFacQ16      = 655 // 0.01
)

var (
	harmAttQ15   = [2]int32{32440, 31130} // 0.99, 0.95
	randAttVQ15  = [2]int32{31130, 26214} // 0.95, 0.8
	randAttUVQ15 = [2]int32{32440, 29491} // 0.99, 0.9
)

type plcState struct {
	pitchLQ8        int32
	ltpCoefQ14      [ltpOrder]int16
	prevLPCQ12      [maxLPCOrder]int16
	lastFrameLost   bool
	randSeed        int32
	randScaleQ14    int32
	concEnergy      int32
	concEnergyShift int
	prevLTPScaleQ14 int32
	prevGainQ16     [2]int32
	fsKHz           int
	nbSubfr         int
	subfrLength     int
}

func (c *channelState) resetPLC() {
	c.plc.pitchLQ8 = int32(c.frameLength) << (8 - 1)
	c.plc.prevGainQ16 = [2]int32{1 << 16, 1 << 16}
	c.plc.subfrLength = 20
	c.plc.nbSubfr = 2
}

// runPLC updates the concealment model from a good frame, or conceals a
// lost one into frame.
func (c *channelState) runPLC(ctrl *frameControl, frame []int16, lost bool) {
	if c.fsKHz != c.plc.fsKHz {
		c.resetPLC()
		c.plc.fsKHz = c.fsKHz
	}
	if lost {
		c.plcConceal(ctrl, frame)
		c.lossCnt++
		return
	}
	c.plcUpdate(ctrl)
}

func (c *channelState) plcUpdate(ctrl *frameControl) {
	p := &c.plc
	c.prevSignalType = int(c.indices.signalType)

	var ltpGainQ14 int32
	if c.indices.signalType == typeVoiced {
		// Pick the strongest LTP filter among the subframes that hold the
		// last pitch pulse.
		for j := 0; j*c.subfrLength < ctrl.pitchL[c.nbSubfr-1]; j++ {
			if j == c.nbSubfr {
				break
			}
			var g int32
			for i := 0; i < ltpOrder; i++ {
				g += int32(ctrl.ltpCoefQ14[(c.nbSubfr-1-j)*ltpOrder+i])
			}
			if g > ltpGainQ14 {
				ltpGainQ14 = g
				p.pitchLQ8 = int32(ctrl.pitchL[c.nbSubfr-1-j]) << 8
			}
		}

		p.ltpCoefQ14 = [ltpOrder]int16{}
		p.ltpCoefQ14[ltpOrder/2] = int16(ltpGainQ14)

		if ltpGainQ14 < vPitchGainStartMinQ14 {
			scaleQ10 := (int32(vPitchGainStartMinQ14) << 10) / max(ltpGainQ14, 1)
			for i := range p.ltpCoefQ14 {
				p.ltpCoefQ14[i] = int16(smulbb(int32(p.ltpCoefQ14[i]), scaleQ10) >> 10)
			}
		} else if ltpGainQ14 > vPitchGainStartMaxQ14 {
			scaleQ14 := (int32(vPitchGainStartMaxQ14) << 14) / max(ltpGainQ14, 1)
			for i := range p.ltpCoefQ14 {
				p.ltpCoefQ14[i] = int16(smulbb(int32(p.ltpCoefQ14[i]), scaleQ14) >> 14)
			}
		}
	} else {
		p.pitchLQ8 = int32(c.fsKHz*18) << 8
		p.ltpCoefQ14 = [ltpOrder]int16{}
	}

	copy(p.prevLPCQ12[:c.lpcOrder], ctrl.predCoefQ12[1][:c.lpcOrder])
	p.prevLTPScaleQ14 = ctrl.ltpScaleQ14
	copy(p.prevGainQ16[:], ctrl.gainsQ16[c.nbSubfr-2:c.nbSubfr])
	p.subfrLength = c.subfrLength
	p.nbSubfr = c.nbSubfr
}

// plcEnergy measures the gain-scaled excitation energy of the last two
// subframes.
func (c *channelState) plcEnergy(prevGainQ10 [2]int32) (e1 int32, s1 int, e2 int32, s2 int) {
	var buf [2 * maxSubFrameLength]int16
	sub := c.subfrLength
	for k := 0; k < 2; k++ {
		for i := 0; i < sub; i++ {
			v := c.excQ14[i+(k+c.nbSubfr-2)*sub]
			buf[k*sub+i] = int16(sat16(smulww(v, prevGainQ10[k]) >> 8))
		}
	}
	e1, s1 = sumSqrShift(buf[:sub])
	e2, s2 = sumSqrShift(buf[sub : 2*sub])
	return e1, s1, e2, s2
}

func (c *channelState) plcConceal(ctrl *frameControl, frame []int16) {
	p := &c.plc
	order := c.lpcOrder
	ltpMem := c.ltpMemLength

	var sLTPQ14 [maxLTPMemLength + maxFrameLength]int32
	var sLTP [maxLTPMemLength]int16

	prevGainQ10 := [2]int32{p.prevGainQ16[0] >> 6, p.prevGainQ16[1] >> 6}

	if c.firstFrameAfterReset {
		p.prevLPCQ12 = [maxLPCOrder]int16{}
	}

	e1, s1, e2, s2 := c.plcEnergy(prevGainQ10)
	var randOff int
	if e1>>uint(s2) < e2>>uint(s1) {
		// First subframe has the lowest energy.
		randOff = max(0, (p.nbSubfr-1)*p.subfrLength-randBufSize)
	} else {
		randOff = max(0, p.nbSubfr*p.subfrLength-randBufSize)
	}
	randBuf := c.excQ14[randOff:]

	b := &p.ltpCoefQ14
	randScaleQ14 := p.randScaleQ14

	att := min(1, c.lossCnt)
	harmGainQ15 := harmAttQ15[att]
	var randGainQ15 int32
	if c.prevSignalType == typeVoiced {
		randGainQ15 = randAttVQ15[att]
	} else {
		randGainQ15 = randAttUVQ15[att]
	}

	bwExpander(p.prevLPCQ12[:order], plcBWECoefQ16)
	var aQ12 [maxLPCOrder]int16
	copy(aQ12[:order], p.prevLPCQ12[:order])

	if c.lossCnt == 0 {
		randScaleQ14 = 1 << 14
		if c.prevSignalType == typeVoiced {
			for i := 0; i < ltpOrder; i++ {
				randScaleQ14 -= int32(b[i])
			}
			randScaleQ14 = max(3277, randScaleQ14) // 0.2
			randScaleQ14 = int32(int16(smulbb(randScaleQ14, p.prevLTPScaleQ14) >> 14))
		} else {
			// Less noise for unvoiced frames with a high LPC gain.
			invGainQ30 := lpcInversePredGain(p.prevLPCQ12[:order])
			down := min(int32(1<<30)>>log2InvLPCGainHigh, invGainQ30)
			down = max(int32(1<<30)>>log2InvLPCGainLow, down)
			down <<= log2InvLPCGainHigh
			randGainQ15 = smulwb(down, randGainQ15) >> 14
		}
	}

	seed := p.randSeed
	lag := int(rshiftRound(p.pitchLQ8, 8))
	ltpIdx := ltpMem

	// Re-whiten the output history with the concealment filter.
	idx := ltpMem - lag - order - ltpOrder/2
	lpcAnalysisFilter(sLTP[idx:ltpMem], c.outBuf[idx:ltpMem], aQ12[:order], order)
	invGainQ30 := inverse32varQ(p.prevGainQ16[1], 46)
	invGainQ30 = min(invGainQ30, (1<<31-1)>>1)
	for i := idx + order; i < ltpMem; i++ {
		sLTPQ14[i] = smulwb(invGainQ30, int32(sLTP[i]))
	}

	for k := 0; k < c.nbSubfr; k++ {
		pp := ltpIdx - lag + ltpOrder/2
		for i := 0; i < c.subfrLength; i++ {
			pred := int32(2)
			pred = smlawb(pred, sLTPQ14[pp], int32(b[0]))
			pred = smlawb(pred, sLTPQ14[pp-1], int32(b[1]))
			pred = smlawb(pred, sLTPQ14[pp-2], int32(b[2]))
			pred = smlawb(pred, sLTPQ14[pp-3], int32(b[3]))
			pred = smlawb(pred, sLTPQ14[pp-4], int32(b[4]))
			pp++

			seed = silkRand(seed)
			r := (seed >> 25) & randBufMask
			sLTPQ14[ltpIdx] = smlawb(pred, randBuf[r], randScaleQ14) << 2
			ltpIdx++
		}

		for j := range b {
			b[j] = int16(smulbb(harmGainQ15, int32(b[j])) >> 15)
		}
		if c.indices.signalType != typeNoVoiceActivity {
			randScaleQ14 = smulbb(randScaleQ14, randGainQ15) >> 15
		}

		// Let the pitch lag drift up slowly.
		p.pitchLQ8 = smlawb(p.pitchLQ8, p.pitchLQ8, pitchDriftFacQ16)
		p.pitchLQ8 = min(p.pitchLQ8, int32(maxPitchLagMs*c.fsKHz)<<8)
		lag = int(rshiftRound(p.pitchLQ8, 8))
	}

	// LPC synthesis runs in place over the excitation, preceded by the
	// saved filter state.
	s := sLTPQ14[ltpMem-maxLPCOrder:]
	copy(s[:maxLPCOrder], c.sLPCQ14Buf[:])
	for i := 0; i < c.frameLength; i++ {
		s[maxLPCOrder+i] = lpcSynthesisStep(s, i, aQ12[:order])
		frame[i] = int16(sat16(rshiftRound(smulww(s[maxLPCOrder+i], prevGainQ10[1]), 8)))
	}
	copy(c.sLPCQ14Buf[:], s[c.frameLength:c.frameLength+maxLPCOrder])

	p.randSeed = seed
	p.randScaleQ14 = randScaleQ14
	for i := range ctrl.pitchL {
		ctrl.pitchL[i] = lag
	}
}

// glueFrames smooths the energy step from concealed audio back to decoded
// audio.
func (c *channelState) glueFrames(frame []int16) {
	p := &c.plc
	if c.lossCnt > 0 {
		p.concEnergy, p.concEnergyShift = sumSqrShift(frame)
		p.lastFrameLost = true
		return
	}
	if p.lastFrameLost {
		energy, shift := sumSqrShift(frame)
		if shift > p.concEnergyShift {
			p.concEnergy >>= uint(shift - p.concEnergyShift)
		} else if shift < p.concEnergyShift {
			energy >>= uint(p.concEnergyShift - shift)
		}

		if energy > p.concEnergy {
			lz := clz32(p.concEnergy) - 1
			p.concEnergy <<= uint(lz)
			energy >>= uint(max(24-lz, 0))
			fracQ24 := p.concEnergy / max(energy, 1)

			gainQ16 := sqrtApprox(fracQ24) << 4
			slopeQ16 := ((1 << 16) - gainQ16) / int32(len(frame))
			// Steeper than linear so onsets after DTX are not missed.
			slopeQ16 <<= 2

			for i := range frame {
				frame[i] = int16(smulwb(gainQ16, int32(frame[i])))
				gainQ16 += slopeQ16
				if gainQ16 > 1<<16 {
					break
				}
			}
		}
	}
	p.lastFrameLost = false
}
