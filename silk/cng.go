package silk

// Comfort noise generation: during DTX and packet loss, noise shaped by a
// smoothed copy of the last inactive frames' spectrum and gain is added to
// the output.
//
// Reference: libopus silk/CNG.c

const (
	cngBufMaskMax       = 255
	cngNLSFSmthQ16      = 16348 // 0.25
	cngGainSmthQ16      = 4634  // 0.25^(1/4)
	cngGainSmthThresQ16 = 46396 // -3 dB
	cngInitSeed         = 3176576
)

type cngState struct {
	excBufQ14   [maxFrameLength]int32
	smthNLSFQ15 [maxLPCOrder]int16
	synthState  [maxLPCOrder]int32
	smthGainQ16 int32
	randSeed    int32
	fsKHz       int
}

func (c *channelState) resetCNG() {
	step := int32(1<<15-1) / int32(c.lpcOrder+1)
	var acc int32
	for i := 0; i < c.lpcOrder; i++ {
		acc += step
		c.cng.smthNLSFQ15[i] = int16(acc)
	}
	c.cng.smthGainQ16 = 0
	c.cng.randSeed = cngInitSeed
}

// applyCNG tracks the background spectrum on inactive frames and adds
// comfort noise to frame while packets are missing.
func (c *channelState) applyCNG(ctrl *frameControl, frame []int16) {
	g := &c.cng
	if c.fsKHz != g.fsKHz {
		c.resetCNG()
		g.fsKHz = c.fsKHz
	}

	if c.lossCnt == 0 && c.prevSignalType == typeNoVoiceActivity {
		for i := 0; i < c.lpcOrder; i++ {
			g.smthNLSFQ15[i] += int16(smulwb(int32(c.prevNLSFQ15[i])-int32(g.smthNLSFQ15[i]), cngNLSFSmthQ16))
		}

		// Keep the excitation of the loudest subframe.
		var maxGainQ16 int32
		subfr := 0
		for i := 0; i < c.nbSubfr; i++ {
			if ctrl.gainsQ16[i] > maxGainQ16 {
				maxGainQ16 = ctrl.gainsQ16[i]
				subfr = i
			}
		}
		sub := c.subfrLength
		copy(g.excBufQ14[sub:c.nbSubfr*sub], g.excBufQ14[:(c.nbSubfr-1)*sub])
		copy(g.excBufQ14[:sub], c.excQ14[subfr*sub:(subfr+1)*sub])

		for i := 0; i < c.nbSubfr; i++ {
			g.smthGainQ16 += smulwb(ctrl.gainsQ16[i]-g.smthGainQ16, cngGainSmthQ16)
			// Adapt faster when the smoothed gain is 3 dB above the subframe.
			if smulww(g.smthGainQ16, cngGainSmthThresQ16) > ctrl.gainsQ16[i] {
				g.smthGainQ16 = ctrl.gainsQ16[i]
			}
		}
	}

	if c.lossCnt == 0 {
		clear(g.synthState[:c.lpcOrder])
		return
	}

	gainQ16 := smulww(c.plc.randScaleQ14, c.plc.prevGainQ16[1])
	if gainQ16 >= 1<<21 || g.smthGainQ16 > 1<<23 {
		gainQ16 = smultt(gainQ16, gainQ16)
		gainQ16 = smultt(g.smthGainQ16, g.smthGainQ16) - gainQ16<<5
		gainQ16 = sqrtApprox(gainQ16) << 16
	} else {
		gainQ16 = smulww(gainQ16, gainQ16)
		gainQ16 = smulww(g.smthGainQ16, g.smthGainQ16) - gainQ16<<5
		gainQ16 = sqrtApprox(gainQ16) << 8
	}
	gainQ10 := gainQ16 >> 6

	n := len(frame)
	var sig [maxFrameLength + maxLPCOrder]int32
	mask := int32(cngBufMaskMax)
	for mask > int32(n) {
		mask >>= 1
	}
	seed := g.randSeed
	for i := 0; i < n; i++ {
		seed = silkRand(seed)
		sig[maxLPCOrder+i] = g.excBufQ14[(seed>>24)&mask]
	}
	g.randSeed = seed

	var aQ12 [maxLPCOrder]int16
	nlsf2A(aQ12[:c.lpcOrder], g.smthNLSFQ15[:], c.lpcOrder)

	copy(sig[:maxLPCOrder], g.synthState[:])
	for i := 0; i < n; i++ {
		sig[maxLPCOrder+i] = lpcSynthesisStep(sig[:], i, aQ12[:c.lpcOrder])
		v := sat16(rshiftRound(smulww(sig[maxLPCOrder+i], gainQ10), 8))
		frame[i] = addSat16(frame[i], int16(v))
	}
	copy(g.synthState[:], sig[n:n+maxLPCOrder])
}
