package silk

import "fmt"

const (
	// (((88-2)*128)/6 * 65536) / 63, the gain index step in log2 Q7
	gainInvScaleQ16 = 1907825
	// 2 dB * 128/6 + 16*128, the log2 Q7 value of gain index 0
	gainOffset = 2090
)

// gainsDequant turns gain indices into Q16 gains. prevIndex carries the
// last index across subframes and frames.
//
// Reference: RFC 6716 Section 4.2.7.4, libopus silk/gain_quant.c
func gainsDequant(gainQ16 []int32, ind []int8, prevIndex *int8, conditional bool) {
	for k := range gainQ16 {
		if k == 0 && !conditional {
			// Gain index is not allowed to fall more than 16 steps.
			*prevIndex = max(ind[k], *prevIndex-16)
		} else {
			indTmp := int32(ind[k]) + minDeltaGainQuant
			threshold := int32(2*maxDeltaGainQuant - nLevelsQGain + int(*prevIndex))
			p := int32(*prevIndex)
			if indTmp > threshold {
				p += indTmp<<1 - threshold
			} else {
				p += indTmp
			}
			*prevIndex = int8(min(max(p, 0), nLevelsQGain-1))
		}
		gainQ16[k] = log2lin(min(smulwb(gainInvScaleQ16, int32(*prevIndex))+gainOffset, 3967))
	}
}

// decodePitch expands the lag index and contour into per-subframe lags.
//
// Reference: RFC 6716 Section 4.2.7.6.1, libopus silk/decode_pitch.c
func decodePitch(lagIndex int16, contourIndex int8, lags []int, fsKHz, nbSubfr int) error {
	minLag := peMinLagMs * fsKHz
	maxLag := peMaxLagMs * fsKHz
	lag := minLag + int(lagIndex)
	if lagIndex < 0 || lag > maxLag {
		return fmt.Errorf("%w: pitch lag %d outside [%d, %d]", ErrMalformedFrame, lag, minLag, maxLag)
	}

	ci := int(contourIndex)
	for k := 0; k < nbSubfr; k++ {
		var off int8
		switch {
		case fsKHz == 8 && nbSubfr == maxNbSubfr:
			off = cbLagsStage2[k][ci]
		case fsKHz == 8:
			off = cbLagsStage2For10ms[k][ci]
		case nbSubfr == maxNbSubfr:
			off = cbLagsStage3[k][ci]
		default:
			off = cbLagsStage3For10ms[k][ci]
		}
		lags[k] = min(max(lag+int(off), minLag), maxLag)
	}
	return nil
}

// decodeParameters dequantizes the side information in c.indices into
// ctrl: gains, LPC coefficients for both frame halves, pitch lags and LTP
// taps.
//
// Reference: libopus silk/decode_parameters.c
func (c *channelState) decodeParameters(ctrl *frameControl, condCoding int) error {
	ix := &c.indices
	order := c.lpcOrder

	gainsDequant(ctrl.gainsQ16[:c.nbSubfr], ix.gainsIndices[:c.nbSubfr], &c.lastGainIdx, condCoding == codeConditionally)

	var nlsfQ15 [maxLPCOrder]int16
	if err := nlsfDecode(nlsfQ15[:], ix.nlsfIndices[:], c.nlsfCB); err != nil {
		return err
	}
	if err := nlsfToLPC(ctrl.predCoefQ12[1][:order], nlsfQ15[:], order); err != nil {
		return err
	}

	// The first frame after a reset has no history to interpolate from.
	if c.firstFrameAfterReset {
		ix.nlsfInterpCoefQ2 = 4
	}
	if ix.nlsfInterpCoefQ2 < 4 {
		var nlsf0 [maxLPCOrder]int16
		w := int32(ix.nlsfInterpCoefQ2)
		for i := 0; i < order; i++ {
			nlsf0[i] = c.prevNLSFQ15[i] + int16((w*(int32(nlsfQ15[i])-int32(c.prevNLSFQ15[i])))>>2)
		}
		if err := nlsfToLPC(ctrl.predCoefQ12[0][:order], nlsf0[:], order); err != nil {
			return err
		}
	} else {
		ctrl.predCoefQ12[0] = ctrl.predCoefQ12[1]
	}
	copy(c.prevNLSFQ15[:order], nlsfQ15[:order])

	if c.lossCnt > 0 {
		bwExpander(ctrl.predCoefQ12[0][:order], bweAfterLossQ16)
		bwExpander(ctrl.predCoefQ12[1][:order], bweAfterLossQ16)
	}

	if ix.signalType != typeVoiced {
		ctrl.pitchL = [maxNbSubfr]int{}
		ctrl.ltpCoefQ14 = [ltpOrder * maxNbSubfr]int16{}
		ix.perIndex = 0
		ctrl.ltpScaleQ14 = 0
		return nil
	}

	if err := decodePitch(ix.lagIndex, ix.contourIndex, ctrl.pitchL[:], c.fsKHz, c.nbSubfr); err != nil {
		return err
	}
	for k := 0; k < c.nbSubfr; k++ {
		row := ltpCodebook(int(ix.perIndex), int(ix.ltpIndex[k]))
		for i := 0; i < ltpOrder; i++ {
			ctrl.ltpCoefQ14[k*ltpOrder+i] = int16(row[i]) << 7
		}
	}
	ctrl.ltpScaleQ14 = ltpScalesQ14[ix.ltpScaleIndex]
	return nil
}
