package silk

import "github.com/wavelane/opusnative/rangecoding"

// decodeIndices reads the side information of frame frameIndex into
// c.indices.
//
// Reference: RFC 6716 Sections 4.2.7.3-4.2.7.7, libopus silk/decode_indices.c
func (c *channelState) decodeIndices(rd *rangecoding.Decoder, frameIndex int, decodeLBRR bool, condCoding int) {
	ix := &c.indices

	var typ int
	if decodeLBRR || c.vadFlags[frameIndex] {
		typ = rd.DecodeICDF(typeOffsetVADICDF, 8) + 2
	} else {
		typ = rd.DecodeICDF(typeOffsetNoVADICDF, 8)
	}
	ix.signalType = int8(typ >> 1)
	ix.quantOffsetType = int8(typ & 1)

	if condCoding == codeConditionally {
		ix.gainsIndices[0] = int8(rd.DecodeICDF(deltaGainICDF, 8))
	} else {
		g := rd.DecodeICDF(gainICDF[ix.signalType], 8) << 3
		g += rd.DecodeICDF(uniform8ICDF, 8)
		ix.gainsIndices[0] = int8(g)
	}
	for i := 1; i < c.nbSubfr; i++ {
		ix.gainsIndices[i] = int8(rd.DecodeICDF(deltaGainICDF, 8))
	}

	cb := c.nlsfCB
	half := len(cb.cb1ICDF) / 2
	ix.nlsfIndices[0] = int8(rd.DecodeICDF(cb.cb1ICDF[int(ix.signalType>>1)*half:], 8))
	var ecIx [maxLPCOrder]int16
	var predQ8 [maxLPCOrder]uint8
	cb.unpack(ecIx[:], predQ8[:], int(ix.nlsfIndices[0]))
	for i := 0; i < cb.order; i++ {
		v := rd.DecodeICDF(cb.ecICDF[ecIx[i]:], 8)
		switch v {
		case 0:
			v -= rd.DecodeICDF(nlsfExtICDF, 8)
		case 2 * nlsfQuantMaxAmplitude:
			v += rd.DecodeICDF(nlsfExtICDF, 8)
		}
		ix.nlsfIndices[i+1] = int8(v - nlsfQuantMaxAmplitude)
	}

	if c.nbSubfr == maxNbSubfr {
		ix.nlsfInterpCoefQ2 = int8(rd.DecodeICDF(nlsfInterpolationFactorICDF, 8))
	} else {
		ix.nlsfInterpCoefQ2 = 4
	}

	if ix.signalType == typeVoiced {
		absolute := true
		if condCoding == codeConditionally && c.ecPrevSignalType == typeVoiced {
			delta := rd.DecodeICDF(pitchDeltaICDF, 8)
			if delta > 0 {
				ix.lagIndex = c.ecPrevLagIndex + int16(delta-9)
				absolute = false
			}
		}
		if absolute {
			ix.lagIndex = int16(rd.DecodeICDF(pitchLagICDF, 8) * (c.fsKHz >> 1))
			ix.lagIndex += int16(rd.DecodeICDF(c.pitchLagLowBitsICDF, 8))
		}
		c.ecPrevLagIndex = ix.lagIndex

		ix.contourIndex = int8(rd.DecodeICDF(c.pitchContourICDF, 8))

		ix.perIndex = int8(rd.DecodeICDF(ltpPerIndexICDF, 8))
		for k := 0; k < c.nbSubfr; k++ {
			ix.ltpIndex[k] = int8(rd.DecodeICDF(ltpGainICDF[ix.perIndex], 8))
		}

		if condCoding == codeIndependently {
			ix.ltpScaleIndex = int8(rd.DecodeICDF(ltpScaleICDF, 8))
		} else {
			ix.ltpScaleIndex = 0
		}
	}
	c.ecPrevSignalType = int(ix.signalType)

	ix.seed = int8(rd.DecodeICDF(uniform4ICDF, 8))
}
