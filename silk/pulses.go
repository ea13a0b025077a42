package silk

import "github.com/wavelane/opusnative/rangecoding"

// decodePulses reads the quantized excitation of one frame into pulses,
// which must hold frameLength rounded up to a multiple of 16.
//
// Reference: RFC 6716 Section 4.2.7.8, libopus silk/decode_pulses.c
func decodePulses(rd *rangecoding.Decoder, pulses []int16, signalType, quantOffsetType, frameLength int) {
	var sumPulses, nLshifts [maxFrameLength / shellCodecFrameLength]int

	rateLevel := rd.DecodeICDF(rateLevelsICDF[signalType>>1], 8)

	iter := frameLength >> log2ShellCodecFrameLength
	if iter*shellCodecFrameLength < frameLength {
		// 10 ms at 12 kHz has a partial final block.
		iter++
	}

	cdf := pulsesPerBlockICDF[rateLevel][:]
	for i := 0; i < iter; i++ {
		sumPulses[i] = rd.DecodeICDF(cdf, 8)
		for sumPulses[i] == maxPulses+1 {
			nLshifts[i]++
			tab := pulsesPerBlockICDF[nRateLevels-1][:]
			if nLshifts[i] == 10 {
				tab = tab[1:]
			}
			sumPulses[i] = rd.DecodeICDF(tab, 8)
		}
	}

	for i := 0; i < iter; i++ {
		blk := pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		if sumPulses[i] > 0 {
			shellDecode(blk, rd, sumPulses[i])
		} else {
			clear(blk)
		}
	}

	for i := 0; i < iter; i++ {
		n := nLshifts[i]
		if n == 0 {
			continue
		}
		blk := pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		for k := range blk {
			q := int(blk[k])
			for j := 0; j < n; j++ {
				q = q<<1 + rd.DecodeICDF(lsbICDF, 8)
			}
			blk[k] = int16(q)
		}
		sumPulses[i] |= n << 5
	}

	decodeSigns(rd, pulses, frameLength, signalType, quantOffsetType, sumPulses[:])
}

func decodeSplit(rd *rangecoding.Decoder, p int, table []uint8) (int16, int16) {
	if p <= 0 {
		return 0, 0
	}
	c1 := rd.DecodeICDF(table[shellCodeTableOffsets[p]:], 8)
	return int16(c1), int16(p - c1)
}

// shellDecode splits pulses4 pulses recursively over a 16-sample block.
func shellDecode(out []int16, rd *rangecoding.Decoder, pulses4 int) {
	var p3 [2]int16
	var p2 [4]int16
	var p1 [8]int16

	p3[0], p3[1] = decodeSplit(rd, pulses4, shellCodeTable3[:])

	p2[0], p2[1] = decodeSplit(rd, int(p3[0]), shellCodeTable2[:])

	p1[0], p1[1] = decodeSplit(rd, int(p2[0]), shellCodeTable1[:])
	out[0], out[1] = decodeSplit(rd, int(p1[0]), shellCodeTable0[:])
	out[2], out[3] = decodeSplit(rd, int(p1[1]), shellCodeTable0[:])

	p1[2], p1[3] = decodeSplit(rd, int(p2[1]), shellCodeTable1[:])
	out[4], out[5] = decodeSplit(rd, int(p1[2]), shellCodeTable0[:])
	out[6], out[7] = decodeSplit(rd, int(p1[3]), shellCodeTable0[:])

	p2[2], p2[3] = decodeSplit(rd, int(p3[1]), shellCodeTable2[:])

	p1[4], p1[5] = decodeSplit(rd, int(p2[2]), shellCodeTable1[:])
	out[8], out[9] = decodeSplit(rd, int(p1[4]), shellCodeTable0[:])
	out[10], out[11] = decodeSplit(rd, int(p1[5]), shellCodeTable0[:])

	p1[6], p1[7] = decodeSplit(rd, int(p2[3]), shellCodeTable1[:])
	out[12], out[13] = decodeSplit(rd, int(p1[6]), shellCodeTable0[:])
	out[14], out[15] = decodeSplit(rd, int(p1[7]), shellCodeTable0[:])
}

// decodeSigns reads the sign of every non-zero pulse. The probability
// depends on the signal type, the quantizer offset and the pulse count of
// the block.
func decodeSigns(rd *rangecoding.Decoder, pulses []int16, length, signalType, quantOffsetType int, sumPulses []int) {
	var icdf [2]uint8
	base := signICDF[7*(quantOffsetType+signalType<<1):]
	blocks := (length + shellCodecFrameLength/2) >> log2ShellCodecFrameLength
	for i := 0; i < blocks; i++ {
		p := sumPulses[i]
		if p <= 0 {
			continue
		}
		icdf[0] = base[min(p&0x1f, 6)]
		q := pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		for j := range q {
			if q[j] > 0 && rd.DecodeICDF(icdf[:], 8) == 0 {
				q[j] = -q[j]
			}
		}
	}
}
