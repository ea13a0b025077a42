package silk

import "github.com/wavelane/opusnative/rangecoding"

// decodeStereoPred reads the two mid/side prediction weights in Q13.
//
// Reference: RFC 6716 Section 4.2.7.1, libopus silk/stereo_decode_pred.c
func decodeStereoPred(rd *rangecoding.Decoder) [2]int32 {
	var ix [2][3]int
	n := rd.DecodeICDF(stereoPredJointICDF, 8)
	ix[0][2] = n / 5
	ix[1][2] = n - 5*ix[0][2]
	for i := 0; i < 2; i++ {
		ix[i][0] = rd.DecodeICDF(uniform3ICDF, 8)
		ix[i][1] = rd.DecodeICDF(uniform5ICDF, 8)
	}

	var pred [2]int32
	for i := 0; i < 2; i++ {
		q := ix[i][0] + 3*ix[i][2]
		low := stereoPredQuantQ13[q]
		step := smulwb(stereoPredQuantQ13[q+1]-low, 6554) // 0.5/5 in Q16
		pred[i] = smlabb(low, step, int32(2*ix[i][1]+1))
	}
	pred[0] -= pred[1]
	return pred
}

// msToLR converts the mid and side signals in x1 and x2 to left and right
// in place. Both hold n samples after two samples of history, which the
// state supplies and then takes from the frame end. The outputs start at
// index 1.
//
// Reference: libopus silk/stereo_MS_to_LR.c
func (s *stereoState) msToLR(x1, x2 []int16, predQ13 [2]int32, fsKHz, n int) {
	copy(x1[:2], s.sMid[:])
	copy(x2[:2], s.sSide[:])
	copy(s.sMid[:], x1[n:n+2])
	copy(s.sSide[:], x2[n:n+2])

	pred0, pred1 := s.predPrevQ13[0], s.predPrevQ13[1]
	interpLen := stereoInterpLenMs * fsKHz
	denomQ16 := int32(1<<16) / int32(interpLen)
	delta0 := rshiftRound(smulbb(predQ13[0]-pred0, denomQ16), 16)
	delta1 := rshiftRound(smulbb(predQ13[1]-pred1, denomQ16), 16)

	side := func(i int) {
		sum := (int32(x1[i]) + int32(x1[i+2]) + int32(x1[i+1])<<1) << 9
		sum = smlawb(int32(x2[i+1])<<8, sum, pred0)
		sum = smlawb(sum, int32(x1[i+1])<<11, pred1)
		x2[i+1] = int16(sat16(rshiftRound(sum, 8)))
	}
	for i := 0; i < interpLen; i++ {
		pred0 += delta0
		pred1 += delta1
		side(i)
	}
	pred0, pred1 = predQ13[0], predQ13[1]
	for i := interpLen; i < n; i++ {
		side(i)
	}
	s.predPrevQ13 = predQ13

	for i := 1; i <= n; i++ {
		m, d := int32(x1[i]), int32(x2[i])
		x1[i] = int16(sat16(m + d))
		x2[i] = int16(sat16(m - d))
	}
}
