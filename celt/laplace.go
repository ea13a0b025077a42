package celt

import "github.com/wavelane/opusnative/rangecoding"

const (
	laplaceMinP = 1
	laplaceNMin = 16
)

// laplaceFreq1 returns the frequency of magnitude 1 given the frequency of 0.
func laplaceFreq1(fs0 uint32, decay int) uint32 {
	ft := 32768 - laplaceMinP*(2*laplaceNMin) - fs0
	return uint32(int32(ft) * int32(16384-decay) >> 15)
}

// decodeLaplace decodes a value from the two-sided geometric distribution
// used for coarse energy residuals. fs is the probability of zero in Q15 and
// decay the ratio between successive magnitudes in Q14.
//
// Reference: libopus celt/laplace.c ec_laplace_decode
func decodeLaplace(rd *rangecoding.Decoder, fs uint32, decay int) int {
	val := 0
	fm := rd.DecodeBin(15)
	fl := uint32(0)
	if fm >= fs {
		val++
		fl = fs
		fs = laplaceFreq1(fs, decay) + laplaceMinP
		for fs > laplaceMinP && fm >= fl+2*fs {
			fs *= 2
			fl += fs
			fs = uint32(int32(fs-2*laplaceMinP)*int32(decay)>>15) + laplaceMinP
			val++
		}
		if fs <= laplaceMinP {
			di := (fm - fl) >> 1
			val += int(di)
			fl += 2 * di * laplaceMinP
		}
		if fm < fl+fs {
			val = -val
		} else {
			fl += fs
		}
	}
	rd.Update(fl, min(fl+fs, 32768), 32768)
	return val
}
