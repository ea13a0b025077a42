package silk

import "fmt"

// unpack derives the stage-2 entropy table offsets and predictor weights
// selected by the stage-1 index.
func (cb *nlsfCodebook) unpack(ecIx []int16, predQ8 []uint8, cb1Index int) {
	sel := cb.ecSel[cb1Index*cb.order/2:]
	for i := 0; i < cb.order; i += 2 {
		e := sel[i/2]
		ecIx[i] = int16((e>>1)&7) * (2*nlsfQuantMaxAmplitude + 1)
		predQ8[i] = cb.predQ8[i+int(e&1)*(cb.order-1)]
		ecIx[i+1] = int16((e>>5)&7) * (2*nlsfQuantMaxAmplitude + 1)
		predQ8[i+1] = cb.predQ8[i+int((e>>4)&1)*(cb.order-1)+1]
	}
}

// residualDequant undoes the backward-predicted stage-2 quantization.
func residualDequant(xQ10 []int16, indices []int8, predQ8 []uint8, stepQ16 int32, order int) {
	var out int32
	for i := order - 1; i >= 0; i-- {
		pred := smulbb(out, int32(predQ8[i])) >> 8
		out = int32(indices[i]) << 10
		if out > 0 {
			out -= nlsfQuantLevelAdjQ10
		} else if out < 0 {
			out += nlsfQuantLevelAdjQ10
		}
		out = smlawb(pred, out, stepQ16)
		xQ10[i] = int16(out)
	}
}

// nlsfDecode reconstructs the NLSF vector from its indices and stabilizes
// it. A vector whose raw reconstruction is out of order cannot come from a
// conforming encoder and is rejected before stabilization.
//
// Reference: RFC 6716 Section 4.2.7.5, libopus silk/NLSF_decode.c
func nlsfDecode(nlsfQ15 []int16, indices []int8, cb *nlsfCodebook) error {
	var ecIx [maxLPCOrder]int16
	var predQ8 [maxLPCOrder]uint8
	var resQ10 [maxLPCOrder]int16

	cb.unpack(ecIx[:], predQ8[:], int(indices[0]))
	residualDequant(resQ10[:], indices[1:], predQ8[:], cb.quantStepSizeQ16, cb.order)

	base := cb.cb1Q8[indices[0]]
	wght := cb.cb1WghtQ9[indices[0]]
	for i := 0; i < cb.order; i++ {
		v := (int32(resQ10[i])<<14)/int32(wght[i]) + int32(base[i])<<7
		nlsfQ15[i] = int16(min(max(v, 0), 32767))
	}
	for i := 1; i < cb.order; i++ {
		if nlsfQ15[i] < nlsfQ15[i-1] {
			return fmt.Errorf("%w: NLSF %d (%d) below NLSF %d (%d)",
				ErrMalformedFrame, i, nlsfQ15[i], i-1, nlsfQ15[i-1])
		}
	}

	nlsfStabilize(nlsfQ15[:cb.order], cb.deltaMinQ15)
	return nil
}

// nlsfStabilize enforces the minimum spacing deltaMin between adjacent
// NLSFs, moving the closest pair apart until every gap is wide enough.
//
// Reference: RFC 6716 Section 4.2.7.5.4, libopus silk/NLSF_stabilize.c
func nlsfStabilize(nlsf []int16, deltaMin []int16) {
	const maxLoops = 20
	l := len(nlsf)

	for loop := 0; loop < maxLoops; loop++ {
		minDiff := int32(nlsf[0]) - int32(deltaMin[0])
		idx := 0
		for i := 1; i < l; i++ {
			diff := int32(nlsf[i]) - (int32(nlsf[i-1]) + int32(deltaMin[i]))
			if diff < minDiff {
				minDiff = diff
				idx = i
			}
		}
		diff := int32(1<<15) - (int32(nlsf[l-1]) + int32(deltaMin[l]))
		if diff < minDiff {
			minDiff = diff
			idx = l
		}

		if minDiff >= 0 {
			return
		}

		switch idx {
		case 0:
			nlsf[0] = deltaMin[0]
		case l:
			nlsf[l-1] = int16(1<<15 - int32(deltaMin[l]))
		default:
			var minCenter int32
			for k := 0; k < idx; k++ {
				minCenter += int32(deltaMin[k])
			}
			minCenter += int32(deltaMin[idx]) >> 1

			maxCenter := int32(1 << 15)
			for k := l; k > idx; k-- {
				maxCenter -= int32(deltaMin[k])
			}
			maxCenter -= int32(deltaMin[idx]) >> 1

			center := limit32(rshiftRound(int32(nlsf[idx-1])+int32(nlsf[idx]), 1), minCenter, maxCenter)
			nlsf[idx-1] = int16(center - int32(deltaMin[idx])>>1)
			nlsf[idx] = nlsf[idx-1] + deltaMin[idx]
		}
	}

	// Fall back to sorting and clamping from both ends.
	for i := 1; i < l; i++ {
		v := nlsf[i]
		j := i - 1
		for ; j >= 0 && v < nlsf[j]; j-- {
			nlsf[j+1] = nlsf[j]
		}
		nlsf[j+1] = v
	}
	nlsf[0] = max(nlsf[0], deltaMin[0])
	for i := 1; i < l; i++ {
		nlsf[i] = max(nlsf[i], int16(sat16(int32(nlsf[i-1])+int32(deltaMin[i]))))
	}
	nlsf[l-1] = min(nlsf[l-1], int16(1<<15-int32(deltaMin[l])))
	for i := l - 2; i >= 0; i-- {
		nlsf[i] = min(nlsf[i], nlsf[i+1]-deltaMin[i+1])
	}
}

// limit32 clamps a to the range spanned by lo and hi in either order.
func limit32(a, lo, hi int32) int32 {
	if lo > hi {
		return min(max(a, hi), lo)
	}
	return min(max(a, lo), hi)
}

// Orderings that keep the polynomial evaluation numerically well behaved.
var (
	nlsf2AOrdering16 = [16]int{0, 15, 8, 7, 4, 11, 12, 3, 2, 13, 10, 5, 6, 9, 14, 1}
	nlsf2AOrdering10 = [10]int{0, 9, 6, 3, 4, 5, 8, 1, 2, 7}
)

const nlsf2AQA = 16

func nlsf2AFindPoly(out []int32, cLSF []int32, dd int) {
	out[0] = 1 << nlsf2AQA
	out[1] = -cLSF[0]
	for k := 1; k < dd; k++ {
		f := int64(cLSF[2*k])
		out[k+1] = out[k-1]<<1 - int32(rshiftRound64(f*int64(out[k]), nlsf2AQA))
		for n := k; n > 1; n-- {
			out[n] += out[n-2] - int32(rshiftRound64(f*int64(out[n-1]), nlsf2AQA))
		}
		out[1] -= int32(f)
	}
}

// nlsf2A converts NLSFs to Q12 prediction coefficients and bandwidth
// expands them until the filter is stable. It reports false if the filter
// is still unstable after the allowed number of rounds.
//
// Reference: RFC 6716 Section 4.2.7.5.6-4.2.7.5.8, libopus silk/NLSF2A.c
func nlsf2A(aQ12 []int16, nlsf []int16, d int) bool {
	const maxStabilizeIterations = 16

	var ordering []int
	if d == 16 {
		ordering = nlsf2AOrdering16[:]
	} else {
		ordering = nlsf2AOrdering10[:]
	}

	var cosLSF [maxLPCOrder]int32
	for k := 0; k < d; k++ {
		fInt := int32(nlsf[k]) >> (15 - 7)
		fFrac := int32(nlsf[k]) - fInt<<(15-7)
		c := lsfCosTabQ12[fInt]
		delta := lsfCosTabQ12[fInt+1] - c
		cosLSF[ordering[k]] = rshiftRound(c<<8+delta*fFrac, 20-nlsf2AQA)
	}

	dd := d >> 1
	var p, q [maxLPCOrder/2 + 1]int32
	nlsf2AFindPoly(p[:], cosLSF[0:], dd)
	nlsf2AFindPoly(q[:], cosLSF[1:], dd)

	var a32 [maxLPCOrder]int32
	for k := 0; k < dd; k++ {
		pt := p[k+1] + p[k]
		qt := q[k+1] - q[k]
		a32[k] = -qt - pt
		a32[d-k-1] = qt - pt
	}

	lpcFit(aQ12, a32[:d], 12, nlsf2AQA+1)

	for i := 0; lpcInversePredGain(aQ12[:d]) == 0; i++ {
		if i == maxStabilizeIterations {
			return false
		}
		bwExpander32(a32[:d], 65536-int32(2)<<uint(i))
		for k := 0; k < d; k++ {
			aQ12[k] = int16(rshiftRound(a32[k], nlsf2AQA+1-12))
		}
	}
	return true
}

// nlsfToLPC wraps nlsf2A with the malformed frame error.
func nlsfToLPC(aQ12 []int16, nlsf []int16, d int) error {
	if !nlsf2A(aQ12, nlsf, d) {
		return fmt.Errorf("%w: LPC filter unstable after bandwidth expansion", ErrMalformedFrame)
	}
	return nil
}
