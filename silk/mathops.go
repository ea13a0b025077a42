package silk

import "math/bits"

// Fixed-point primitives. Names follow the operation they model: smulwb is a
// 32x16 multiply keeping the top 32 bits of the 48-bit product, smlawb its
// accumulating form, and so on.
//
// Reference: libopus silk/macros.h, silk/SigProc_FIX.h

func smulbb(a, b int32) int32 { return int32(int16(a)) * int32(int16(b)) }

func smlabb(a, b, c int32) int32 { return a + int32(int16(b))*int32(int16(c)) }

func smulwb(a, b int32) int32 { return int32((int64(a) * int64(int16(b))) >> 16) }

func smlawb(a, b, c int32) int32 { return a + int32((int64(b)*int64(int16(c)))>>16) }

func smulww(a, b int32) int32 { return int32((int64(a) * int64(b)) >> 16) }

func smlaww(a, b, c int32) int32 { return a + int32((int64(b)*int64(c))>>16) }

func smultt(a, b int32) int32 { return (a >> 16) * (b >> 16) }

func smmul(a, b int32) int32 { return int32((int64(a) * int64(b)) >> 32) }

func rshiftRound(a int32, shift uint) int32 {
	if shift == 1 {
		return (a >> 1) + (a & 1)
	}
	return ((a >> (shift - 1)) + 1) >> 1
}

func rshiftRound64(a int64, shift uint) int64 {
	if shift == 1 {
		return (a >> 1) + (a & 1)
	}
	return ((a >> (shift - 1)) + 1) >> 1
}

func sat16(a int32) int32 {
	return min(max(a, -32768), 32767)
}

func addSat16(a, b int16) int16 {
	return int16(sat16(int32(a) + int32(b)))
}

func addSat32(a, b int32) int32 {
	s := int64(a) + int64(b)
	return int32(min(max(s, -1<<31), 1<<31-1))
}

func subSat32(a, b int32) int32 {
	s := int64(a) - int64(b)
	return int32(min(max(s, -1<<31), 1<<31-1))
}

func lshiftSat32(a int32, shift uint) int32 {
	lo := int32(-1<<31) >> shift
	hi := int32(1<<31-1) >> shift
	return min(max(a, lo), hi) << shift
}

func clz32(a int32) int32 {
	return int32(bits.LeadingZeros32(uint32(a)))
}

func abs32(a int32) int32 {
	if a < 0 {
		return -a
	}
	return a
}

// clzFrac splits a positive value into its leading-zero count and the seven
// bits that follow the leading one.
func clzFrac(a int32) (lz, fracQ7 int32) {
	lz = clz32(a)
	fracQ7 = int32(bits.RotateLeft32(uint32(a), int(lz)-24)) & 0x7f
	return lz, fracQ7
}

// sqrtApprox returns an approximation of sqrt(x) with about 2% accuracy.
func sqrtApprox(x int32) int32 {
	if x <= 0 {
		return 0
	}
	lz, frac := clzFrac(x)
	y := int32(46214)
	if lz&1 != 0 {
		y = 32768
	}
	y >>= lz >> 1
	return smlawb(y, y, smulbb(213, frac))
}

// div32varQ computes (a32 << qres) / b32 to about 16 bits of precision
// using a Newton refinement of the reciprocal.
func div32varQ(a32, b32 int32, qres int) int32 {
	aHeadrm := clz32(abs32(a32)) - 1
	aNrm := a32 << aHeadrm
	bHeadrm := clz32(abs32(b32)) - 1
	bNrm := b32 << bHeadrm

	bInv := (int32(1<<31-1) >> 2) / (bNrm >> 16)
	result := smulwb(aNrm, bInv)
	// Wrapping is intended here; the residual is small for valid input.
	aNrm = int32(uint32(aNrm) - uint32(smmul(bNrm, result))<<3)
	result = smlawb(result, aNrm, bInv)

	lshift := int(29 + aHeadrm - bHeadrm - int32(qres))
	switch {
	case lshift < 0:
		return lshiftSat32(result, uint(-lshift))
	case lshift < 32:
		return result >> uint(lshift)
	default:
		return 0
	}
}

// inverse32varQ computes (1 << qres) / b32 to about 16 bits of precision.
func inverse32varQ(b32 int32, qres int) int32 {
	bHeadrm := clz32(abs32(b32)) - 1
	bNrm := b32 << bHeadrm
	bInv := (int32(1<<31-1) >> 2) / (bNrm >> 16)
	result := bInv << 16
	errQ32 := ((int32(1) << 29) - smulwb(bNrm, bInv)) << 3
	result = smlaww(result, errQ32, bInv)

	lshift := int(61 - bHeadrm - int32(qres))
	switch {
	case lshift <= 0:
		return lshiftSat32(result, uint(-lshift))
	case lshift < 32:
		return result >> uint(lshift)
	default:
		return 0
	}
}

// log2lin approximates 2^(inLogQ7/128).
func log2lin(inLogQ7 int32) int32 {
	if inLogQ7 < 0 {
		return 0
	}
	if inLogQ7 >= 3967 {
		return 1<<31 - 1
	}
	out := int32(1) << (inLogQ7 >> 7)
	frac := inLogQ7 & 0x7f
	corr := smlawb(frac, smulbb(frac, 128-frac), -174)
	if inLogQ7 < 2048 {
		return out + ((out * corr) >> 7)
	}
	return out + (out>>7)*corr
}

// silkRand advances the linear congruential generator shared by the excitation
// and concealment paths. Overflow wraps.
func silkRand(seed int32) int32 {
	return int32(uint32(907633515) + uint32(seed)*196314165)
}

// sumSqrShift returns the energy of x together with the right shift that
// was applied to keep it within 31 bits with two bits of headroom.
func sumSqrShift(x []int16) (energy int32, shift int) {
	n := len(x)
	shft := 31 - int(clz32(int32(n)))
	nrg := sumSqr(x, int32(n), shft)
	shft = max(0, shft+3-int(clz32(nrg)))
	return sumSqr(x, 0, shft), shft
}

func sumSqr(x []int16, nrg int32, shft int) int32 {
	n := len(x)
	i := 0
	for ; i < n-1; i += 2 {
		t := uint32(smulbb(int32(x[i]), int32(x[i]))) + uint32(smulbb(int32(x[i+1]), int32(x[i+1])))
		nrg = int32(uint32(nrg) + t>>uint(shft))
	}
	if i < n {
		t := uint32(smulbb(int32(x[i]), int32(x[i])))
		nrg = int32(uint32(nrg) + t>>uint(shft))
	}
	return nrg
}
