package celt

import (
	"math"
	"math/bits"
)

// Integer and float helpers shared by the band and energy code.
// Reference: libopus celt/mathops.h, celt/mathops.c, celt/bands.c

// ilog returns the number of bits needed to represent x (EC_ILOG).
func ilog(x uint32) int {
	return bits.Len32(x)
}

// fracMul16 is a Q15 multiply with rounding of two 16-bit values.
func fracMul16(a, b int32) int32 {
	return (16384 + int32(int16(a))*int32(int16(b))) >> 15
}

// bitexactCos approximates 32768*cos(pi/2 * x/16384) using only integer ops.
func bitexactCos(x int32) int32 {
	tmp := (4096 + x*x) >> 13
	x2 := tmp
	x2 = (32767 - x2) + fracMul16(x2, -7651+fracMul16(x2, 8277+fracMul16(-626, x2)))
	return 1 + x2
}

// bitexactLog2Tan returns log2(isin/icos) in Q11.
func bitexactLog2Tan(isin, icos int32) int32 {
	lc := int32(ilog(uint32(icos)))
	ls := int32(ilog(uint32(isin)))
	icos <<= 15 - lc
	isin <<= 15 - ls
	return (ls-lc)*(1<<11) +
		fracMul16(isin, fracMul16(isin, -2597)+7932) -
		fracMul16(icos, fracMul16(icos, -2597)+7932)
}

// isqrt32 is the bit-by-bit integer square root, floor(sqrt(v)).
func isqrt32(v uint32) uint32 {
	var g uint32
	bshift := (ilog(v) - 1) >> 1
	b := uint32(1) << uint(bshift)
	for bshift >= 0 {
		t := ((g << 1) + b) << uint(bshift)
		if t <= v {
			g += b
			v -= t
		}
		b >>= 1
		bshift--
	}
	return g
}

// lcgRand advances the linear congruential generator used for folding and
// noise fill.
func lcgRand(seed uint32) uint32 {
	return 1664525*seed + 1013904223
}

func celtExp2(x float32) float32 {
	return float32(math.Exp(0.6931471805599453094 * float64(x)))
}

func celtLog2(x float32) float32 {
	return float32(1.442695040888963387 * math.Log(float64(x)))
}

func celtSqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func celtRsqrt(x float32) float32 {
	return 1 / celtSqrt(x)
}

func celtCosNorm(x float32) float32 {
	return float32(math.Cos(float64(0.5 * math.Pi * x)))
}

func abs32(x float32) float32 {
	return math.Float32frombits(math.Float32bits(x) &^ (1 << 31))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
