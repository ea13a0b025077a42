package celt

import "github.com/wavelane/opusnative/rangecoding"

// Bit allocation. All quantities are in 1/8 bit (Q3) units.
// Reference: RFC 6716 Section 4.3.3, libopus celt/rate.c

const logMaxPseudo = 6

// allocation is the result of computeAllocation for one frame.
type allocation struct {
	pulses       [MaxBands]int // PVQ bits per band (Q3)
	fineQuant    [MaxBands]int // Fine energy bits per band and channel
	finePriority [MaxBands]int
	codedBands   int
	balance      int
	intensity    int
	dualStereo   bool
}

// initCaps returns the maximum useful allocation per band.
func initCaps(caps *[MaxBands]int, lm, channels int) {
	for i := 0; i < MaxBands; i++ {
		n := (eBands[i+1] - eBands[i]) << lm
		caps[i] = (int(cacheCaps[MaxBands*(2*lm+channels-1)+i]) + 64) * channels * n >> 2
	}
}

// getPulses maps a pseudo-pulse index to an actual pulse count.
func getPulses(i int) int {
	if i < 8 {
		return i
	}
	return (8 + (i & 7)) << ((i >> 3) - 1)
}

func pulseCache(band, lm int) []uint8 {
	return cacheBits[cacheIndex[(lm+1)*MaxBands+band]:]
}

// bits2Pulses returns the pseudo-pulse index whose cost is closest to bits.
func bits2Pulses(band, lm, bitCount int) int {
	cache := pulseCache(band, lm)
	lo, hi := 0, int(cache[0])
	bitCount--
	for i := 0; i < logMaxPseudo; i++ {
		mid := (lo + hi + 1) >> 1
		if int(cache[mid]) >= bitCount {
			hi = mid
		} else {
			lo = mid
		}
	}
	loCost := -1
	if lo != 0 {
		loCost = int(cache[lo])
	}
	if bitCount-loCost <= int(cache[hi])-bitCount {
		return lo
	}
	return hi
}

// pulses2Bits returns the cost in Q3 bits of a pseudo-pulse index.
func pulses2Bits(band, lm, pulses int) int {
	if pulses == 0 {
		return 0
	}
	return int(pulseCache(band, lm)[pulses]) + 1
}

// computeAllocation splits total bits between bands, reading the skip,
// intensity and dual-stereo decisions from the stream.
func computeAllocation(rd *rangecoding.Decoder, a *allocation, start, end int, offsets, caps *[MaxBands]int, allocTrim, total, channels, lm int) {
	total = max(total, 0)
	skipStart := start
	skipRsv := 0
	if total >= 1<<bitRes {
		skipRsv = 1 << bitRes
	}
	total -= skipRsv

	intensityRsv, dualStereoRsv := 0, 0
	if channels == 2 {
		intensityRsv = int(log2FracTable[end-start])
		if intensityRsv > total {
			intensityRsv = 0
		} else {
			total -= intensityRsv
			if total >= 1<<bitRes {
				dualStereoRsv = 1 << bitRes
			}
			total -= dualStereoRsv
		}
	}

	var bits1, bits2, thresh, trimOffset [MaxBands]int
	for j := start; j < end; j++ {
		width := eBands[j+1] - eBands[j]
		thresh[j] = max(channels<<bitRes, (3*width<<lm<<bitRes)>>4)
		trimOffset[j] = channels * width * (allocTrim - 5 - lm) * (end - j - 1) * (1 << (lm + bitRes)) >> 6
		if width<<lm == 1 {
			trimOffset[j] -= channels << bitRes
		}
	}

	lo, hi := 1, nbAllocVectors-1
	for lo <= hi {
		done := false
		psum := 0
		mid := (lo + hi) >> 1
		for j := end - 1; j >= start; j-- {
			n := eBands[j+1] - eBands[j]
			bitsj := channels * n * int(bandAllocation[mid][j]) << lm >> 2
			if bitsj > 0 {
				bitsj = max(0, bitsj+trimOffset[j])
			}
			bitsj += offsets[j]
			if bitsj >= thresh[j] || done {
				done = true
				psum += min(bitsj, caps[j])
			} else if bitsj >= channels<<bitRes {
				psum += channels << bitRes
			}
		}
		if psum > total {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	hi = lo
	lo--

	for j := start; j < end; j++ {
		n := eBands[j+1] - eBands[j]
		bits1j := channels * n * int(bandAllocation[lo][j]) << lm >> 2
		var bits2j int
		if hi >= nbAllocVectors {
			bits2j = caps[j]
		} else {
			bits2j = channels * n * int(bandAllocation[hi][j]) << lm >> 2
		}
		if bits1j > 0 {
			bits1j = max(0, bits1j+trimOffset[j])
		}
		if bits2j > 0 {
			bits2j = max(0, bits2j+trimOffset[j])
		}
		if lo > 0 {
			bits1j += offsets[j]
		}
		bits2j += offsets[j]
		if offsets[j] > 0 {
			skipStart = j
		}
		bits1[j] = bits1j
		bits2[j] = max(0, bits2j-bits1j)
	}

	interpBits2Pulses(rd, a, start, end, skipStart, &bits1, &bits2, &thresh, caps,
		total, skipRsv, intensityRsv, dualStereoRsv, channels, lm)
}

func interpBits2Pulses(rd *rangecoding.Decoder, a *allocation, start, end, skipStart int,
	bits1, bits2, thresh, caps *[MaxBands]int, total, skipRsv, intensityRsv, dualStereoRsv, channels, lm int) {
	allocFloor := channels << bitRes
	stereo := 0
	if channels > 1 {
		stereo = 1
	}
	logM := lm << bitRes
	bits := &a.pulses
	ebits := &a.fineQuant
	finePriority := &a.finePriority

	lo, hi := 0, 1<<allocSteps
	for i := 0; i < allocSteps; i++ {
		mid := (lo + hi) >> 1
		psum := 0
		done := false
		for j := end - 1; j >= start; j-- {
			tmp := bits1[j] + (mid * bits2[j] >> allocSteps)
			if tmp >= thresh[j] || done {
				done = true
				psum += min(tmp, caps[j])
			} else if tmp >= allocFloor {
				psum += allocFloor
			}
		}
		if psum > total {
			hi = mid
		} else {
			lo = mid
		}
	}

	psum := 0
	done := false
	for j := end - 1; j >= start; j-- {
		tmp := bits1[j] + (lo * bits2[j] >> allocSteps)
		if tmp < thresh[j] && !done {
			if tmp >= allocFloor {
				tmp = allocFloor
			} else {
				tmp = 0
			}
		} else {
			done = true
		}
		tmp = min(tmp, caps[j])
		bits[j] = tmp
		psum += tmp
	}

	codedBands := end
	for ; ; codedBands-- {
		j := codedBands - 1
		if j <= skipStart {
			total += skipRsv
			break
		}
		left := total - psum
		percoeff := left / (eBands[codedBands] - eBands[start])
		left -= (eBands[codedBands] - eBands[start]) * percoeff
		rem := max(left-(eBands[j]-eBands[start]), 0)
		bandWidth := eBands[codedBands] - eBands[j]
		bandBits := bits[j] + percoeff*bandWidth + rem
		if bandBits >= max(thresh[j], allocFloor+(1<<bitRes)) {
			if rd.DecodeBitLogp(1) != 0 {
				break
			}
			psum += 1 << bitRes
			bandBits -= 1 << bitRes
		}
		psum -= bits[j] + intensityRsv
		if intensityRsv > 0 {
			intensityRsv = int(log2FracTable[j-start])
		}
		psum += intensityRsv
		if bandBits >= allocFloor {
			psum += allocFloor
			bits[j] = allocFloor
		} else {
			bits[j] = 0
		}
	}

	if intensityRsv > 0 {
		a.intensity = start + int(rd.DecodeUniform(uint32(codedBands+1-start)))
	} else {
		a.intensity = 0
	}
	if a.intensity <= start {
		total += dualStereoRsv
		dualStereoRsv = 0
	}
	a.dualStereo = dualStereoRsv > 0 && rd.DecodeBitLogp(1) != 0

	left := total - psum
	percoeff := left / (eBands[codedBands] - eBands[start])
	left -= (eBands[codedBands] - eBands[start]) * percoeff
	for j := start; j < codedBands; j++ {
		bits[j] += percoeff * (eBands[j+1] - eBands[j])
	}
	for j := start; j < codedBands; j++ {
		tmp := min(left, eBands[j+1]-eBands[j])
		bits[j] += tmp
		left -= tmp
	}

	balance := 0
	j := start
	for ; j < codedBands; j++ {
		n0 := eBands[j+1] - eBands[j]
		n := n0 << lm
		bit := bits[j] + balance
		var excess int
		if n > 1 {
			excess = max(bit-caps[j], 0)
			bits[j] = bit - excess
			den := channels * n
			if channels == 2 && n > 2 && !a.dualStereo && j < a.intensity {
				den++
			}
			nclogn := den * (logN[j] + logM)
			offset := (nclogn >> 1) - den*fineOffset
			if n == 2 {
				offset += den << bitRes >> 2
			}
			if bits[j]+offset < den*2<<bitRes {
				offset += nclogn >> 2
			} else if bits[j]+offset < den*3<<bitRes {
				offset += nclogn >> 3
			}
			ebits[j] = max(0, bits[j]+offset+(den<<(bitRes-1)))
			ebits[j] = (ebits[j] / den) >> bitRes
			if channels*ebits[j] > bits[j]>>bitRes {
				ebits[j] = bits[j] >> stereo >> bitRes
			}
			ebits[j] = min(ebits[j], maxFineBits)
			finePriority[j] = b2i(ebits[j]*(den<<bitRes) >= bits[j]+offset)
			bits[j] -= channels * ebits[j] << bitRes
		} else {
			excess = max(0, bit-(channels<<bitRes))
			bits[j] = bit - excess
			ebits[j] = 0
			finePriority[j] = 1
		}
		if excess > 0 {
			extraFine := min(excess>>(stereo+bitRes), maxFineBits-ebits[j])
			ebits[j] += extraFine
			extraBits := extraFine * channels << bitRes
			finePriority[j] = b2i(extraBits >= excess-balance)
			excess -= extraBits
		}
		balance = excess
	}
	a.balance = balance

	for ; j < end; j++ {
		ebits[j] = bits[j] >> stereo >> bitRes
		bits[j] = 0
		finePriority[j] = b2i(ebits[j] < 1)
	}
	a.codedBands = codedBands
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
