package celt

import "github.com/wavelane/opusnative/rangecoding"

// Band energy decoding. Energies are kept in log2 units relative to eMeans.
// Reference: RFC 6716 Section 4.3.2, libopus celt/quant_bands.c

// decodeCoarseEnergy decodes the Laplace-coded coarse energy of bands
// [start, end) with time (coef) and frequency (beta) prediction.
func decodeCoarseEnergy(rd *rangecoding.Decoder, oldE *[2 * MaxBands]float32, start, end int, intra bool, channels, lm int) {
	intraIdx := 0
	coef, beta := predCoef[lm], betaCoef[lm]
	if intra {
		intraIdx = 1
		coef, beta = 0, betaIntra
	}
	prob := &eProbModel[lm][intraIdx]
	var prev [2]float32
	budget := rd.StorageBits()

	for i := start; i < end; i++ {
		for c := 0; c < channels; c++ {
			var qi int
			tell := rd.Tell()
			switch {
			case budget-tell >= 15:
				pi := 2 * min(i, 20)
				qi = decodeLaplace(rd, uint32(prob[pi])<<7, int(prob[pi+1])<<6)
			case budget-tell >= 2:
				qi = rd.DecodeICDF(smallEnergyICDF[:], 2)
				qi = (qi >> 1) ^ -(qi & 1)
			case budget-tell >= 1:
				qi = -rd.DecodeBitLogp(1)
			default:
				qi = -1
			}
			q := float32(qi)
			idx := i + c*MaxBands
			oldE[idx] = max(-9, oldE[idx])
			oldE[idx] = coef*oldE[idx] + prev[c] + q
			prev[c] = prev[c] + q - beta*q
		}
	}
}

// decodeFineEnergy refines each band with fineQuant[i] raw bits.
func decodeFineEnergy(rd *rangecoding.Decoder, oldE *[2 * MaxBands]float32, start, end int, fineQuant *[MaxBands]int, channels int) {
	for i := start; i < end; i++ {
		if fineQuant[i] <= 0 {
			continue
		}
		for c := 0; c < channels; c++ {
			q2 := rd.DecodeRawBits(uint(fineQuant[i]))
			offset := (float32(q2)+0.5)*float32(int(1)<<(14-fineQuant[i]))*(1.0/16384) - 0.5
			oldE[i+c*MaxBands] += offset
		}
	}
}

// decodeEnergyFinalise spends the bits left after PVQ on one more bit of
// fine energy per band, first for bands with priority 0 then priority 1.
func decodeEnergyFinalise(rd *rangecoding.Decoder, oldE *[2 * MaxBands]float32, start, end int, fineQuant, finePriority *[MaxBands]int, bitsLeft, channels int) {
	for prio := 0; prio < 2; prio++ {
		for i := start; i < end && bitsLeft >= channels; i++ {
			if fineQuant[i] >= maxFineBits || finePriority[i] != prio {
				continue
			}
			for c := 0; c < channels; c++ {
				q2 := rd.DecodeRawBits(1)
				offset := (float32(q2) - 0.5) * float32(int(1)<<(14-fineQuant[i]-1)) * (1.0 / 16384)
				oldE[i+c*MaxBands] += offset
				bitsLeft--
			}
		}
	}
}

// denormaliseBands scales the unit-norm band shapes in x by the band
// energies and writes the MDCT spectrum to freq (length m*ShortMDCTSize).
func denormaliseBands(x []float32, freq []float32, bandLogE []float32, start, end, m, downsample int, silence bool) {
	n := m * ShortMDCTSize
	bound := m * eBands[end]
	if downsample != 1 {
		bound = min(bound, n/downsample)
	}
	if silence {
		bound = 0
		start, end = 0, 0
	}
	clear(freq[:m*eBands[start]])
	for i := start; i < end; i++ {
		lg := bandLogE[i] + eMeans[i]
		g := celtExp2(min(32, lg))
		for j := m * eBands[i]; j < m*eBands[i+1]; j++ {
			freq[j] = x[j] * g
		}
	}
	clear(freq[bound:n])
}
