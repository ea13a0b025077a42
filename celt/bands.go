package celt

import "github.com/wavelane/opusnative/rangecoding"

// Band shape decoding: recursive splitting, theta coding, stereo and
// spectral folding.
// Reference: RFC 6716 Section 4.3.4, libopus celt/bands.c

// bandDecoder carries the per-frame context of the band loop. Its buffers
// are scratch space reused across frames; nothing here survives a frame.
type bandDecoder struct {
	rd            *rangecoding.Decoder
	band          int
	intensity     int
	spread        int
	tfChange      int
	remainingBits int
	seed          uint32
	disableInv    bool

	pvq     pvqTable
	iy      [MaxFrameSize]int
	norm    [2 * 8 * 100]float32
	scratch [8 * 22]float32
	tmp     [MaxFrameSize]float32
}

// splitParams is the outcome of decoding one theta split.
type splitParams struct {
	inv    bool
	imid   int32
	iside  int32
	delta  int
	itheta int
	qalloc int
}

var exp2Table8 = [8]int{16384, 17866, 19483, 21247, 23170, 25267, 27554, 30048}

// computeQN returns the number of theta quantization steps for a split.
func computeQN(n, b, offset, pulseCap int, stereo bool) int {
	n2 := 2*n - 1
	if stereo && n == 2 {
		n2--
	}
	qb := (b + n2*offset) / n2
	qb = min(b-pulseCap-(4<<bitRes), qb)
	qb = min(8<<bitRes, qb)
	if qb < (1 << bitRes >> 1) {
		return 1
	}
	qn := exp2Table8[qb&0x7] >> (14 - (qb >> bitRes))
	return (qn + 1) >> 1 << 1
}

func (bd *bandDecoder) computeTheta(sp *splitParams, n int, b *int, bb, b0, lm int, stereo bool, fill *uint32) {
	rd := bd.rd
	pulseCap := logN[bd.band] + lm*(1<<bitRes)
	offset := pulseCap >> 1
	if stereo && n == 2 {
		offset -= qThetaOffsetTwo
	} else {
		offset -= qThetaOffset
	}
	qn := computeQN(n, *b, offset, pulseCap, stereo)
	if stereo && bd.band >= bd.intensity {
		qn = 1
	}
	tell := rd.TellFrac()
	itheta := 0
	inv := false
	if qn != 1 {
		switch {
		case stereo && n > 2:
			const p0 = 3
			x0 := qn / 2
			ft := uint32(p0*(x0+1) + x0)
			fs := int(rd.Decode(ft))
			var x int
			if fs < (x0+1)*p0 {
				x = fs / p0
			} else {
				x = x0 + 1 + (fs - (x0+1)*p0)
			}
			var fl, fh int
			if x <= x0 {
				fl, fh = p0*x, p0*(x+1)
			} else {
				fl, fh = (x-1-x0)+(x0+1)*p0, (x-x0)+(x0+1)*p0
			}
			rd.Update(uint32(fl), uint32(fh), ft)
			itheta = x
		case b0 > 1 || stereo:
			itheta = int(rd.DecodeUniform(uint32(qn + 1)))
		default:
			half := qn >> 1
			ft := (half + 1) * (half + 1)
			fm := int(rd.Decode(uint32(ft)))
			var fl, fs int
			if fm < (half*(half+1))>>1 {
				itheta = int(isqrt32(uint32(8*fm+1))-1) >> 1
				fs = itheta + 1
				fl = itheta * (itheta + 1) >> 1
			} else {
				itheta = (2*(qn+1) - int(isqrt32(uint32(8*(ft-fm-1)+1)))) >> 1
				fs = qn + 1 - itheta
				fl = ft - ((qn + 1 - itheta) * (qn + 2 - itheta) >> 1)
			}
			rd.Update(uint32(fl), uint32(fl+fs), uint32(ft))
		}
		itheta = itheta * 16384 / qn
	} else if stereo {
		if *b > 2<<bitRes && bd.remainingBits > 2<<bitRes {
			inv = rd.DecodeBitLogp(2) != 0
		}
		if bd.disableInv {
			inv = false
		}
		itheta = 0
	}
	qalloc := rd.TellFrac() - tell
	*b -= qalloc

	switch itheta {
	case 0:
		sp.imid, sp.iside = 32767, 0
		*fill &= (1 << uint(bb)) - 1
		sp.delta = -16384
	case 16384:
		sp.imid, sp.iside = 0, 32767
		*fill &= ((1 << uint(bb)) - 1) << uint(bb)
		sp.delta = 16384
	default:
		sp.imid = bitexactCos(int32(itheta))
		sp.iside = bitexactCos(int32(16384 - itheta))
		sp.delta = int(fracMul16(int32((n-1)<<7), bitexactLog2Tan(sp.iside, sp.imid)))
	}
	sp.inv = inv
	sp.itheta = itheta
	sp.qalloc = qalloc
}

// decodeBandN1 handles single-coefficient bands, which only carry a sign.
func (bd *bandDecoder) decodeBandN1(x, y []float32, lowbandOut []float32) uint32 {
	for _, v := range [][]float32{x, y} {
		if v == nil {
			continue
		}
		sign := uint32(0)
		if bd.remainingBits >= 1<<bitRes {
			sign = bd.rd.DecodeRawBits(1)
			bd.remainingBits -= 1 << bitRes
		}
		v[0] = 1
		if sign != 0 {
			v[0] = -1
		}
	}
	if lowbandOut != nil {
		lowbandOut[0] = x[0]
	}
	return 1
}

func (bd *bandDecoder) decodePartition(x []float32, n, b, bb int, lowband []float32, lm int, gain float32, fill uint32) (uint32, error) {
	b0 := bb
	i := bd.band
	if lm != -1 && n > 2 {
		cache := pulseCache(i, lm)
		if b > int(cache[cache[0]])+12 {
			return bd.splitPartition(x, n, b, bb, b0, lowband, lm, gain, fill)
		}
	}

	q := bits2Pulses(i, lm, b)
	currBits := pulses2Bits(i, lm, q)
	bd.remainingBits -= currBits
	for bd.remainingBits < 0 && q > 0 {
		bd.remainingBits += currBits
		q--
		currBits = pulses2Bits(i, lm, q)
		bd.remainingBits -= currBits
	}
	if q != 0 {
		return bd.algUnquant(x, n, getPulses(q), bd.spread, bb, gain)
	}

	cmMask := uint32(1)<<uint(bb) - 1
	fill &= cmMask
	if fill == 0 {
		clear(x[:n])
		return 0, nil
	}
	var cm uint32
	if lowband == nil {
		for j := 0; j < n; j++ {
			bd.seed = lcgRand(bd.seed)
			x[j] = float32(int32(bd.seed) >> 20)
		}
		cm = cmMask
	} else {
		for j := 0; j < n; j++ {
			bd.seed = lcgRand(bd.seed)
			tmp := float32(1.0 / 256)
			if bd.seed&0x8000 == 0 {
				tmp = -tmp
			}
			x[j] = lowband[j] + tmp
		}
		cm = fill
	}
	renormaliseVector(x, n, gain)
	return cm, nil
}

func (bd *bandDecoder) splitPartition(x []float32, n, b, bb, b0 int, lowband []float32, lm int, gain float32, fill uint32) (uint32, error) {
	n >>= 1
	y := x[n:]
	lm--
	if bb == 1 {
		fill = (fill & 1) | (fill << 1)
	}
	bb = (bb + 1) >> 1

	var sp splitParams
	bd.computeTheta(&sp, n, &b, bb, b0, lm, false, &fill)
	mid := (1.0 / 32768) * float32(sp.imid)
	side := (1.0 / 32768) * float32(sp.iside)
	delta := sp.delta
	if b0 > 1 && sp.itheta&0x3fff != 0 {
		if sp.itheta > 8192 {
			delta -= delta >> (4 - lm)
		} else {
			delta = min(0, delta+(n<<bitRes>>(5-lm)))
		}
	}
	mbits := max(0, min(b, (b-delta)/2))
	sbits := b - mbits
	bd.remainingBits -= sp.qalloc

	var nextLowband2 []float32
	if lowband != nil {
		nextLowband2 = lowband[n:]
	}

	rebalance := bd.remainingBits
	var cm uint32
	if mbits >= sbits {
		c1, err := bd.decodePartition(x, n, mbits, bb, lowband, lm, gain*mid, fill)
		if err != nil {
			return 0, err
		}
		rebalance = mbits - (rebalance - bd.remainingBits)
		if rebalance > 3<<bitRes && sp.itheta != 0 {
			sbits += rebalance - (3 << bitRes)
		}
		c2, err := bd.decodePartition(y, n, sbits, bb, nextLowband2, lm, gain*side, fill>>uint(bb))
		if err != nil {
			return 0, err
		}
		cm = c1 | c2<<uint(b0>>1)
	} else {
		c2, err := bd.decodePartition(y, n, sbits, bb, nextLowband2, lm, gain*side, fill>>uint(bb))
		if err != nil {
			return 0, err
		}
		rebalance = sbits - (rebalance - bd.remainingBits)
		if rebalance > 3<<bitRes && sp.itheta != 16384 {
			mbits += rebalance - (3 << bitRes)
		}
		c1, err := bd.decodePartition(x, n, mbits, bb, lowband, lm, gain*mid, fill)
		if err != nil {
			return 0, err
		}
		cm = c1 | c2<<uint(b0>>1)
	}
	return cm, nil
}

const invSqrt2 = 0.70710678

func haar1(x []float32, n0, stride int) {
	n0 >>= 1
	for i := 0; i < stride; i++ {
		for j := 0; j < n0; j++ {
			a := invSqrt2 * x[stride*2*j+i]
			b := invSqrt2 * x[stride*(2*j+1)+i]
			x[stride*2*j+i] = a + b
			x[stride*(2*j+1)+i] = a - b
		}
	}
}

func (bd *bandDecoder) deinterleaveHadamard(x []float32, n0, stride int, hadamard bool) {
	n := n0 * stride
	tmp := bd.tmp[:n]
	if hadamard {
		ordery := orderyTable[stride-2:]
		for i := 0; i < stride; i++ {
			for j := 0; j < n0; j++ {
				tmp[ordery[i]*n0+j] = x[j*stride+i]
			}
		}
	} else {
		for i := 0; i < stride; i++ {
			for j := 0; j < n0; j++ {
				tmp[i*n0+j] = x[j*stride+i]
			}
		}
	}
	copy(x, tmp)
}

func (bd *bandDecoder) interleaveHadamard(x []float32, n0, stride int, hadamard bool) {
	n := n0 * stride
	tmp := bd.tmp[:n]
	if hadamard {
		ordery := orderyTable[stride-2:]
		for i := 0; i < stride; i++ {
			for j := 0; j < n0; j++ {
				tmp[j*stride+i] = x[ordery[i]*n0+j]
			}
		}
	} else {
		for i := 0; i < stride; i++ {
			for j := 0; j < n0; j++ {
				tmp[j*stride+i] = x[i*n0+j]
			}
		}
	}
	copy(x, tmp)
}

// decodeBand decodes one mono band (or one channel of a dual-stereo band),
// applying the TF resolution change around the partition decoder.
func (bd *bandDecoder) decodeBand(x []float32, n, b, bb int, lowband []float32, lm int, lowbandOut []float32, gain float32, lowbandScratch []float32, fill uint32) (uint32, error) {
	n0 := n
	nb := n / bb
	b0 := bb
	timeDivide := 0
	recombine := 0
	longBlocks := b0 == 1
	tfChange := bd.tfChange

	if n == 1 {
		return bd.decodeBandN1(x, nil, lowbandOut), nil
	}
	if tfChange > 0 {
		recombine = tfChange
	}
	if lowbandScratch != nil && lowband != nil && (recombine != 0 || (nb&1 == 0 && tfChange < 0) || b0 > 1) {
		copy(lowbandScratch[:n], lowband[:n])
		lowband = lowbandScratch
	}
	for k := 0; k < recombine; k++ {
		if lowband != nil {
			haar1(lowband, n>>k, 1<<k)
		}
		fill = uint32(bitInterleaveTable[fill&0xF]) | uint32(bitInterleaveTable[fill>>4])<<2
	}
	bb >>= recombine
	nb <<= recombine

	for nb&1 == 0 && tfChange < 0 {
		if lowband != nil {
			haar1(lowband, nb, bb)
		}
		fill |= fill << uint(bb)
		bb <<= 1
		nb >>= 1
		timeDivide++
		tfChange++
	}
	b0 = bb
	nb0 := nb

	if b0 > 1 && lowband != nil {
		bd.deinterleaveHadamard(lowband, nb>>recombine, b0<<recombine, longBlocks)
	}

	cm, err := bd.decodePartition(x, n, b, bb, lowband, lm, gain, fill)
	if err != nil {
		return 0, err
	}

	if b0 > 1 {
		bd.interleaveHadamard(x, nb>>recombine, b0<<recombine, longBlocks)
	}
	nb = nb0
	bb = b0
	for k := 0; k < timeDivide; k++ {
		bb >>= 1
		nb <<= 1
		cm |= cm >> uint(bb)
		haar1(x, nb, bb)
	}
	for k := 0; k < recombine; k++ {
		cm = uint32(bitDeinterleaveTable[cm])
		haar1(x, n0>>k, 1<<k)
	}
	bb <<= recombine

	if lowbandOut != nil {
		s := celtSqrt(float32(n0))
		for j := 0; j < n0; j++ {
			lowbandOut[j] = s * x[j]
		}
	}
	cm &= (1 << uint(bb)) - 1
	return cm, nil
}

// decodeBandStereo decodes a mid/side coded stereo band.
func (bd *bandDecoder) decodeBandStereo(x, y []float32, n, b, bb int, lowband []float32, lm int, lowbandOut, lowbandScratch []float32, fill uint32) (uint32, error) {
	if n == 1 {
		return bd.decodeBandN1(x, y, lowbandOut), nil
	}
	origFill := fill
	var sp splitParams
	bd.computeTheta(&sp, n, &b, bb, bb, lm, true, &fill)
	mid := (1.0 / 32768) * float32(sp.imid)
	side := (1.0 / 32768) * float32(sp.iside)

	var cm uint32
	if n == 2 {
		mbits := b
		sbits := 0
		if sp.itheta != 0 && sp.itheta != 16384 {
			sbits = 1 << bitRes
		}
		mbits -= sbits
		c := sp.itheta > 8192
		bd.remainingBits -= sp.qalloc + sbits
		x2, y2 := x, y
		if c {
			x2, y2 = y, x
		}
		sign := uint32(0)
		if sbits != 0 {
			sign = bd.rd.DecodeRawBits(1)
		}
		sgn := float32(1 - 2*int(sign))
		var err error
		cm, err = bd.decodeBand(x2, n, mbits, bb, lowband, lm, lowbandOut, 1, lowbandScratch, origFill)
		if err != nil {
			return 0, err
		}
		y2[0] = -sgn * x2[1]
		y2[1] = sgn * x2[0]
		x[0] *= mid
		x[1] *= mid
		y[0] *= side
		y[1] *= side
		t := x[0]
		x[0] = t - y[0]
		y[0] = t + y[0]
		t = x[1]
		x[1] = t - y[1]
		y[1] = t + y[1]
	} else {
		mbits := max(0, min(b, (b-sp.delta)/2))
		sbits := b - mbits
		bd.remainingBits -= sp.qalloc
		rebalance := bd.remainingBits
		if mbits >= sbits {
			c1, err := bd.decodeBand(x, n, mbits, bb, lowband, lm, lowbandOut, 1, lowbandScratch, fill)
			if err != nil {
				return 0, err
			}
			rebalance = mbits - (rebalance - bd.remainingBits)
			if rebalance > 3<<bitRes && sp.itheta != 0 {
				sbits += rebalance - (3 << bitRes)
			}
			c2, err := bd.decodeBand(y, n, sbits, bb, nil, lm, nil, side, nil, fill>>uint(bb))
			if err != nil {
				return 0, err
			}
			cm = c1 | c2
		} else {
			c2, err := bd.decodeBand(y, n, sbits, bb, nil, lm, nil, side, nil, fill>>uint(bb))
			if err != nil {
				return 0, err
			}
			rebalance = sbits - (rebalance - bd.remainingBits)
			if rebalance > 3<<bitRes && sp.itheta != 16384 {
				mbits += rebalance - (3 << bitRes)
			}
			c1, err := bd.decodeBand(x, n, mbits, bb, lowband, lm, lowbandOut, 1, lowbandScratch, fill)
			if err != nil {
				return 0, err
			}
			cm = c1 | c2
		}
		stereoMerge(x, y, mid, n)
	}
	if sp.inv {
		for j := 0; j < n; j++ {
			y[j] = -y[j]
		}
	}
	return cm, nil
}

// stereoMerge converts the decoded mid and side shapes back to left/right.
func stereoMerge(x, y []float32, mid float32, n int) {
	var xp, side float32
	for j := 0; j < n; j++ {
		xp += y[j] * x[j]
		side += y[j] * y[j]
	}
	xp = mid * xp
	el := mid*mid + side - 2*xp
	er := mid*mid + side + 2*xp
	if er < 6e-4 || el < 6e-4 {
		copy(y[:n], x[:n])
		return
	}
	lgain := celtRsqrt(el)
	rgain := celtRsqrt(er)
	for j := 0; j < n; j++ {
		l := mid * x[j]
		r := y[j]
		x[j] = lgain * (l - r)
		y[j] = rgain * (l + r)
	}
}

// bandParams groups the frame-level inputs of decodeAllBands.
type bandParams struct {
	start, end  int
	lm          int
	shortBlocks bool
	spread      int
	tfRes       *[MaxBands]int
	totalBits   int
	alloc       *allocation
	collapse    []uint8
	channels    int
}

// decodeAllBands decodes the normalized shapes of bands [start, end) into
// x (and y for stereo), filling collapse masks per band and channel.
func (bd *bandDecoder) decodeAllBands(x, y []float32, p *bandParams) error {
	rd := bd.rd
	m := 1 << p.lm
	bb := 1
	if p.shortBlocks {
		bb = m
	}
	c := p.channels
	start, end := p.start, p.end
	normOffset := m * eBands[start]
	normLen := m*eBands[MaxBands-1] - normOffset
	norm := bd.norm[:normLen]
	norm2 := bd.norm[normLen : 2*normLen]
	balance := p.alloc.balance
	dualStereo := p.alloc.dualStereo
	bd.intensity = p.alloc.intensity
	bd.spread = p.spread

	lowbandOffset := 0
	updateLowband := true
	for i := start; i < end; i++ {
		bd.band = i
		last := i == end-1
		xb := x[m*eBands[i]:]
		var yb []float32
		if y != nil {
			yb = y[m*eBands[i]:]
		}
		n := m*eBands[i+1] - m*eBands[i]
		tell := rd.TellFrac()
		if i != start {
			balance -= tell
		}
		remaining := p.totalBits - tell - 1
		bd.remainingBits = remaining
		b := 0
		if i <= p.alloc.codedBands-1 {
			currBalance := balance / min(3, p.alloc.codedBands-i)
			b = max(0, min(16383, min(remaining+1, p.alloc.pulses[i]+currBalance)))
		}

		if (m*eBands[i]-n >= m*eBands[start] || i == start+1) && (updateLowband || lowbandOffset == 0) {
			lowbandOffset = i
		}
		if i == start+1 {
			n1 := m * (eBands[start+1] - eBands[start])
			n2 := m * (eBands[start+2] - eBands[start+1])
			if n2 > n1 {
				copy(norm[n1:n2], norm[2*n1-n2:n1])
				if dualStereo {
					copy(norm2[n1:n2], norm2[2*n1-n2:n1])
				}
			}
		}

		bd.tfChange = p.tfRes[i]
		scratch := bd.scratch[:]
		if last {
			scratch = nil
		}

		effectiveLowband := -1
		var xcm, ycm uint32
		if lowbandOffset != 0 && (p.spread != spreadAggressive || bb > 1 || bd.tfChange < 0) {
			effectiveLowband = max(0, m*eBands[lowbandOffset]-normOffset-n)
			foldStart := lowbandOffset
			for {
				foldStart--
				if m*eBands[foldStart] <= effectiveLowband+normOffset {
					break
				}
			}
			foldEnd := lowbandOffset - 1
			for {
				foldEnd++
				if foldEnd >= i || m*eBands[foldEnd] >= effectiveLowband+normOffset+n {
					break
				}
			}
			for fi := foldStart; fi < foldEnd; fi++ {
				xcm |= uint32(p.collapse[fi*c])
				ycm |= uint32(p.collapse[fi*c+c-1])
			}
		} else {
			xcm = uint32(1)<<uint(bb) - 1
			ycm = xcm
		}

		if dualStereo && i == bd.intensity {
			dualStereo = false
			for j := 0; j < m*eBands[i]-normOffset; j++ {
				norm[j] = 0.5 * (norm[j] + norm2[j])
			}
		}

		var lowband, lowband2, out, out2 []float32
		if effectiveLowband != -1 {
			lowband = norm[effectiveLowband:]
			lowband2 = norm2[effectiveLowband:]
		}
		if !last {
			out = norm[m*eBands[i]-normOffset:]
			out2 = norm2[m*eBands[i]-normOffset:]
		}

		var err error
		switch {
		case dualStereo:
			xcm, err = bd.decodeBand(xb, n, b/2, bb, lowband, p.lm, out, 1, scratch, xcm)
			if err == nil {
				ycm, err = bd.decodeBand(yb, n, b/2, bb, lowband2, p.lm, out2, 1, scratch, ycm)
			}
		case yb != nil:
			xcm, err = bd.decodeBandStereo(xb, yb, n, b, bb, lowband, p.lm, out, scratch, xcm|ycm)
			ycm = xcm
		default:
			xcm, err = bd.decodeBand(xb, n, b, bb, lowband, p.lm, out, 1, scratch, xcm|ycm)
			ycm = xcm
		}
		if err != nil {
			return err
		}
		p.collapse[i*c] = uint8(xcm)
		p.collapse[i*c+c-1] = uint8(ycm)
		balance += p.alloc.pulses[i] + tell
		updateLowband = b > n<<bitRes
	}
	return nil
}
