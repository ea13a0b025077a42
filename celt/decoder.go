// Package celt implements the CELT layer of the Opus decoder (RFC 6716
// Section 4.3): energy envelope, pyramid vector quantized band shapes,
// inverse MDCT with overlap-add, pitch post-filter and de-emphasis.
//
// The arithmetic follows the floating point build of libopus. Integer parts
// of the bitstream (allocation, CWRS indices, TF and spread decisions) are
// exact, so decoding stays in lockstep with the encoder's range coder.
package celt

import (
	"errors"
	"fmt"

	"github.com/wavelane/opusnative/rangecoding"
)

var (
	// ErrMalformedFrame reports a CELT frame that cannot have come from a
	// conforming encoder.
	ErrMalformedFrame = errors.New("celt: malformed frame")

	// ErrInvalidFrameSize reports a frame size that is not 2.5, 5, 10 or 20 ms.
	ErrInvalidFrameSize = errors.New("celt: invalid frame size")

	// ErrInvalidChannels reports a channel count other than 1 or 2.
	ErrInvalidChannels = errors.New("celt: invalid channel count")
)

const (
	lpcOrder        = 24
	preemphCoef     = 0.85000610
	verySmall       = 1e-30
	plcPitchLagMax  = 720
	plcPitchLagMin  = 100
	effBands        = 21
	outputScale     = 1.0 / 32768
	silenceLogLevel = -28
)

// state is everything that persists from one frame to the next. It holds no
// slices so a plain assignment snapshots it.
type state struct {
	decodeMem      [2][decodeBufferSize + Overlap]float32
	lpc            [2][lpcOrder]float32
	oldBandE       [2 * MaxBands]float32
	oldLogE        [2 * MaxBands]float32
	oldLogE2       [2 * MaxBands]float32
	backgroundLogE [2 * MaxBands]float32
	preemphMem     [2]float32

	postfilterPeriod    int
	postfilterPeriodOld int
	postfilterGain      float32
	postfilterGainOld   float32
	postfilterTapset    int
	postfilterTapsetOld int

	rng            uint32
	lossCount      int
	lastPitchIndex int
	skipPLC        bool
}

// Snapshot holds a copy of a decoder's persistent state.
type Snapshot struct {
	s state
}

// Decoder decodes CELT frames for one Opus stream. It is not safe for
// concurrent use.
type Decoder struct {
	channels       int
	streamChannels int
	start, end     int
	downsample     int
	disableInv     bool

	st state

	bands    bandDecoder
	x        [2 * MaxFrameSize]float32
	freq     [2 * MaxFrameSize]float32
	fftBuf   [mdctSize / 4]cpx
	collapse [2 * MaxBands]uint8
	alloc    allocation
	scratch  [MaxFrameSize]float32
	mdct     *mdctLookup
}

// NewDecoder returns a decoder producing the given number of output
// channels at 48 kHz.
func NewDecoder(channels int) (*Decoder, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}
	d := &Decoder{
		channels:       channels,
		streamChannels: channels,
		end:            MaxBands,
		downsample:     1,
		disableInv:     channels == 1,
		mdct:           getMDCT(),
	}
	d.Reset()
	return d, nil
}

// Reset returns the decoder to its initial state.
func (d *Decoder) Reset() {
	d.st = state{skipPLC: true}
	for i := range d.st.oldLogE {
		d.st.oldLogE[i] = silenceLogLevel
		d.st.oldLogE2[i] = silenceLogLevel
	}
}

// SetStreamChannels sets the number of coded channels in the incoming
// frames, which may differ from the output channel count.
func (d *Decoder) SetStreamChannels(c int) {
	d.streamChannels = c
}

// SetBandRange limits decoding to bands [start, end). Hybrid frames start
// at band 17; end follows the audio bandwidth.
func (d *Decoder) SetBandRange(start, end int) {
	d.start = start
	d.end = end
}

// SetDownsample sets the decimation factor from 48 kHz to the output rate.
func (d *Decoder) SetDownsample(factor int) {
	d.downsample = factor
}

// Channels returns the number of output channels.
func (d *Decoder) Channels() int { return d.channels }

// FinalRange returns the range coder state after the last decoded frame.
func (d *Decoder) FinalRange() uint32 { return d.st.rng }

// SaveState copies the persistent decoder state into s.
func (d *Decoder) SaveState(s *Snapshot) { s.s = d.st }

// RestoreState replaces the persistent decoder state with s.
func (d *Decoder) RestoreState(s *Snapshot) { d.st = s.s }

// lmForSize maps a 48 kHz frame size to log2 of its short block count.
func lmForSize(n int) (int, bool) {
	for lm := 0; lm <= MaxLM; lm++ {
		if ShortMDCTSize<<lm == n {
			return lm, true
		}
	}
	return 0, false
}

// DecodeFrame decodes one frame of frameSize samples per channel at the
// output rate into out, interleaved. A nil rd conceals a lost frame.
//
// The frame occupies rd's storage; in hybrid mode the SILK layer has
// already consumed the front of it.
func (d *Decoder) DecodeFrame(rd *rangecoding.Decoder, frameSize int, out []float32) (int, error) {
	n := frameSize * d.downsample
	lm, ok := lmForSize(n)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFrameSize, frameSize)
	}
	if len(out) < frameSize*d.channels {
		return 0, fmt.Errorf("celt: output buffer holds %d samples, need %d", len(out), frameSize*d.channels)
	}
	if rd == nil || rd.Storage() <= 1 {
		d.decodeLost(n, lm)
		d.deemphasis(n, out)
		return frameSize, nil
	}
	if err := d.decode(rd, n, lm); err != nil {
		return 0, err
	}
	d.deemphasis(n, out)
	return frameSize, nil
}

// outSyn returns the synthesis window of channel c for a frame of n samples:
// n finished samples followed by the overlap tail.
func (d *Decoder) outSyn(c, n int) []float32 {
	return d.st.decodeMem[c][decodeBufferSize-n:]
}

func (d *Decoder) decode(rd *rangecoding.Decoder, n, lm int) error {
	st := &d.st
	cc := d.channels
	c := d.streamChannels
	m := 1 << lm
	start, end := d.start, d.end
	effEnd := min(end, effBands)
	frameBytes := rd.Storage()

	st.skipPLC = st.lossCount != 0

	if c == 1 {
		for i := 0; i < MaxBands; i++ {
			st.oldBandE[i] = max(st.oldBandE[i], st.oldBandE[MaxBands+i])
		}
	}

	totalBits := frameBytes * 8
	tell := rd.Tell()
	silence := false
	if tell >= totalBits {
		silence = true
	} else if tell == 1 {
		silence = rd.DecodeBitLogp(15) == 1
	}
	if silence {
		// Every remaining bit is treated as consumed.
		rd.SkipToEnd()
		tell = totalBits
	}

	pfPitch := 0
	pfGain := float32(0)
	pfTapset := 0
	if start == 0 && tell+16 <= totalBits {
		if rd.DecodeBitLogp(1) == 1 {
			octave := int(rd.DecodeUniform(6))
			pfPitch = (16 << octave) + int(rd.DecodeRawBits(uint(4+octave))) - 1
			qg := int(rd.DecodeRawBits(3))
			if rd.Tell()+2 <= totalBits {
				pfTapset = rd.DecodeICDF(tapsetICDF[:], 2)
			}
			pfGain = 0.09375 * float32(qg+1)
		}
		tell = rd.Tell()
	}

	transient := false
	if lm > 0 && tell+3 <= totalBits {
		transient = rd.DecodeBitLogp(3) == 1
		tell = rd.Tell()
	}
	intra := false
	if tell+3 <= totalBits {
		intra = rd.DecodeBitLogp(3) == 1
	}
	decodeCoarseEnergy(rd, &st.oldBandE, start, end, intra, c, lm)

	var tfRes [MaxBands]int
	decodeTF(rd, start, end, transient, &tfRes, lm)

	tell = rd.Tell()
	spread := spreadNormal
	if tell+4 <= totalBits {
		spread = rd.DecodeICDF(spreadICDF[:], 5)
	}

	var caps, offsets [MaxBands]int
	initCaps(&caps, lm, c)

	dynallocLogp := 6
	totalBits <<= bitRes
	tellFrac := rd.TellFrac()
	for i := start; i < end; i++ {
		width := c * (eBands[i+1] - eBands[i]) << lm
		quanta := min(width<<bitRes, max(6<<bitRes, width))
		loopLogp := dynallocLogp
		boost := 0
		for tellFrac+(loopLogp<<bitRes) < totalBits && boost < caps[i] {
			flag := rd.DecodeBitLogp(uint(loopLogp))
			tellFrac = rd.TellFrac()
			if flag == 0 {
				break
			}
			boost += quanta
			totalBits -= quanta
			loopLogp = 1
		}
		offsets[i] = boost
		if boost > 0 {
			dynallocLogp = max(2, dynallocLogp-1)
		}
	}

	allocTrim := 5
	if tellFrac+(6<<bitRes) <= totalBits {
		allocTrim = rd.DecodeICDF(trimICDF[:], 7)
	}

	bits := (frameBytes * 8 << bitRes) - rd.TellFrac() - 1
	antiCollapseRsv := 0
	if transient && lm >= 2 && bits >= (lm+2)<<bitRes {
		antiCollapseRsv = 1 << bitRes
	}
	bits -= antiCollapseRsv

	a := &d.alloc
	computeAllocation(rd, a, start, end, &offsets, &caps, allocTrim, bits, c, lm)
	decodeFineEnergy(rd, &st.oldBandE, start, end, &a.fineQuant, c)

	for ch := 0; ch < cc; ch++ {
		mem := st.decodeMem[ch][:]
		copy(mem, mem[n:decodeBufferSize+Overlap/2])
	}

	x := d.x[:c*n]
	var y []float32
	if c == 2 {
		y = x[n:]
	}
	collapse := d.collapse[:c*MaxBands]
	bd := &d.bands
	bd.rd = rd
	bd.seed = st.rng
	bd.disableInv = d.disableInv
	err := bd.decodeAllBands(x[:n], y, &bandParams{
		start:       start,
		end:         end,
		lm:          lm,
		shortBlocks: transient,
		spread:      spread,
		tfRes:       &tfRes,
		totalBits:   frameBytes*(8<<bitRes) - antiCollapseRsv,
		alloc:       a,
		collapse:    collapse,
		channels:    c,
	})
	bd.rd = nil
	if err != nil {
		return err
	}
	st.rng = bd.seed

	antiCollapseOn := false
	if antiCollapseRsv > 0 {
		antiCollapseOn = rd.DecodeRawBits(1) == 1
	}
	decodeEnergyFinalise(rd, &st.oldBandE, start, end, &a.fineQuant, &a.finePriority, frameBytes*8-rd.Tell(), c)

	if antiCollapseOn {
		antiCollapse(x, collapse, lm, c, n, start, end, &st.oldBandE, &st.oldLogE, &st.oldLogE2, &a.pulses, st.rng)
	}

	if silence {
		for i := 0; i < c*MaxBands; i++ {
			st.oldBandE[i] = silenceLogLevel
		}
	}

	d.synthesis(x, start, effEnd, c, transient, lm, silence)

	for ch := 0; ch < cc; ch++ {
		st.postfilterPeriod = max(st.postfilterPeriod, minPeriod)
		st.postfilterPeriodOld = max(st.postfilterPeriodOld, minPeriod)
		syn := d.st.decodeMem[ch][:]
		off := decodeBufferSize - n
		combFilter(syn[off:], syn, off, st.postfilterPeriodOld, st.postfilterPeriod, ShortMDCTSize,
			st.postfilterGainOld, st.postfilterGain, st.postfilterTapsetOld, st.postfilterTapset, Overlap)
		if lm != 0 {
			off += ShortMDCTSize
			combFilter(syn[off:], syn, off, st.postfilterPeriod, pfPitch, n-ShortMDCTSize,
				st.postfilterGain, pfGain, st.postfilterTapset, pfTapset, Overlap)
		}
	}
	st.postfilterPeriodOld = st.postfilterPeriod
	st.postfilterGainOld = st.postfilterGain
	st.postfilterTapsetOld = st.postfilterTapset
	st.postfilterPeriod = pfPitch
	st.postfilterGain = pfGain
	st.postfilterTapset = pfTapset
	if lm != 0 {
		st.postfilterPeriodOld = st.postfilterPeriod
		st.postfilterGainOld = st.postfilterGain
		st.postfilterTapsetOld = st.postfilterTapset
	}

	if c == 1 {
		copy(st.oldBandE[MaxBands:], st.oldBandE[:MaxBands])
	}

	if !transient {
		st.oldLogE2 = st.oldLogE
		st.oldLogE = st.oldBandE
		// The noise floor may rise 2.4 dB/s normally, faster after a long loss.
		maxIncrease := float32(m) * 0.001
		if st.lossCount >= 10 {
			maxIncrease = 1
		}
		for i := range st.backgroundLogE {
			st.backgroundLogE[i] = min(st.backgroundLogE[i]+maxIncrease, st.oldBandE[i])
		}
	} else {
		for i := range st.oldLogE {
			st.oldLogE[i] = min(st.oldLogE[i], st.oldBandE[i])
		}
	}
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < start; i++ {
			st.oldBandE[ch*MaxBands+i] = 0
			st.oldLogE[ch*MaxBands+i] = silenceLogLevel
			st.oldLogE2[ch*MaxBands+i] = silenceLogLevel
		}
		for i := end; i < MaxBands; i++ {
			st.oldBandE[ch*MaxBands+i] = 0
			st.oldLogE[ch*MaxBands+i] = silenceLogLevel
			st.oldLogE2[ch*MaxBands+i] = silenceLogLevel
		}
	}
	st.rng = rd.FinalRange()
	st.lossCount = 0

	if err := rd.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if rd.Tell() > frameBytes*8 {
		return fmt.Errorf("%w: read %d bits from a %d byte frame", ErrMalformedFrame, rd.Tell(), frameBytes)
	}
	return nil
}

// decodeTF reads the per-band time/frequency resolution changes.
//
// Reference: libopus celt/celt_decoder.c tf_decode
func decodeTF(rd *rangecoding.Decoder, start, end int, transient bool, tfRes *[MaxBands]int, lm int) {
	budget := rd.StorageBits()
	tell := rd.Tell()
	logp := 4
	if transient {
		logp = 2
	}
	tfSelectRsv := 0
	if lm > 0 && tell+logp+1 <= budget {
		tfSelectRsv = 1
	}
	budget -= tfSelectRsv
	changed, curr := 0, 0
	for i := start; i < end; i++ {
		if tell+logp <= budget {
			curr ^= rd.DecodeBitLogp(uint(logp))
			tell = rd.Tell()
			changed |= curr
		}
		tfRes[i] = curr
		logp = 5
		if transient {
			logp = 4
		}
	}
	t := 4 * b2i(transient)
	tfSelect := 0
	if tfSelectRsv != 0 && tfSelectTable[lm][t+changed] != tfSelectTable[lm][t+2+changed] {
		tfSelect = rd.DecodeBitLogp(1)
	}
	for i := start; i < end; i++ {
		tfRes[i] = int(tfSelectTable[lm][t+2*tfSelect+tfRes[i]])
	}
}

// synthesis turns the decoded band shapes into time samples in decodeMem.
//
// Reference: libopus celt/celt_decoder.c celt_synthesis
func (d *Decoder) synthesis(x []float32, start, effEnd, c int, transient bool, lm int, silence bool) {
	st := &d.st
	cc := d.channels
	m := 1 << lm
	n := m * ShortMDCTSize
	b, nb, shift := 1, n, MaxLM-lm
	if transient {
		b, nb, shift = m, ShortMDCTSize, MaxLM
	}
	freq := d.freq[:n]
	imdct := func(ch int, spectrum []float32) {
		syn := d.outSyn(ch, n)
		for blk := 0; blk < b; blk++ {
			d.mdct.backward(spectrum[blk:], syn[nb*blk:], shift, b, d.fftBuf[:])
		}
	}

	switch {
	case cc == 2 && c == 1:
		denormaliseBands(x, freq, st.oldBandE[:], start, effEnd, m, d.downsample, silence)
		freq2 := d.freq[n : 2*n]
		copy(freq2, freq)
		imdct(0, freq2)
		imdct(1, freq)
	case cc == 1 && c == 2:
		freq2 := d.freq[n : 2*n]
		denormaliseBands(x, freq, st.oldBandE[:], start, effEnd, m, d.downsample, silence)
		denormaliseBands(x[n:], freq2, st.oldBandE[MaxBands:], start, effEnd, m, d.downsample, silence)
		for i := range freq {
			freq[i] = 0.5*freq[i] + 0.5*freq2[i]
		}
		imdct(0, freq)
	default:
		for ch := 0; ch < cc; ch++ {
			denormaliseBands(x[ch*n:], freq, st.oldBandE[ch*MaxBands:], start, effEnd, m, d.downsample, silence)
			imdct(ch, freq)
		}
	}
}

// deemphasis undoes the encoder's pre-emphasis, downsamples to the output
// rate and writes interleaved samples scaled to [-1, 1).
func (d *Decoder) deemphasis(n int, out []float32) {
	cc := d.channels
	ds := d.downsample
	for c := 0; c < cc; c++ {
		x := d.outSyn(c, n)
		m := d.st.preemphMem[c]
		if ds == 1 {
			for j := 0; j < n; j++ {
				tmp := x[j] + verySmall + m
				m = preemphCoef * tmp
				out[j*cc+c] = tmp * outputScale
			}
		} else {
			scratch := d.scratch[:n]
			for j := 0; j < n; j++ {
				tmp := x[j] + verySmall + m
				m = preemphCoef * tmp
				scratch[j] = tmp
			}
			for j := 0; j < n/ds; j++ {
				out[j*cc+c] = scratch[j*ds] * outputScale
			}
		}
		d.st.preemphMem[c] = m
	}
}
