// Package silk implements the SILK layer of the Opus decoder (RFC 6716
// Section 4.2): linear prediction with noise-feedback excitation, decoded in
// fixed point so the output matches libopus sample for sample.
//
// A Decoder holds the state of both coded channels together with the
// mid/side unmixing state and the resamplers to the output rate.
package silk

import (
	"errors"
	"fmt"

	"github.com/wavelane/opusnative/rangecoding"
)

var (
	// ErrMalformedFrame reports a SILK frame whose parameters cannot come
	// from a conforming encoder: crossed LSFs, a pitch lag outside the
	// allowed range or a synthesis filter that stays unstable.
	ErrMalformedFrame = errors.New("silk: malformed frame")

	// ErrInvalidSampleRate reports an internal or output rate SILK does
	// not support.
	ErrInvalidSampleRate = errors.New("silk: invalid sample rate")

	// ErrInvalidFrameSize reports a payload duration other than 10, 20, 40
	// or 60 ms.
	ErrInvalidFrameSize = errors.New("silk: invalid frame size")

	// ErrBufferTooSmall reports an output slice that cannot hold the frame.
	ErrBufferTooSmall = errors.New("silk: output buffer too small")
)

const (
	maxNbSubfr         = 4
	subFrameLengthMs   = 5
	ltpMemLengthMs     = 20
	maxFsKHz           = 16
	maxFrameLength     = 20 * maxFsKHz
	maxSubFrameLength  = subFrameLengthMs * maxFsKHz
	maxLTPMemLength    = ltpMemLengthMs * maxFsKHz
	maxLPCOrder        = 16
	minLPCOrder        = 10
	ltpOrder           = 5
	maxFramesPerPacket = 3
	maxAPIFsHz         = 48000

	nLevelsQGain      = 64
	minDeltaGainQuant = -4
	maxDeltaGainQuant = 36

	nlsfQuantMaxAmplitude = 4
	nlsfQuantLevelAdjQ10  = 102
	quantLevelAdjustQ10   = 80
	lsfCosTabSize         = 128

	maxPulses                 = 16
	nRateLevels               = 10
	shellCodecFrameLength     = 16
	log2ShellCodecFrameLength = 4

	stereoQuantTabSize  = 16
	stereoQuantSubSteps = 5
	stereoInterpLenMs   = 8

	peMinLagMs = 2
	peMaxLagMs = 18

	offsetVLQ10  = 32
	offsetVHQ10  = 100
	offsetUVLQ10 = 100
	offsetUVHQ10 = 240

	bweAfterLossQ16 = 63570 // 0.97
)

// Signal types.
const (
	typeNoVoiceActivity = 0
	typeUnvoiced        = 1
	typeVoiced          = 2
)

// Conditional coding modes.
const (
	codeIndependently             = 0
	codeIndependentlyNoLTPScaling = 1
	codeConditionally             = 2
)

// LossMode selects how DecodeFrame treats the current frame.
type LossMode int

const (
	// DecodeNormal decodes the regular frame and skips any LBRR data.
	DecodeNormal LossMode = iota
	// PacketLost conceals the frame from the decoder history.
	PacketLost
	// DecodeLBRR decodes the low bit-rate redundancy copy carried in the
	// packet instead of the regular frame, concealing frames without one.
	DecodeLBRR
)

func (m LossMode) String() string {
	switch m {
	case DecodeNormal:
		return "normal"
	case PacketLost:
		return "lost"
	case DecodeLBRR:
		return "lbrr"
	}
	return fmt.Sprintf("LossMode(%d)", int(m))
}

// FrameParams describes the stream around one SILK frame.
type FrameParams struct {
	APIChannels        int // output channels
	StreamChannels     int // coded channels
	APISampleRate      int // output rate in Hz
	InternalSampleRate int // 8000, 12000 or 16000
	PayloadMs          int // 10, 20, 40 or 60; 0 on loss
	NewPacket          bool
}

// sideInfo holds the quantization indices of one frame.
type sideInfo struct {
	gainsIndices     [maxNbSubfr]int8
	ltpIndex         [maxNbSubfr]int8
	nlsfIndices      [maxLPCOrder + 1]int8
	lagIndex         int16
	contourIndex     int8
	signalType       int8
	quantOffsetType  int8
	nlsfInterpCoefQ2 int8
	perIndex         int8
	ltpScaleIndex    int8
	seed             int8
}

// frameControl holds the dequantized parameters of one frame.
type frameControl struct {
	pitchL      [maxNbSubfr]int
	gainsQ16    [maxNbSubfr]int32
	predCoefQ12 [2][maxLPCOrder]int16
	ltpCoefQ14  [ltpOrder * maxNbSubfr]int16
	ltpScaleQ14 int32
}

// channelState is the per-channel decoder state.
type channelState struct {
	prevGainQ16  int32
	excQ14       [maxFrameLength]int32
	sLPCQ14Buf   [maxLPCOrder]int32
	outBuf       [maxFrameLength + 2*maxSubFrameLength]int16
	lagPrev      int
	lastGainIdx  int8
	fsKHz        int
	fsAPIHz      int
	nbSubfr      int
	frameLength  int
	subfrLength  int
	ltpMemLength int
	lpcOrder     int
	prevNLSFQ15  [maxLPCOrder]int16

	firstFrameAfterReset bool

	pitchLagLowBitsICDF []uint8
	pitchContourICDF    []uint8
	nlsfCB              *nlsfCodebook

	nFramesDecoded   int
	nFramesPerPacket int
	ecPrevSignalType int
	ecPrevLagIndex   int16
	vadFlags         [maxFramesPerPacket]bool
	lbrrFlag         bool
	lbrrFlags        [maxFramesPerPacket]bool

	indices        sideInfo
	lossCnt        int
	prevSignalType int

	plc       plcState
	cng       cngState
	resampler resamplerState
}

// stereoState carries the mid/side unmixing memory.
type stereoState struct {
	predPrevQ13 [2]int32
	sMid        [2]int16
	sSide       [2]int16
}

// state is everything that persists between frames. Slices in it only
// point at read-only tables, so a plain assignment snapshots it.
type state struct {
	ch                   [2]channelState
	stereo               stereoState
	nChannelsAPI         int
	nChannelsInternal    int
	prevDecodeOnlyMiddle bool
}

// Snapshot holds a copy of a decoder's persistent state.
type Snapshot struct {
	s state
}

// Decoder decodes SILK frames for one Opus stream. It is not safe for
// concurrent use.
type Decoder struct {
	st state

	ctrl     frameControl
	pulses   [maxFrameLength]int16
	mid      [2][maxFrameLength + 2]int16
	resample [20 * maxAPIFsHz / 1000]int16
}

// NewDecoder returns a decoder in its reset state.
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.Reset()
	return d
}

// Reset returns the decoder to its initial state.
func (d *Decoder) Reset() {
	d.st = state{}
	for i := range d.st.ch {
		d.st.ch[i].init()
	}
}

// SaveState copies the persistent state into s.
func (d *Decoder) SaveState(s *Snapshot) { s.s = d.st }

// RestoreState rolls the decoder back to a saved state.
func (d *Decoder) RestoreState(s *Snapshot) { d.st = s.s }

// PrevPitchLag returns the pitch lag of the last frame at 48 kHz, or 0 when
// it was not voiced.
func (d *Decoder) PrevPitchLag() int {
	ch := &d.st.ch[0]
	if ch.prevSignalType != typeVoiced || ch.fsKHz == 0 {
		return 0
	}
	return ch.lagPrev * 48 / ch.fsKHz
}

// LBRRPresent reports whether the packet currently being decoded carries
// redundancy for its first frame. Valid after the first DecodeFrame call of
// the packet.
func (d *Decoder) LBRRPresent() bool {
	return d.st.ch[0].lbrrFlags[0]
}

func (c *channelState) init() {
	*c = channelState{}
	c.firstFrameAfterReset = true
	c.prevGainQ16 = 1 << 16
	c.resetCNG()
	c.resetPLC()
}

// setSampleRate configures the channel for an internal rate and output
// rate, clearing the history when the internal rate changes.
func (c *channelState) setSampleRate(fsKHz, fsAPIHz int) error {
	c.subfrLength = subFrameLengthMs * fsKHz
	frameLength := c.nbSubfr * c.subfrLength

	if c.fsKHz != fsKHz || c.fsAPIHz != fsAPIHz {
		if err := c.resampler.init(fsKHz*1000, fsAPIHz); err != nil {
			return err
		}
		c.fsAPIHz = fsAPIHz
	}

	if c.fsKHz != fsKHz || frameLength != c.frameLength {
		switch {
		case fsKHz == 8 && c.nbSubfr == maxNbSubfr:
			c.pitchContourICDF = pitchContourNBICDF
		case fsKHz == 8:
			c.pitchContourICDF = pitchContour10msNBICDF
		case c.nbSubfr == maxNbSubfr:
			c.pitchContourICDF = pitchContourICDF
		default:
			c.pitchContourICDF = pitchContour10msICDF
		}
		if c.fsKHz != fsKHz {
			c.ltpMemLength = ltpMemLengthMs * fsKHz
			if fsKHz == 16 {
				c.lpcOrder = maxLPCOrder
				c.nlsfCB = &nlsfCBWB
			} else {
				c.lpcOrder = minLPCOrder
				c.nlsfCB = &nlsfCBNBMB
			}
			switch fsKHz {
			case 16:
				c.pitchLagLowBitsICDF = uniform8ICDF
			case 12:
				c.pitchLagLowBitsICDF = uniform6ICDF
			default:
				c.pitchLagLowBitsICDF = uniform4ICDF
			}
			c.firstFrameAfterReset = true
			c.lagPrev = 100
			c.lastGainIdx = 10
			c.prevSignalType = typeNoVoiceActivity
			clear(c.outBuf[:])
			clear(c.sLPCQ14Buf[:])
		}
		c.fsKHz = fsKHz
		c.frameLength = frameLength
	}
	return nil
}

// DecodeFrame decodes one SILK frame (10 or 20 ms) of the current packet
// and writes it to out at the API rate, interleaved when p.APIChannels is
// 2. rd may be nil when lost is PacketLost. It returns the number of
// samples per channel written.
//
// Reference: libopus silk/dec_API.c silk_Decode
func (d *Decoder) DecodeFrame(rd *rangecoding.Decoder, p FrameParams, lost LossMode, out []int16) (int, error) {
	st := &d.st
	ch := &st.ch

	if p.APISampleRate < 8000 || p.APISampleRate > maxAPIFsHz {
		return 0, fmt.Errorf("%w: output %d Hz", ErrInvalidSampleRate, p.APISampleRate)
	}
	if rd == nil && lost != PacketLost {
		lost = PacketLost
	}

	if p.NewPacket {
		for n := 0; n < p.StreamChannels; n++ {
			ch[n].nFramesDecoded = 0
		}
	}

	if p.StreamChannels > st.nChannelsInternal {
		ch[1].init()
	}

	stereoToMono := p.StreamChannels == 1 && st.nChannelsInternal == 2 &&
		p.InternalSampleRate == 1000*ch[0].fsKHz

	if ch[0].nFramesDecoded == 0 {
		for n := 0; n < p.StreamChannels; n++ {
			switch p.PayloadMs {
			case 0, 10:
				ch[n].nFramesPerPacket = 1
				ch[n].nbSubfr = 2
			case 20:
				ch[n].nFramesPerPacket = 1
				ch[n].nbSubfr = 4
			case 40:
				ch[n].nFramesPerPacket = 2
				ch[n].nbSubfr = 4
			case 60:
				ch[n].nFramesPerPacket = 3
				ch[n].nbSubfr = 4
			default:
				return 0, fmt.Errorf("%w: %d ms", ErrInvalidFrameSize, p.PayloadMs)
			}
			fsKHz := (p.InternalSampleRate >> 10) + 1
			if fsKHz != 8 && fsKHz != 12 && fsKHz != 16 {
				return 0, fmt.Errorf("%w: internal %d Hz", ErrInvalidSampleRate, p.InternalSampleRate)
			}
			if err := ch[n].setSampleRate(fsKHz, p.APISampleRate); err != nil {
				return 0, err
			}
		}
	}

	if p.APIChannels == 2 && p.StreamChannels == 2 && (st.nChannelsAPI == 1 || st.nChannelsInternal == 1) {
		st.stereo.predPrevQ13 = [2]int32{}
		st.stereo.sSide = [2]int16{}
		ch[1].resampler = ch[0].resampler
	}
	st.nChannelsAPI = p.APIChannels
	st.nChannelsInternal = p.StreamChannels

	if lost != PacketLost && ch[0].nFramesDecoded == 0 {
		d.decodePacketHeader(rd, p.StreamChannels, lost)
	}

	var msPredQ13 [2]int32
	decodeOnlyMiddle := false
	frame := ch[0].nFramesDecoded
	if p.StreamChannels == 2 {
		if lost == DecodeNormal || (lost == DecodeLBRR && ch[0].lbrrFlags[frame]) {
			msPredQ13 = decodeStereoPred(rd)
			if (lost == DecodeNormal && !ch[1].vadFlags[frame]) ||
				(lost == DecodeLBRR && !ch[1].lbrrFlags[frame]) {
				decodeOnlyMiddle = rd.DecodeICDF(stereoOnlyCodeMidICDF, 8) == 1
			}
		} else {
			msPredQ13 = st.stereo.predPrevQ13
		}
	}

	// First frame with side coding after mid-only frames starts the side
	// channel from scratch.
	if p.StreamChannels == 2 && !decodeOnlyMiddle && st.prevDecodeOnlyMiddle {
		c := &ch[1]
		clear(c.outBuf[:])
		clear(c.sLPCQ14Buf[:])
		c.lagPrev = 100
		c.lastGainIdx = 10
		c.prevSignalType = typeNoVoiceActivity
		c.firstFrameAfterReset = true
	}

	var hasSide bool
	if lost == DecodeNormal {
		hasSide = !decodeOnlyMiddle
	} else {
		hasSide = !st.prevDecodeOnlyMiddle ||
			(p.StreamChannels == 2 && lost == DecodeLBRR && ch[1].lbrrFlags[ch[1].nFramesDecoded])
	}

	nSamples := ch[0].frameLength
	for n := 0; n < p.StreamChannels; n++ {
		buf := d.mid[n][2 : 2+nSamples]
		if n == 0 || hasSide {
			frameIndex := ch[0].nFramesDecoded - n
			var condCoding int
			switch {
			case frameIndex <= 0:
				condCoding = codeIndependently
			case lost == DecodeLBRR:
				if ch[n].lbrrFlags[frameIndex-1] {
					condCoding = codeConditionally
				} else {
					condCoding = codeIndependently
				}
			case n > 0 && st.prevDecodeOnlyMiddle:
				condCoding = codeIndependentlyNoLTPScaling
			default:
				condCoding = codeConditionally
			}
			if err := d.decodeChannelFrame(&ch[n], rd, buf, lost, condCoding); err != nil {
				return 0, err
			}
		} else {
			clear(buf)
		}
		ch[n].nFramesDecoded++
	}

	if p.APIChannels == 2 && p.StreamChannels == 2 {
		st.stereo.msToLR(d.mid[0][:nSamples+2], d.mid[1][:nSamples+2], msPredQ13, ch[0].fsKHz, nSamples)
	} else {
		copy(d.mid[0][:2], st.stereo.sMid[:])
		copy(st.stereo.sMid[:], d.mid[0][nSamples:nSamples+2])
	}

	nOut := nSamples * p.APISampleRate / (ch[0].fsKHz * 1000)
	if len(out) < nOut*p.APIChannels {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, nOut*p.APIChannels, len(out))
	}

	tmp := d.resample[:nOut]
	for n := 0; n < min(p.APIChannels, p.StreamChannels); n++ {
		dst := out[:nOut]
		if p.APIChannels == 2 {
			dst = tmp
		}
		ch[n].resampler.process(dst, d.mid[n][1:1+nSamples])
		if p.APIChannels == 2 {
			for i, v := range tmp {
				out[n+2*i] = v
			}
		}
	}

	if p.APIChannels == 2 && p.StreamChannels == 1 {
		if stereoToMono {
			ch[1].resampler.process(tmp, d.mid[0][1:1+nSamples])
			for i, v := range tmp {
				out[1+2*i] = v
			}
		} else {
			for i := 0; i < nOut; i++ {
				out[1+2*i] = out[2*i]
			}
		}
	}

	if lost == PacketLost {
		// Gains are free to move after a loss so the energy does not bounce
		// back up.
		for i := 0; i < st.nChannelsInternal; i++ {
			ch[i].lastGainIdx = 10
		}
	} else {
		st.prevDecodeOnlyMiddle = decodeOnlyMiddle
	}
	return nOut, nil
}

// decodePacketHeader reads the VAD and LBRR flags at the start of a packet
// and, for regular decoding, skips over the LBRR frames.
func (d *Decoder) decodePacketHeader(rd *rangecoding.Decoder, channels int, lost LossMode) {
	ch := &d.st.ch
	for n := 0; n < channels; n++ {
		for i := 0; i < ch[n].nFramesPerPacket; i++ {
			ch[n].vadFlags[i] = rd.DecodeBitLogp(1) == 1
		}
		ch[n].lbrrFlag = rd.DecodeBitLogp(1) == 1
	}
	for n := 0; n < channels; n++ {
		ch[n].lbrrFlags = [maxFramesPerPacket]bool{}
		if !ch[n].lbrrFlag {
			continue
		}
		if ch[n].nFramesPerPacket == 1 {
			ch[n].lbrrFlags[0] = true
			continue
		}
		sym := rd.DecodeICDF(lbrrFlagsICDF[ch[n].nFramesPerPacket-2], 8) + 1
		for i := 0; i < ch[n].nFramesPerPacket; i++ {
			ch[n].lbrrFlags[i] = (sym>>i)&1 == 1
		}
	}

	if lost != DecodeNormal {
		return
	}
	for i := 0; i < ch[0].nFramesPerPacket; i++ {
		for n := 0; n < channels; n++ {
			if !ch[n].lbrrFlags[i] {
				continue
			}
			if channels == 2 && n == 0 {
				decodeStereoPred(rd)
				if !ch[1].lbrrFlags[i] {
					rd.DecodeICDF(stereoOnlyCodeMidICDF, 8)
				}
			}
			condCoding := codeIndependently
			if i > 0 && ch[n].lbrrFlags[i-1] {
				condCoding = codeConditionally
			}
			ch[n].decodeIndices(rd, i, true, condCoding)
			decodePulses(rd, d.pulses[:], int(ch[n].indices.signalType),
				int(ch[n].indices.quantOffsetType), ch[n].frameLength)
		}
	}
}

// decodeChannelFrame decodes or conceals one frame of one channel into out.
//
// Reference: libopus silk/decode_frame.c
func (d *Decoder) decodeChannelFrame(c *channelState, rd *rangecoding.Decoder, out []int16, lost LossMode, condCoding int) error {
	ctrl := &d.ctrl
	*ctrl = frameControl{}
	n := c.frameLength

	if lost == DecodeNormal || (lost == DecodeLBRR && c.lbrrFlags[c.nFramesDecoded]) {
		c.decodeIndices(rd, c.nFramesDecoded, lost == DecodeLBRR, condCoding)
		decodePulses(rd, d.pulses[:], int(c.indices.signalType), int(c.indices.quantOffsetType), n)
		if err := c.decodeParameters(ctrl, condCoding); err != nil {
			return err
		}
		c.decodeCore(ctrl, out, d.pulses[:])
		c.runPLC(ctrl, out, false)
		c.lossCnt = 0
		c.prevSignalType = int(c.indices.signalType)
		c.firstFrameAfterReset = false
	} else {
		c.indices.signalType = int8(c.prevSignalType)
		c.runPLC(ctrl, out, true)
	}

	mv := c.ltpMemLength - n
	copy(c.outBuf[:mv], c.outBuf[n:n+mv])
	copy(c.outBuf[mv:mv+n], out)

	c.applyCNG(ctrl, out)
	c.glueFrames(out)

	c.lagPrev = ctrl.pitchL[c.nbSubfr-1]
	return nil
}
