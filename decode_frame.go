package opusnative

import (
	"fmt"

	"github.com/wavelane/opusnative/celt"
	"github.com/wavelane/opusnative/plc"
	"github.com/wavelane/opusnative/rangecoding"
	"github.com/wavelane/opusnative/silk"
)

// celtSilence is a two byte CELT frame with the silence flag set. Decoding
// it lets the MDCT overlap fade out when Hybrid gives way to SILK.
var celtSilence = [2]byte{0xFF, 0xFF}

// smoothFade cross-fades from in1 to in2 over overlap samples per channel
// with the squared CELT window.
func smoothFade(in1, in2, out []float32, overlap, channels, sampleRate int) {
	inc := 48000 / sampleRate
	win := celt.Window()
	for c := 0; c < channels; c++ {
		for i := 0; i < overlap; i++ {
			w := win[i*inc] * win[i*inc]
			k := i*channels + c
			out[k] = w*in2[k] + (1-w)*in1[k]
		}
	}
}

// decodeFrame decodes one frame of data into pcm, or conceals one when data
// holds at most a byte. frameSize bounds the output per channel. It returns
// the number of samples per channel produced.
//
// Reference: libopus src/opus_decoder.c opus_decode_frame
func (d *Decoder) decodeFrame(pcm []float32, data []byte, frameSize int, fec bool) (int, error) {
	fs := d.sampleRate
	f20 := fs / 50
	f10 := f20 / 2
	f5 := f10 / 2
	f2_5 := f5 / 2
	ch := d.channels
	h := &d.st.hist

	if frameSize < f2_5 {
		return 0, fmt.Errorf("%w: %d samples is less than 2.5 ms", ErrBufferTooSmall, frameSize)
	}
	frameSize = min(frameSize, fs/25*3)
	if len(data) <= 1 {
		data = nil
		last := h.FrameSize()
		if last == 0 {
			last = f2_5
		}
		frameSize = min(frameSize, last)
	}

	var (
		mode      Mode
		bandwidth Bandwidth
		audiosize int
	)
	if data != nil {
		audiosize = h.FrameSize()
		mode = h.Mode()
		bandwidth = h.Bandwidth()
		if err := d.rd.Init(data); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidPacket, err)
		}
	} else {
		audiosize = frameSize
		if !h.HasHistory() {
			clear(pcm[:audiosize*ch])
			return audiosize, nil
		}
		mode = h.ConcealMode()
		if audiosize > f20 {
			for n := 0; n < audiosize; {
				m, err := d.decodeFrame(pcm[n*ch:], nil, min(audiosize-n, f20), false)
				if err != nil {
					return 0, err
				}
				n += m
			}
			return audiosize, nil
		}
		audiosize = plc.ChunkSize(audiosize, fs, mode)
	}

	transition := false
	var pcmTransition []float32
	if data != nil && h.HasHistory() &&
		((mode == ModeCELT && h.PrevMode() != ModeCELT && !h.PrevRedundancy()) ||
			(mode != ModeCELT && h.PrevMode() == ModeCELT)) {
		transition = true
		d.log.Debug("mode transition", "from", h.PrevMode(), "to", mode)
		if mode == ModeCELT {
			var err error
			if pcmTransition, err = d.concealTransition(min(f5, audiosize)); err != nil {
				return 0, err
			}
		}
	}
	if audiosize > frameSize {
		return 0, fmt.Errorf("%w: frame of %d samples, room for %d", ErrBufferTooSmall, audiosize, frameSize)
	}
	frameSize = audiosize
	out := pcm[:frameSize*ch]

	streamChannels := 1
	if h.Stereo() {
		streamChannels = 2
	}

	var silkPCM []int16
	if mode != ModeCELT {
		silkPCM = d.silkPCM[:max(f10, frameSize)*ch]
		if err := d.decodeSILK(silkPCM, data, mode, bandwidth, streamChannels, frameSize, audiosize, fec); err != nil {
			return 0, err
		}
	}

	frameLen := len(data)
	redundancy, celtToSilk := false, false
	redundancyBytes := 0
	if !fec && mode != ModeCELT && data != nil {
		extra := 0
		if mode == ModeHybrid {
			extra = 20
		}
		if d.rd.Tell()+17+extra <= 8*frameLen {
			redundancy = mode != ModeHybrid || d.rd.DecodeBitLogp(12) == 1
			if redundancy {
				celtToSilk = d.rd.DecodeBitLogp(1) == 1
				if mode == ModeHybrid {
					redundancyBytes = int(d.rd.DecodeUniform(256)) + 2
				} else {
					redundancyBytes = frameLen - (d.rd.Tell()+7)>>3
				}
				frameLen -= redundancyBytes
				if frameLen*8 < d.rd.Tell() {
					frameLen, redundancyBytes, redundancy = 0, 0, false
				}
				d.rd.ShrinkStorage(redundancyBytes)
			}
		}
	}
	startBand := 0
	if mode != ModeCELT {
		startBand = 17
	}

	if redundancy {
		transition = false
		pcmTransition = nil
	}
	if transition && mode != ModeCELT {
		var err error
		if pcmTransition, err = d.concealTransition(min(f5, audiosize)); err != nil {
			return 0, err
		}
	}

	if data != nil {
		d.st.celtEnd = bandwidth.CELTEndBand()
	}
	d.celt.SetStreamChannels(streamChannels)

	var redundantRng uint32
	var redundant []float32
	if redundancy {
		redundant = d.redundant[:f5*ch]
	}
	if redundancy && celtToSilk {
		// Decoded even when the CELT history is stale so the final range
		// stays comparable.
		d.celt.SetBandRange(0, d.st.celtEnd)
		var err error
		if redundantRng, err = d.decodeRedundancy(data[frameLen:frameLen+redundancyBytes], redundant); err != nil {
			return 0, err
		}
	}

	d.celt.SetBandRange(startBand, d.st.celtEnd)
	if mode != ModeSILK {
		if h.HasHistory() && mode != h.PrevMode() && !h.PrevRedundancy() {
			d.celt.Reset()
		}
		var rd *rangecoding.Decoder
		if !fec && data != nil && frameLen > 1 {
			rd = &d.rd
		}
		if _, err := d.celt.DecodeFrame(rd, min(f20, frameSize), out); err != nil {
			return 0, codecError(err)
		}
	} else {
		clear(out)
		if h.HasHistory() && h.PrevMode() == ModeHybrid && !(redundancy && celtToSilk && h.PrevRedundancy()) {
			d.celt.SetBandRange(0, d.st.celtEnd)
			var srd rangecoding.Decoder
			if err := srd.Init(celtSilence[:]); err != nil {
				return 0, err
			}
			fade := d.fadeOut[:f2_5*ch]
			if _, err := d.celt.DecodeFrame(&srd, f2_5, fade); err != nil {
				return 0, codecError(err)
			}
			copy(out, fade)
		}
	}

	if mode != ModeCELT {
		for i := range out {
			out[i] += float32(silkPCM[i]) * (1.0 / 32768)
		}
	}

	if redundancy && !celtToSilk {
		d.celt.Reset()
		d.celt.SetBandRange(0, d.st.celtEnd)
		var err error
		if redundantRng, err = d.decodeRedundancy(data[frameLen:frameLen+redundancyBytes], redundant); err != nil {
			return 0, err
		}
		tail := out[ch*(frameSize-f2_5):]
		smoothFade(tail, redundant[ch*f2_5:], tail, f2_5, ch, fs)
	}
	if redundancy && celtToSilk && (!h.HasHistory() || h.PrevMode() != ModeSILK || h.PrevRedundancy()) {
		copy(out[:f2_5*ch], redundant[:f2_5*ch])
		smoothFade(redundant[ch*f2_5:], out[ch*f2_5:], out[ch*f2_5:], f2_5, ch, fs)
	}
	if transition {
		if audiosize >= f5 {
			copy(out[:f2_5*ch], pcmTransition[:f2_5*ch])
			smoothFade(pcmTransition[ch*f2_5:], out[ch*f2_5:], out[ch*f2_5:], f2_5, ch, fs)
		} else {
			smoothFade(pcmTransition, out, out, f2_5, ch, fs)
		}
	}

	if d.gainQ8 != 0 {
		for i := range out {
			out[i] *= d.gain
		}
	}

	if frameLen <= 1 {
		d.st.rangeFinal = 0
	} else {
		d.st.rangeFinal = d.rd.FinalRange() ^ redundantRng
	}

	if data == nil {
		if n := h.RecordLoss(mode); n == 1 || n%50 == 0 {
			d.log.Debug("concealing lost frame", "mode", mode, "samples", audiosize, "consecutive", n)
		}
	} else {
		h.RecordFrame(mode, redundancy && !celtToSilk)
	}
	return audiosize, nil
}

// decodeSILK runs the SILK layer over the frame, writing frameSize samples
// per channel (at least 10 ms) to out.
func (d *Decoder) decodeSILK(out []int16, data []byte, mode Mode, bw Bandwidth, streamChannels, frameSize, audiosize int, fec bool) error {
	h := &d.st.hist
	if h.HasHistory() && h.PrevMode() == ModeCELT {
		d.silk.Reset()
	}
	if data != nil {
		d.st.silkChannels = streamChannels
		d.st.silkRate = bw.SILKSampleRate()
		if mode == ModeHybrid {
			d.st.silkRate = 16000
		}
	}

	p := silk.FrameParams{
		APIChannels:        d.channels,
		StreamChannels:     max(d.st.silkChannels, 1),
		APISampleRate:      d.sampleRate,
		InternalSampleRate: d.st.silkRate,
		PayloadMs:          max(10, 1000*audiosize/d.sampleRate),
	}
	lost := silk.DecodeNormal
	rd := &d.rd
	switch {
	case data == nil:
		lost, rd = silk.PacketLost, nil
	case fec:
		lost = silk.DecodeLBRR
	}

	for decoded := 0; decoded < frameSize; {
		p.NewPacket = decoded == 0
		n, err := d.silk.DecodeFrame(rd, p, lost, out[decoded*d.channels:])
		if err != nil {
			if lost == silk.DecodeNormal {
				return codecError(err)
			}
			// Concealment and redundancy failures are not fatal.
			d.log.Debug("SILK concealment failed", "mode", lost, "err", err)
			clear(out[decoded*d.channels:])
			break
		}
		decoded += n
	}
	return nil
}

// concealTransition conceals n samples with the previous mode into the
// transition buffer.
func (d *Decoder) concealTransition(n int) ([]float32, error) {
	m, err := d.decodeFrame(d.transition[:], nil, n, false)
	if err != nil {
		return nil, err
	}
	return d.transition[:m*d.channels], nil
}

// decodeRedundancy decodes a 5 ms CELT redundancy frame into out and
// returns its final range.
func (d *Decoder) decodeRedundancy(data []byte, out []float32) (uint32, error) {
	if err := d.redRD.Init(data); err != nil {
		return 0, fmt.Errorf("%w: redundancy frame: %w", ErrInvalidPacket, err)
	}
	if _, err := d.celt.DecodeFrame(&d.redRD, d.sampleRate/200, out); err != nil {
		return 0, codecError(err)
	}
	return d.redRD.FinalRange(), nil
}
