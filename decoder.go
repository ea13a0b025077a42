// decoder.go implements the public Decoder API.

package opusnative

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/wavelane/opusnative/celt"
	"github.com/wavelane/opusnative/plc"
	"github.com/wavelane/opusnative/rangecoding"
	"github.com/wavelane/opusnative/silk"
)

// Option configures a Decoder.
type Option func(*options)

type options struct {
	logger *slog.Logger
	gainQ8 int
}

// WithLogger sets the logger for concealment, mode transitions and
// contained decode errors. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGain applies an output gain in dB, Q8 (256 = +1 dB), between -32768
// and 32767.
func WithGain(q8 int) Option {
	return func(o *options) { o.gainQ8 = q8 }
}

// decoderState is the Opus-layer state that persists across packets.
type decoderState struct {
	hist               plc.State
	silkRate           int // SILK internal rate of the last SILK or Hybrid packet
	silkChannels       int
	celtEnd            int
	rangeFinal         uint32
	lastPacketDuration int
	softClipMem        [2]float32
}

type snapshot struct {
	silk silk.Snapshot
	celt celt.Snapshot
	st   decoderState
}

// Decoder decodes Opus packets into interleaved PCM.
//
// A Decoder keeps prediction and overlap history between packets and is not
// safe for concurrent use. Decoders share no mutable state.
type Decoder struct {
	sampleRate int
	channels   int
	log        *slog.Logger
	gainQ8     int
	gain       float32

	silk *silk.Decoder
	celt *celt.Decoder
	st   decoderState
	snap snapshot

	rd     rangecoding.Decoder
	redRD  rangecoding.Decoder
	frames [maxPacketFrames][]byte

	silkPCM    [2880 * 2]int16 // 60 ms at 48 kHz, stereo
	transition [240 * 2]float32
	redundant  [240 * 2]float32
	fadeOut    [120 * 2]float32
	pcm32      [maxPacketDuration * 2]float32
}

// NewDecoder returns a decoder producing sampleRate Hz audio with the given
// number of channels.
func NewDecoder(sampleRate, channels int, opts ...Option) (*Decoder, error) {
	if !validSampleRate(sampleRate) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.gainQ8 < -32768 || o.gainQ8 > 32767 {
		return nil, fmt.Errorf("%w: gain %d outside [-32768, 32767]", ErrUnsupportedConfiguration, o.gainQ8)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	cd, err := celt.NewDecoder(channels)
	if err != nil {
		return nil, err
	}
	cd.SetDownsample(48000 / sampleRate)

	d := &Decoder{
		sampleRate: sampleRate,
		channels:   channels,
		log:        o.logger,
		gainQ8:     o.gainQ8,
		gain:       float32(math.Exp(0.6931471805599453094 * float64(float32(6.48814081e-4)*float32(o.gainQ8)))),
		silk:       silk.NewDecoder(),
		celt:       cd,
	}
	d.Reset()
	return d, nil
}

// Reset returns the decoder to the state of a fresh stream.
func (d *Decoder) Reset() {
	d.silk.Reset()
	d.celt.Reset()
	d.st = decoderState{celtEnd: celt.MaxBands}
}

// SampleRate returns the output rate in Hz.
func (d *Decoder) SampleRate() int { return d.sampleRate }

// Channels returns the number of output channels.
func (d *Decoder) Channels() int { return d.channels }

// FinalRange returns the range coder state after the last decoded frame,
// for comparison with the encoder's. It is 0 after a concealed frame.
func (d *Decoder) FinalRange() uint32 { return d.st.rangeFinal }

// LastPacketDuration returns the number of samples per channel produced by
// the last Decode call.
func (d *Decoder) LastPacketDuration() int { return d.st.lastPacketDuration }

// Bandwidth returns the bandwidth of the last accepted packet.
func (d *Decoder) Bandwidth() Bandwidth { return d.st.hist.Bandwidth() }

func (d *Decoder) save() {
	d.silk.SaveState(&d.snap.silk)
	d.celt.SaveState(&d.snap.celt)
	d.snap.st = d.st
}

func (d *Decoder) restore() {
	d.silk.RestoreState(&d.snap.silk)
	d.celt.RestoreState(&d.snap.celt)
	d.st = d.snap.st
}

// Decode decodes packet into pcm, interleaved, and returns the number of
// samples per channel written. frameSize caps the output per channel; pcm
// must hold frameSize*Channels() samples.
//
// A nil or empty packet is a loss: frameSize samples, a multiple of 2.5 ms,
// are concealed from the decoder history. With fec set, the packet after a
// loss is used to recover it from the in-band redundancy it carries; the
// packet itself must then be decoded again with fec unset.
//
// When a frame turns out to be malformed the decoder rolls back to its
// state before the packet and conceals it instead. Decode then returns the
// concealed sample count together with ErrMalformedSilkFrame or
// ErrMalformedCeltFrame: consume the n samples before looking at err.
// Any other error leaves the decoder untouched and returns 0.
func (d *Decoder) Decode(packet []byte, pcm []float32, frameSize int, fec bool) (int, error) {
	return d.decode(packet, pcm, frameSize, fec, false)
}

// DecodeInt16 is Decode with 16-bit output. Samples beyond full scale are
// soft clipped before conversion.
func (d *Decoder) DecodeInt16(packet []byte, pcm []int16, frameSize int, fec bool) (int, error) {
	if frameSize <= 0 {
		return 0, fmt.Errorf("%w: frame size %d", ErrBufferTooSmall, frameSize)
	}
	frameSize = min(frameSize, maxPacketDuration*d.sampleRate/48000)
	if len(packet) > 0 && !fec {
		n, err := PacketSamples(packet, d.sampleRate)
		if err != nil {
			return 0, err
		}
		frameSize = min(frameSize, n)
	}
	if len(pcm) < frameSize*d.channels {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, frameSize*d.channels, len(pcm))
	}

	buf := d.pcm32[:frameSize*d.channels]
	n, err := d.decode(packet, buf, frameSize, fec, true)
	for i, v := range buf[:n*d.channels] {
		pcm[i] = float32ToInt16(v)
	}
	return n, err
}

func (d *Decoder) decode(packet []byte, pcm []float32, frameSize int, fec, softClip bool) (int, error) {
	if frameSize <= 0 {
		return 0, fmt.Errorf("%w: frame size %d", ErrBufferTooSmall, frameSize)
	}
	lost := len(packet) == 0
	if (lost || fec) && frameSize%(d.sampleRate/400) != 0 {
		return 0, fmt.Errorf("%w: %d samples is not a multiple of 2.5 ms", ErrUnsupportedConfiguration, frameSize)
	}
	if lost {
		if len(pcm) < frameSize*d.channels {
			return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, frameSize*d.channels, len(pcm))
		}
		d.save()
		n, err := d.decodeLoss(pcm, frameSize)
		if err != nil {
			d.restore()
			return 0, err
		}
		return n, nil
	}

	toc, count, _, err := parseFrames(packet, &d.frames)
	if err != nil {
		return 0, err
	}

	d.save()
	var n int
	if fec {
		n, err = d.decodeFEC(toc, pcm, frameSize)
	} else {
		n, err = d.decodeFrames(toc, count, pcm, frameSize, softClip)
	}
	if err == nil {
		return n, nil
	}

	d.restore()
	if !errors.Is(err, ErrMalformedSilkFrame) && !errors.Is(err, ErrMalformedCeltFrame) {
		return 0, err
	}
	dur := frameSize
	if !fec {
		dur = min(frameSize, count*toc.SamplesPerFrame(d.sampleRate))
	}
	d.log.Warn("concealing malformed packet", "mode", toc.Mode, "samples", dur, "err", err)
	n, cerr := d.decodeLoss(pcm, dur)
	if cerr != nil {
		d.restore()
		return 0, err
	}
	return n, err
}

// decodeLoss conceals frameSize samples per channel.
func (d *Decoder) decodeLoss(pcm []float32, frameSize int) (int, error) {
	n := 0
	for n < frameSize {
		m, err := d.decodeFrame(pcm[n*d.channels:], nil, frameSize-n, false)
		if err != nil {
			return 0, err
		}
		n += m
	}
	d.st.lastPacketDuration = n
	return n, nil
}

// decodeFEC recovers the frame before packet from its LBRR data, concealing
// whatever part of frameSize the redundancy does not cover.
func (d *Decoder) decodeFEC(toc TOC, pcm []float32, frameSize int) (int, error) {
	packetFrameSize := toc.SamplesPerFrame(d.sampleRate)
	if frameSize < packetFrameSize || toc.Mode == ModeCELT || d.st.hist.Mode() == ModeCELT {
		if len(pcm) < frameSize*d.channels {
			return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, frameSize*d.channels, len(pcm))
		}
		return d.decodeLoss(pcm, frameSize)
	}
	if len(pcm) < frameSize*d.channels {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, frameSize*d.channels, len(pcm))
	}

	gap := frameSize - packetFrameSize
	if gap > 0 {
		if _, err := d.decodeLoss(pcm, gap); err != nil {
			return 0, err
		}
	}
	d.st.hist.RecordPacket(toc.Mode, toc.Bandwidth, packetFrameSize, toc.Stereo)
	if _, err := d.decodeFrame(pcm[gap*d.channels:], d.frames[0], packetFrameSize, true); err != nil {
		return 0, err
	}
	d.st.lastPacketDuration = frameSize
	return frameSize, nil
}

func (d *Decoder) decodeFrames(toc TOC, count int, pcm []float32, frameSize int, softClip bool) (int, error) {
	packetFrameSize := toc.SamplesPerFrame(d.sampleRate)
	total := count * packetFrameSize
	if total > frameSize || len(pcm) < total*d.channels {
		return 0, fmt.Errorf("%w: packet decodes to %d samples per channel", ErrBufferTooSmall, total)
	}

	d.st.hist.RecordPacket(toc.Mode, toc.Bandwidth, packetFrameSize, toc.Stereo)
	n := 0
	for i := 0; i < count; i++ {
		m, err := d.decodeFrame(pcm[n*d.channels:], d.frames[i], frameSize-n, false)
		if err != nil {
			return 0, fmt.Errorf("frame %d: %w", i, err)
		}
		n += m
	}
	d.st.lastPacketDuration = n

	if softClip {
		softClipPCM(pcm[:n*d.channels], d.channels, &d.st.softClipMem)
	} else {
		d.st.softClipMem = [2]float32{}
	}
	return n, nil
}
