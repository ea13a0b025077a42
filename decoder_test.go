package opusnative

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var sampleRates = []int{8000, 12000, 16000, 24000, 48000}

func newTestDecoder(t *testing.T, sampleRate, channels int, opts ...Option) *Decoder {
	t.Helper()
	d, err := NewDecoder(sampleRate, channels, opts...)
	if err != nil {
		t.Fatalf("NewDecoder(%d, %d): %v", sampleRate, channels, err)
	}
	return d
}

// randomPackets returns count single-frame packets with random payloads,
// drawing the configuration from configs. A nil entry is a lost packet when
// lossEvery is positive.
func randomPackets(seed uint64, configs []int, count, lossEvery int) [][]byte {
	r := rand.New(rand.NewPCG(seed, seed^0x2545f491))
	packets := make([][]byte, count)
	for i := range packets {
		if lossEvery > 0 && i%lossEvery == lossEvery-1 {
			continue
		}
		p := make([]byte, 1+4+r.IntN(120))
		p[0] = byte(configs[r.IntN(len(configs))] << 3)
		if r.IntN(2) == 1 {
			p[0] |= 0x04
		}
		for j := 1; j < len(p); j++ {
			p[j] = byte(r.Uint32())
		}
		packets[i] = p
	}
	return packets
}

func configRange(lo, hi int) []int {
	var c []int
	for i := lo; i <= hi; i++ {
		c = append(c, i)
	}
	return c
}

type decodeResult struct {
	N   int
	PCM []float32
	Err string
}

// decodeSequence decodes packets in order, concealing 20 ms for each nil
// entry.
func decodeSequence(t *testing.T, d *Decoder, packets [][]byte) []decodeResult {
	t.Helper()
	maxSamples := maxPacketDuration * d.SampleRate() / 48000
	results := make([]decodeResult, len(packets))
	for i, p := range packets {
		frameSize := maxSamples
		if p == nil {
			frameSize = d.SampleRate() / 50
		}
		pcm := make([]float32, frameSize*d.Channels())
		n, err := d.Decode(p, pcm, frameSize, false)
		results[i] = decodeResult{N: n, PCM: pcm[:n*d.Channels()]}
		if err != nil {
			results[i].Err = err.Error()
		}
		checkResult(t, i, p, d, n, err)
	}
	return results
}

// checkResult verifies the error taxonomy and the sample count of one
// Decode call.
func checkResult(t *testing.T, i int, p []byte, d *Decoder, n int, err error) {
	t.Helper()
	want := d.SampleRate() / 50
	if p != nil {
		var perr error
		if want, perr = PacketSamples(p, d.SampleRate()); perr != nil {
			t.Fatalf("packet %d: PacketSamples: %v", i, perr)
		}
	}
	switch {
	case err == nil, errors.Is(err, ErrMalformedSilkFrame), errors.Is(err, ErrMalformedCeltFrame):
		if n != want {
			t.Fatalf("packet %d: Decode = %d samples (err %v), want %d", i, n, err, want)
		}
	case errors.Is(err, ErrTruncatedPacket), errors.Is(err, ErrInvalidPacket):
		if n != 0 {
			t.Fatalf("packet %d: Decode = %d samples with %v", i, n, err)
		}
	default:
		t.Fatalf("packet %d: unexpected error %v", i, err)
	}
}

func allZero(pcm []float32) bool {
	for _, v := range pcm {
		if v != 0 {
			return false
		}
	}
	return true
}

// inaudible reports whether every sample is below the denormal guard the
// CELT de-emphasis filter adds.
func inaudible(pcm []float32) bool {
	for _, v := range pcm {
		if math.Abs(float64(v)) > 1e-20 {
			return false
		}
	}
	return true
}

func TestNewDecoderValidation(t *testing.T) {
	for _, rate := range sampleRates {
		for _, channels := range []int{1, 2} {
			d := newTestDecoder(t, rate, channels)
			if d.SampleRate() != rate || d.Channels() != channels {
				t.Errorf("decoder reports %d Hz %d ch, want %d Hz %d ch", d.SampleRate(), d.Channels(), rate, channels)
			}
		}
	}

	tests := []struct {
		name     string
		rate     int
		channels int
		opts     []Option
		want     error
	}{
		{"rate 44100", 44100, 1, nil, ErrInvalidSampleRate},
		{"rate 0", 0, 2, nil, ErrInvalidSampleRate},
		{"zero channels", 48000, 0, nil, ErrInvalidChannels},
		{"three channels", 48000, 3, nil, ErrInvalidChannels},
		{"gain too high", 48000, 2, []Option{WithGain(32768)}, ErrUnsupportedConfiguration},
		{"gain too low", 48000, 2, []Option{WithGain(-32769)}, ErrUnsupportedConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecoder(tt.rate, tt.channels, tt.opts...); !errors.Is(err, tt.want) {
				t.Fatalf("NewDecoder error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGainOption(t *testing.T) {
	d := newTestDecoder(t, 48000, 1, WithGain(1536))
	if got := float64(d.gain); math.Abs(got-math.Pow(10, 6.0/20)) > 1e-3 {
		t.Fatalf("gain for +6 dB = %v", got)
	}
	if d := newTestDecoder(t, 48000, 1); d.gain != 1 {
		t.Fatalf("default gain = %v, want 1", d.gain)
	}
}

func TestLossBeforeFirstPacketIsSilent(t *testing.T) {
	for _, rate := range sampleRates {
		d := newTestDecoder(t, rate, 2)
		frameSize := rate / 50
		pcm := make([]float32, frameSize*2)
		for i := range pcm {
			pcm[i] = 1
		}
		n, err := d.Decode(nil, pcm, frameSize, false)
		if err != nil || n != frameSize {
			t.Fatalf("%d Hz: Decode(nil) = %d, %v, want %d", rate, n, err, frameSize)
		}
		if !allZero(pcm) {
			t.Fatalf("%d Hz: concealment without history is not silent", rate)
		}
	}
}

func TestCELTSilenceDecodesToZero(t *testing.T) {
	packets := []struct {
		name    string
		data    []byte
		samples int // at 48 kHz
	}{
		{"mono 20 ms", []byte{0xF8, 0xFF, 0xFF}, 960},
		{"stereo 20 ms", []byte{0xFC, 0xFF, 0xFF}, 960},
		{"mono 2.5 ms", []byte{0xE0, 0xFF, 0xFF}, 120},
		{"stereo 60 ms", []byte{0xFF, 0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, 2880},
	}
	for _, rate := range sampleRates {
		for _, channels := range []int{1, 2} {
			d := newTestDecoder(t, rate, channels)
			for _, p := range packets {
				want := p.samples * rate / 48000
				pcm := make([]float32, want*channels)
				for i := range pcm {
					pcm[i] = 0.5
				}
				n, err := d.Decode(p.data, pcm, want, false)
				if err != nil || n != want {
					t.Fatalf("%d Hz %d ch %s: Decode = %d, %v, want %d", rate, channels, p.name, n, err, want)
				}
				if !inaudible(pcm) {
					t.Fatalf("%d Hz %d ch %s: silence decoded to non-zero samples", rate, channels, p.name)
				}
				if d.LastPacketDuration() != want {
					t.Errorf("LastPacketDuration = %d, want %d", d.LastPacketDuration(), want)
				}

				pcm16 := make([]int16, want*channels)
				n, err = d.DecodeInt16(p.data, pcm16, want, false)
				if err != nil || n != want {
					t.Fatalf("%d Hz %d ch %s: DecodeInt16 = %d, %v", rate, channels, p.name, n, err)
				}
				if diff := cmp.Diff(make([]int16, want*channels), pcm16); diff != "" {
					t.Fatalf("%d Hz %d ch %s: int16 silence mismatch (-want +got):\n%s", rate, channels, p.name, diff)
				}
			}
			if d.Bandwidth() != BandwidthFullband {
				t.Errorf("Bandwidth = %v, want FB", d.Bandwidth())
			}
		}
	}
}

func TestDecodingIsDeterministic(t *testing.T) {
	packets := randomPackets(1, configRange(0, 31), 300, 7)
	for _, rate := range []int{8000, 16000, 48000} {
		for _, channels := range []int{1, 2} {
			a := newTestDecoder(t, rate, channels)
			b := newTestDecoder(t, rate, channels)
			got := decodeSequence(t, a, packets)
			want := decodeSequence(t, b, packets)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("%d Hz %d ch: decoders disagree (-b +a):\n%s", rate, channels, diff)
			}
		}
	}
}

func TestDecodedSamplesAreFinite(t *testing.T) {
	packets := randomPackets(2, configRange(0, 31), 400, 5)
	d := newTestDecoder(t, 48000, 2)
	for i, r := range decodeSequence(t, d, packets) {
		for j, v := range r.PCM {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("packet %d: sample %d is %v", i, j, v)
			}
		}
	}
}

func TestResetMatchesFreshDecoder(t *testing.T) {
	warm := randomPackets(3, configRange(0, 31), 60, 4)
	packets := randomPackets(4, configRange(0, 31), 60, 4)

	d := newTestDecoder(t, 24000, 2)
	decodeSequence(t, d, warm)
	d.Reset()
	if d.FinalRange() != 0 || d.LastPacketDuration() != 0 {
		t.Fatalf("Reset left FinalRange %#x, LastPacketDuration %d", d.FinalRange(), d.LastPacketDuration())
	}
	got := decodeSequence(t, d, packets)
	want := decodeSequence(t, newTestDecoder(t, 24000, 2), packets)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output after Reset differs from a fresh decoder (-fresh +reset):\n%s", diff)
	}
}

func TestStateCarriesAcrossPackets(t *testing.T) {
	packets := randomPackets(5, configRange(16, 31), 20, 0)
	a := newTestDecoder(t, 48000, 1)
	seq := decodeSequence(t, a, packets)

	// Decoding the last packet on a decoder without the earlier history
	// only reproduces the sequence output by accident.
	b := newTestDecoder(t, 48000, 1)
	alone := decodeSequence(t, b, packets[len(packets)-1:])
	if len(seq[len(seq)-1].PCM) > 0 && cmp.Equal(seq[len(seq)-1], alone[0]) {
		t.Fatal("last packet decoded identically with and without history")
	}
}

func TestConcealmentAfterPackets(t *testing.T) {
	for _, tc := range []struct {
		name    string
		configs []int
	}{
		{"SILK", configRange(0, 11)},
		{"Hybrid", configRange(12, 15)},
		{"CELT", configRange(16, 31)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDecoder(t, 48000, 2)
			decodeSequence(t, d, randomPackets(6, tc.configs, 20, 0))
			if !d.st.hist.HasHistory() {
				t.Fatal("no packet of the warm-up decoded")
			}
			pcm := make([]float32, 960*2)
			for i := 1; i <= 5; i++ {
				n, err := d.Decode(nil, pcm, 960, false)
				if err != nil || n != 960 {
					t.Fatalf("loss %d: Decode = %d, %v, want 960", i, n, err)
				}
				if d.FinalRange() != 0 {
					t.Fatalf("loss %d: FinalRange = %#x, want 0", i, d.FinalRange())
				}
				if d.LastPacketDuration() != 960 {
					t.Fatalf("loss %d: LastPacketDuration = %d", i, d.LastPacketDuration())
				}
				if got := d.st.hist.LostCount(); got < i {
					t.Fatalf("loss %d: lost count %d", i, got)
				}
			}
			for i, p := range randomPackets(7, tc.configs, 5, 0) {
				pcm := make([]float32, 960*2)
				_, err := d.Decode(p, pcm, 960, false)
				if err == nil && d.st.hist.LostCount() != 0 {
					t.Fatalf("packet %d decoded but lost count is %d", i, d.st.hist.LostCount())
				}
			}
		})
	}
}

func TestLossDurationMustBeMultipleOf2_5ms(t *testing.T) {
	d := newTestDecoder(t, 48000, 1)
	pcm := make([]float32, 960)
	if n, err := d.Decode(nil, pcm, 100, false); !errors.Is(err, ErrUnsupportedConfiguration) || n != 0 {
		t.Fatalf("Decode(nil, 100) = %d, %v, want ErrUnsupportedConfiguration", n, err)
	}
	if n, err := d.Decode([]byte{0xF8, 0xFF, 0xFF}, pcm, 500, true); !errors.Is(err, ErrUnsupportedConfiguration) || n != 0 {
		t.Fatalf("Decode(fec, 500) = %d, %v, want ErrUnsupportedConfiguration", n, err)
	}
	if n, err := d.Decode(nil, pcm, 360, false); err != nil || n != 360 {
		t.Fatalf("Decode(nil, 360) = %d, %v", n, err)
	}
}

func TestRejectedCallsLeaveStateUntouched(t *testing.T) {
	warm := randomPackets(8, configRange(0, 31), 40, 6)
	rest := randomPackets(9, configRange(0, 31), 40, 6)

	a := newTestDecoder(t, 16000, 2)
	b := newTestDecoder(t, 16000, 2)
	decodeSequence(t, a, warm)
	decodeSequence(t, b, warm)

	pcm := make([]float32, 5760*2)
	rejected := []struct {
		name      string
		packet    []byte
		frameSize int
		want      error
	}{
		{"odd code 1", []byte{0x09, 1, 2, 3}, 320, ErrInvalidPacket},
		{"zero frames", []byte{0x0B, 0x00}, 320, ErrInvalidPacket},
		{"small buffer", []byte{0xF8, 0xFF, 0xFF}, 100, ErrBufferTooSmall},
		{"40 ms into 20 ms", []byte{0x10, 0xFF, 0xFF}, 320, ErrBufferTooSmall},
		{"zero frame size", []byte{0xF8, 0xFF, 0xFF}, 0, ErrBufferTooSmall},
	}
	for _, r := range rejected {
		if n, err := a.Decode(r.packet, pcm, r.frameSize, false); !errors.Is(err, r.want) || n != 0 {
			t.Fatalf("%s: Decode = %d, %v, want %v", r.name, n, err, r.want)
		}
	}
	if n, err := a.Decode(nil, pcm[:10], 320, false); !errors.Is(err, ErrBufferTooSmall) || n != 0 {
		t.Fatalf("short loss buffer: Decode = %d, %v", n, err)
	}

	got := decodeSequence(t, a, rest)
	want := decodeSequence(t, b, rest)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rejected calls changed the decoder (-untouched +rejected):\n%s", diff)
	}
}

// findMalformedSILK searches random narrowband packets for one the SILK
// layer rejects.
func findMalformedSILK(t *testing.T) []byte {
	t.Helper()
	pcm := make([]float32, 160)
	d := newTestDecoder(t, 8000, 1)
	for seed := uint64(0); seed < 50; seed++ {
		for _, p := range randomPackets(100+seed, []int{1}, 100, 0) {
			p[0] &^= 0x04
			d.Reset()
			if _, err := d.Decode(p, pcm, 160, false); errors.Is(err, ErrMalformedSilkFrame) {
				return p
			}
		}
	}
	t.Skip("no malformed SILK packet among the random candidates")
	return nil
}

func TestMalformedFrameIsConcealedLikeALoss(t *testing.T) {
	bad := findMalformedSILK(t)
	warm := randomPackets(10, []int{1}, 10, 0)
	rest := randomPackets(11, []int{1}, 10, 0)
	for _, p := range append(warm, rest...) {
		p[0] &^= 0x04
	}

	a := newTestDecoder(t, 8000, 1)
	b := newTestDecoder(t, 8000, 1)
	decodeSequence(t, a, warm)
	decodeSequence(t, b, warm)

	pcmA := make([]float32, 160)
	n, err := a.Decode(bad, pcmA, 160, false)
	if !errors.Is(err, ErrMalformedSilkFrame) {
		t.Fatalf("Decode(malformed) error = %v, want ErrMalformedSilkFrame", err)
	}
	if n != 160 {
		t.Fatalf("Decode(malformed) = %d samples, want 160", n)
	}
	pcmB := make([]float32, 160)
	if _, err := b.Decode(nil, pcmB, 160, false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pcmB, pcmA); diff != "" {
		t.Fatalf("malformed packet output differs from concealment (-loss +malformed):\n%s", diff)
	}

	got := decodeSequence(t, a, rest)
	want := decodeSequence(t, b, rest)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoding after a malformed packet differs (-loss +malformed):\n%s", diff)
	}
}

func TestFECWithoutRedundancyConceals(t *testing.T) {
	warm := randomPackets(12, configRange(28, 31), 10, 0)
	next := []byte{0xF8, 0x12, 0x34, 0x56, 0x78}

	a := newTestDecoder(t, 48000, 2)
	b := newTestDecoder(t, 48000, 2)
	decodeSequence(t, a, warm)
	decodeSequence(t, b, warm)

	pcmA := make([]float32, 960*2)
	n, err := a.Decode(next, pcmA, 960, true)
	if err != nil || n != 960 {
		t.Fatalf("Decode(fec) = %d, %v, want 960", n, err)
	}
	pcmB := make([]float32, 960*2)
	if _, err := b.Decode(nil, pcmB, 960, false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pcmB, pcmA); diff != "" {
		t.Fatalf("FEC on a CELT packet differs from concealment (-loss +fec):\n%s", diff)
	}
}

func TestFECRecoversSILKFrame(t *testing.T) {
	d := newTestDecoder(t, 16000, 1)
	decodeSequence(t, d, randomPackets(13, []int{9}, 10, 0))
	pcm := make([]float32, 640)
	next := randomPackets(14, []int{9}, 1, 0)[0]
	next[0] &^= 0x04

	// A 40 ms request conceals the first 20 ms and recovers the rest.
	n, err := d.Decode(next, pcm, 640, true)
	if err != nil || n != 640 {
		t.Fatalf("Decode(fec) = %d, %v, want 640", n, err)
	}
	if d.LastPacketDuration() != 640 {
		t.Fatalf("LastPacketDuration = %d, want 640", d.LastPacketDuration())
	}
	if n, err := d.Decode(next, pcm, 640, false); n != 320 && err == nil {
		t.Fatalf("Decode after fec = %d samples, want 320", n)
	}
}

func TestDecodeInt16MatchesSoftClippedFloat(t *testing.T) {
	packets := randomPackets(15, configRange(0, 31), 150, 0)
	for _, channels := range []int{1, 2} {
		a := newTestDecoder(t, 48000, channels)
		b := newTestDecoder(t, 48000, channels)
		var mem [2]float32
		for i, p := range packets {
			pcm := make([]float32, 5760*channels)
			n, err := a.Decode(p, pcm, 5760, false)
			if err == nil {
				softClipPCM(pcm[:n*channels], channels, &mem)
			}
			want := make([]int16, n*channels)
			for j := range want {
				want[j] = float32ToInt16(pcm[j])
			}

			pcm16 := make([]int16, 5760*channels)
			m, err16 := b.DecodeInt16(p, pcm16, 5760, false)
			if m != n || errors.Is(err16, ErrInvalidPacket) != errors.Is(err, ErrInvalidPacket) {
				t.Fatalf("packet %d: DecodeInt16 = %d, %v; Decode = %d, %v", i, m, err16, n, err)
			}
			if diff := cmp.Diff(want, pcm16[:m*channels]); diff != "" {
				t.Fatalf("packet %d: int16 output mismatch (-want +got):\n%s", i, diff)
			}
		}
	}
}

func TestGainScalesOutput(t *testing.T) {
	packets := randomPackets(16, configRange(28, 31), 30, 5)
	plain := decodeSequence(t, newTestDecoder(t, 48000, 1), packets)
	d := newTestDecoder(t, 48000, 1, WithGain(-1536))
	loud := decodeSequence(t, d, packets)
	for i := range plain {
		if plain[i].N != loud[i].N || plain[i].Err != loud[i].Err {
			t.Fatalf("packet %d: %d samples (%q) vs %d (%q)", i, plain[i].N, plain[i].Err, loud[i].N, loud[i].Err)
		}
		for j, v := range plain[i].PCM {
			if got := loud[i].PCM[j]; got != v*d.gain {
				t.Fatalf("packet %d sample %d: %v, want %v", i, j, got, v*d.gain)
			}
		}
	}
}

func TestModeSwitchesProduceFullFrames(t *testing.T) {
	// One configuration per mode and bandwidth, cycled so that every
	// transition between modes occurs.
	configs := []int{1, 13, 31, 5, 15, 19, 9, 14, 23, 0, 12, 29}
	var packets [][]byte
	r := rand.New(rand.NewPCG(17, 17))
	for round := 0; round < 4; round++ {
		for _, c := range configs {
			p := make([]byte, 40+r.IntN(60))
			p[0] = byte(c<<3) | byte(round&1)<<2
			for j := 1; j < len(p); j++ {
				p[j] = byte(r.Uint32())
			}
			packets = append(packets, p)
		}
	}
	for _, rate := range sampleRates {
		decodeSequence(t, newTestDecoder(t, rate, 2), packets)
	}
}
