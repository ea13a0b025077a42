package silk

import "fmt"

// The output resampler converts the internal 8, 12 or 16 kHz signal to the
// API rate: an allpass 2x upsampler for exact doubling, the same upsampler
// followed by a 12-phase FIR for other up-ratios, and an AR2 prefilter
// followed by a polyphase FIR for the down-ratios a decoder can need.
//
// Reference: libopus silk/resampler.c, silk/resampler_private_*.c

const (
	resamplerOrderFIR12    = 8
	resamplerDownOrderFIR0 = 18
	resamplerDownOrderFIR1 = 24
	resamplerMaxBatchMs    = 10
	resamplerMaxFsInKHz    = maxFsKHz
	resamplerMaxBatch      = resamplerMaxBatchMs * resamplerMaxFsInKHz
)

type resamplerMode int

const (
	resampleCopy resamplerMode = iota
	resampleUp2
	resampleIIRFIR
	resampleDownFIR
)

// Allpass sections for the even and odd outputs of the 2x upsampler.
var (
	up2HQ0 = [3]int32{1746, 14986, 39083 - 65536}
	up2HQ1 = [3]int32{6854, 25769, 55542 - 65536}
)

// Interpolation fractions 1/24, 3/24, ..., 23/24 of the symmetric 8-tap
// FIR; the second half of the taps reads the mirrored row.
var fracFIR12 = [12][4]int16{
	{189, -600, 617, 30567},
	{117, -159, -1070, 29704},
	{52, 221, -2392, 28276},
	{-4, 529, -3350, 26341},
	{-48, 758, -3956, 23973},
	{-80, 905, -4235, 21254},
	{-99, 972, -4222, 18278},
	{-107, 967, -3957, 15143},
	{-103, 896, -3487, 11950},
	{-91, 773, -2865, 8798},
	{-71, 611, -2143, 5784},
	{-46, 425, -1375, 2996},
}

// Down-ratio filters: two AR2 coefficients, then the FIR half-taps of each
// phase.
var (
	resamplerCoefs3To4 = []int16{
		-20694, -13867,
		-49, 64, 17, -157, 353, -496, 163, 11047, 22205,
		-39, 6, 91, -170, 186, 23, -896, 6336, 19928,
		-19, -36, 102, -89, -24, 328, -951, 2568, 15909,
	}
	resamplerCoefs2To3 = []int16{
		-14457, -14019,
		64, 128, -122, 36, 310, -768, 584, 9267, 17733,
		12, 128, 18, -142, 288, -117, -865, 4123, 14459,
	}
	resamplerCoefs1To2 = []int16{
		616, -14323,
		-10, 39, 58, -46, -84, 120, 184, -315, -541, 1284, 5380, 9024,
	}
)

// Input delay in samples, by internal rate and output rate.
var resamplerDelayDec = [3][5]int8{
	// 8  12  16  24  48
	{4, 0, 2, 0, 0},  // 8
	{0, 9, 4, 7, 4},  // 12
	{0, 3, 12, 7, 7}, // 16
}

// resamplerRateID maps 8, 12, 16, 24 and 48 kHz to 0..4.
func resamplerRateID(hz int) int {
	r := hz >> 12
	if hz > 16000 {
		r--
	}
	if hz > 24000 {
		r >>= 1
	}
	return r - 1
}

type resamplerState struct {
	sIIR        [6]int32
	sFIR16      [resamplerOrderFIR12]int16
	sFIR32      [resamplerDownOrderFIR1]int32
	delayBuf    [resamplerMaxFsInKHz]int16
	mode        resamplerMode
	batchSize   int
	invRatioQ16 int32
	firOrder    int
	firFracs    int
	fsInKHz     int
	fsOutKHz    int
	inputDelay  int
	coefs       []int16
}

// init configures the resampler for inHz to outHz and clears its history.
func (r *resamplerState) init(inHz, outHz int) error {
	*r = resamplerState{}
	if inHz != 8000 && inHz != 12000 && inHz != 16000 {
		return fmt.Errorf("%w: resampler input %d Hz", ErrInvalidSampleRate, inHz)
	}
	switch outHz {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return fmt.Errorf("%w: resampler output %d Hz", ErrInvalidSampleRate, outHz)
	}

	r.inputDelay = int(resamplerDelayDec[resamplerRateID(inHz)][resamplerRateID(outHz)])
	r.fsInKHz = inHz / 1000
	r.fsOutKHz = outHz / 1000
	r.batchSize = r.fsInKHz * resamplerMaxBatchMs

	up2x := 0
	switch {
	case outHz == 2*inHz:
		r.mode = resampleUp2
	case outHz > inHz:
		r.mode = resampleIIRFIR
		up2x = 1
	case outHz < inHz:
		r.mode = resampleDownFIR
		switch {
		case 4*outHz == 3*inHz:
			r.firFracs, r.firOrder, r.coefs = 3, resamplerDownOrderFIR0, resamplerCoefs3To4
		case 3*outHz == 2*inHz:
			r.firFracs, r.firOrder, r.coefs = 2, resamplerDownOrderFIR0, resamplerCoefs2To3
		case 2*outHz == inHz:
			r.firFracs, r.firOrder, r.coefs = 1, resamplerDownOrderFIR1, resamplerCoefs1To2
		default:
			return fmt.Errorf("%w: no resampler for %d to %d Hz", ErrInvalidSampleRate, inHz, outHz)
		}
	default:
		r.mode = resampleCopy
	}

	r.invRatioQ16 = int32((inHz<<(14+up2x))/outHz) << 2
	for smulww(r.invRatioQ16, int32(outHz)) < int32(inHz<<up2x) {
		r.invRatioQ16++
	}
	return nil
}

// process resamples in into out, which must hold
// len(in)*fsOutKHz/fsInKHz samples. in must cover at least 1 ms.
func (r *resamplerState) process(out, in []int16) {
	n := r.fsInKHz - r.inputDelay
	copy(r.delayBuf[r.inputDelay:r.fsInKHz], in[:n])

	r.run(out[:r.fsOutKHz], r.delayBuf[:r.fsInKHz])
	r.run(out[r.fsOutKHz:], in[n:len(in)-r.inputDelay])

	copy(r.delayBuf[:r.inputDelay], in[len(in)-r.inputDelay:])
}

func (r *resamplerState) run(out, in []int16) {
	switch r.mode {
	case resampleUp2:
		r.up2HQ(out, in)
	case resampleIIRFIR:
		r.iirFIR(out, in)
	case resampleDownFIR:
		r.downFIR(out, in)
	default:
		copy(out, in)
	}
}

// up2HQ doubles the rate with two chains of three first-order allpass
// sections.
func (r *resamplerState) up2HQ(out, in []int16) {
	s := &r.sIIR
	for k, v := range in {
		in32 := int32(v) << 10

		y := in32 - s[0]
		x := smulwb(y, up2HQ0[0])
		o1 := s[0] + x
		s[0] = in32 + x
		y = o1 - s[1]
		x = smulwb(y, up2HQ0[1])
		o2 := s[1] + x
		s[1] = o1 + x
		y = o2 - s[2]
		x = smlawb(y, y, up2HQ0[2])
		o1 = s[2] + x
		s[2] = o2 + x
		out[2*k] = int16(sat16(rshiftRound(o1, 10)))

		y = in32 - s[3]
		x = smulwb(y, up2HQ1[0])
		o1 = s[3] + x
		s[3] = in32 + x
		y = o1 - s[4]
		x = smulwb(y, up2HQ1[1])
		o2 = s[4] + x
		s[4] = o1 + x
		y = o2 - s[5]
		x = smlawb(y, y, up2HQ1[2])
		o1 = s[5] + x
		s[5] = o2 + x
		out[2*k+1] = int16(sat16(rshiftRound(o1, 10)))
	}
}

func (r *resamplerState) iirFIR(out, in []int16) {
	var buf [2*resamplerMaxBatch + resamplerOrderFIR12]int16
	copy(buf[:], r.sFIR16[:])

	o := 0
	var nIn int
	for {
		nIn = min(len(in), r.batchSize)
		r.up2HQ(buf[resamplerOrderFIR12:], in[:nIn])

		maxIndexQ16 := int32(nIn) << 17
		for idx := int32(0); idx < maxIndexQ16; idx += r.invRatioQ16 {
			t := int(smulwb(idx&0xFFFF, 12))
			p := buf[idx>>16:]
			c0, c1 := &fracFIR12[t], &fracFIR12[11-t]
			res := smulbb(int32(p[0]), int32(c0[0]))
			res = smlabb(res, int32(p[1]), int32(c0[1]))
			res = smlabb(res, int32(p[2]), int32(c0[2]))
			res = smlabb(res, int32(p[3]), int32(c0[3]))
			res = smlabb(res, int32(p[4]), int32(c1[3]))
			res = smlabb(res, int32(p[5]), int32(c1[2]))
			res = smlabb(res, int32(p[6]), int32(c1[1]))
			res = smlabb(res, int32(p[7]), int32(c1[0]))
			out[o] = int16(sat16(rshiftRound(res, 15)))
			o++
		}

		in = in[nIn:]
		if len(in) == 0 {
			break
		}
		copy(buf[:resamplerOrderFIR12], buf[2*nIn:2*nIn+resamplerOrderFIR12])
	}
	copy(r.sFIR16[:], buf[2*nIn:2*nIn+resamplerOrderFIR12])
}

// ar2 runs the second-order prefilter, writing Q8 output.
func (r *resamplerState) ar2(outQ8 []int32, in []int16) {
	a0, a1 := int32(r.coefs[0]), int32(r.coefs[1])
	for k, v := range in {
		o := r.sIIR[0] + int32(v)<<8
		outQ8[k] = o
		o <<= 2
		r.sIIR[0] = smlawb(r.sIIR[1], o, a0)
		r.sIIR[1] = smulwb(o, a1)
	}
}

func (r *resamplerState) downFIR(out, in []int16) {
	var buf [resamplerMaxBatch + resamplerDownOrderFIR1]int32
	order := r.firOrder
	copy(buf[:order], r.sFIR32[:order])
	fir := r.coefs[2:]

	o := 0
	var nIn int
	for {
		nIn = min(len(in), r.batchSize)
		r.ar2(buf[order:], in[:nIn])

		maxIndexQ16 := int32(nIn) << 16
		for idx := int32(0); idx < maxIndexQ16; idx += r.invRatioQ16 {
			p := buf[idx>>16:]
			var res int32
			if order == resamplerDownOrderFIR0 {
				const half = resamplerDownOrderFIR0 / 2
				ph := int(smulwb(idx&0xFFFF, int32(r.firFracs)))
				c := fir[half*ph:]
				for j := 0; j < half; j++ {
					res = smlawb(res, p[j], int32(c[j]))
				}
				c = fir[half*(r.firFracs-1-ph):]
				for j := 0; j < half; j++ {
					res = smlawb(res, p[order-1-j], int32(c[j]))
				}
			} else {
				for j := 0; j < order/2; j++ {
					res = smlawb(res, p[j]+p[order-1-j], int32(fir[j]))
				}
			}
			out[o] = int16(sat16(rshiftRound(res, 6)))
			o++
		}

		in = in[nIn:]
		if len(in) <= 1 {
			break
		}
		copy(buf[:order], buf[nIn:nIn+order])
	}
	copy(r.sFIR32[:order], buf[nIn:nIn+order])
}
