package silk

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func checkSpacing(t *testing.T, nlsf, deltaMin []int16) {
	t.Helper()
	l := len(nlsf)
	if nlsf[0] < deltaMin[0] {
		t.Fatalf("NLSF 0 = %d below %d: %v", nlsf[0], deltaMin[0], nlsf)
	}
	for i := 1; i < l; i++ {
		if int32(nlsf[i])-int32(nlsf[i-1]) < int32(deltaMin[i]) {
			t.Fatalf("gap %d = %d below %d: %v", i, nlsf[i]-nlsf[i-1], deltaMin[i], nlsf)
		}
	}
	if 1<<15-int32(nlsf[l-1]) < int32(deltaMin[l]) {
		t.Fatalf("top gap below %d: %v", deltaMin[l], nlsf)
	}
}

func TestNLSFStabilizeEnforcesSpacing(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for _, cb := range []*nlsfCodebook{&nlsfCBNBMB, &nlsfCBWB} {
		for trial := 0; trial < 500; trial++ {
			nlsf := make([]int16, cb.order)
			for i := range nlsf {
				nlsf[i] = int16(r.IntN(1 << 15))
			}
			if trial%2 == 0 {
				slices.Sort(nlsf)
			}
			nlsfStabilize(nlsf, cb.deltaMinQ15)
			checkSpacing(t, nlsf, cb.deltaMinQ15)
		}
	}
}

func TestNLSFStabilizeKeepsValidVector(t *testing.T) {
	nlsf := []int16{2000, 4000, 7000, 10000, 13000, 16000, 19000, 22000, 25000, 28000}
	want := slices.Clone(nlsf)
	nlsfStabilize(nlsf, nlsfCBNBMB.deltaMinQ15)
	if !slices.Equal(nlsf, want) {
		t.Fatalf("nlsfStabilize changed a valid vector: %v, want %v", nlsf, want)
	}
}

func TestNLSF2AProducesStableFilters(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 1))
	for _, cb := range []*nlsfCodebook{&nlsfCBNBMB, &nlsfCBWB} {
		for trial := 0; trial < 200; trial++ {
			nlsf := make([]int16, cb.order)
			for i := range nlsf {
				nlsf[i] = int16(r.IntN(1 << 15))
			}
			nlsfStabilize(nlsf, cb.deltaMinQ15)

			aQ12 := make([]int16, cb.order)
			if err := nlsfToLPC(aQ12, nlsf, cb.order); err != nil {
				t.Fatalf("order %d trial %d: %v", cb.order, trial, err)
			}
			if g := lpcInversePredGain(aQ12); g <= 0 {
				t.Fatalf("order %d trial %d: filter %v is unstable", cb.order, trial, aQ12)
			}
		}
	}
}

func TestCodebookVectorsAreIncreasing(t *testing.T) {
	for _, cb := range []*nlsfCodebook{&nlsfCBNBMB, &nlsfCBWB} {
		for i, row := range cb.cb1Q8 {
			if len(row) != cb.order {
				t.Fatalf("order %d row %d has %d entries", cb.order, i, len(row))
			}
			for k := 1; k < len(row); k++ {
				if row[k] <= row[k-1] {
					t.Fatalf("order %d row %d not increasing at %d: %v", cb.order, i, k, row)
				}
			}
		}
		var indices [maxLPCOrder + 1]int8
		nlsf := make([]int16, maxLPCOrder)
		for i := range cb.cb1Q8 {
			indices[0] = int8(i)
			if err := nlsfDecode(nlsf, indices[:], cb); err != nil {
				t.Fatalf("order %d row %d: %v", cb.order, i, err)
			}
			checkSpacing(t, nlsf[:cb.order], cb.deltaMinQ15)
		}
	}
}

func TestEntropyTablesAreInverseCDFs(t *testing.T) {
	tables := map[string][]uint8{
		"typeOffsetVAD":   typeOffsetVADICDF,
		"typeOffsetNoVAD": typeOffsetNoVADICDF,
		"deltaGain":       deltaGainICDF,
		"nlsfExt":         nlsfExtICDF,
		"nlsfInterp":      nlsfInterpolationFactorICDF,
		"pitchLag":        pitchLagICDF,
		"pitchDelta":      pitchDeltaICDF,
		"pitchContour":    pitchContourICDF,
		"pitchContourNB":  pitchContourNBICDF,
		"ltpPerIndex":     ltpPerIndexICDF,
		"ltpScale":        ltpScaleICDF,
		"lsb":             lsbICDF,
		"stereoPredJoint": stereoPredJointICDF,
		"stereoOnlyMid":   stereoOnlyCodeMidICDF,
	}
	for i, g := range gainICDF {
		tables["gain"+string(rune('0'+i))] = g
	}
	for i := range pulsesPerBlockICDF {
		tables["pulsesPerBlock"+string(rune('a'+i))] = pulsesPerBlockICDF[i][:]
	}
	for name, tab := range tables {
		if tab[len(tab)-1] != 0 {
			t.Errorf("%s does not end in 0", name)
		}
		for k := 1; k < len(tab); k++ {
			if tab[k] > tab[k-1] {
				t.Errorf("%s increases at %d", name, k)
			}
		}
	}

	// Shell code tables: the split table for p pulses has p+1 entries.
	for p := 1; p <= maxPulses; p++ {
		off := shellCodeTableOffsets[p]
		if next := shellCodeTableOffsets[p-1] + p; p > 1 && next != off {
			t.Fatalf("shell offset %d = %d, want %d", p, off, next)
		}
		for _, tab := range [][]uint8{shellCodeTable0[:], shellCodeTable1[:], shellCodeTable2[:], shellCodeTable3[:]} {
			if tab[int(off)+p] != 0 {
				t.Fatalf("shell table for %d pulses does not end in 0", p)
			}
		}
	}
}

func TestGainsDequant(t *testing.T) {
	var gains [maxNbSubfr]int32
	prev := int8(10)
	gainsDequant(gains[:], []int8{20, 4, 4, 4}, &prev, false)
	if prev != 20 {
		t.Fatalf("last index = %d, want 20", prev)
	}
	for i := 1; i < maxNbSubfr; i++ {
		if gains[i] != gains[0] {
			t.Fatalf("gain %d = %d, want %d for a zero delta", i, gains[i], gains[0])
		}
	}

	// Independent coding cannot drop more than 16 steps.
	prev = 50
	gainsDequant(gains[:1], []int8{0}, &prev, false)
	if prev != 34 {
		t.Fatalf("index after a large drop = %d, want 34", prev)
	}

	// Increasing indices give increasing gains.
	var last int32
	for i := int8(0); i < nLevelsQGain; i++ {
		p := int8(0)
		gainsDequant(gains[:1], []int8{i}, &p, false)
		if gains[0] <= last {
			t.Fatalf("gain for index %d = %d not above %d", i, gains[0], last)
		}
		last = gains[0]
	}
}

func TestDecodePitchBounds(t *testing.T) {
	lags := make([]int, maxNbSubfr)
	for _, fs := range []int{8, 12, 16} {
		if err := decodePitch(0, 0, lags, fs, maxNbSubfr); err != nil {
			t.Fatalf("%d kHz minimum lag: %v", fs, err)
		}
		for _, l := range lags {
			if l < peMinLagMs*fs || l > peMaxLagMs*fs {
				t.Fatalf("%d kHz lag %d out of range", fs, l)
			}
		}
		if err := decodePitch(int16((peMaxLagMs-peMinLagMs)*fs+1), 0, lags, fs, maxNbSubfr); err == nil {
			t.Fatalf("%d kHz: lag above maximum accepted", fs)
		}
		if err := decodePitch(-1, 0, lags, fs, maxNbSubfr); err == nil {
			t.Fatalf("%d kHz: negative lag index accepted", fs)
		}
	}
}
