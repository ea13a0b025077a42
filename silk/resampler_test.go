package silk

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResamplerRateID(t *testing.T) {
	for hz, want := range map[int]int{8000: 0, 12000: 1, 16000: 2, 24000: 3, 48000: 4} {
		if got := resamplerRateID(hz); got != want {
			t.Errorf("resamplerRateID(%d) = %d, want %d", hz, got, want)
		}
	}
}

func TestResamplerPreservesDC(t *testing.T) {
	const level = 10000
	for _, in := range []int{8000, 12000, 16000} {
		for _, out := range []int{8000, 12000, 16000, 24000, 48000} {
			var r resamplerState
			if err := r.init(in, out); err != nil {
				t.Fatalf("%d -> %d: %v", in, out, err)
			}
			src := make([]int16, in/50)
			for i := range src {
				src[i] = level
			}
			dst := make([]int16, out/50)
			for frame := 0; frame < 5; frame++ {
				r.process(dst, src)
			}
			for i, v := range dst[len(dst)/2:] {
				if v < level*97/100 || v > level*103/100 {
					t.Fatalf("%d -> %d: sample %d = %d, want about %d", in, out, i, v, level)
				}
			}
		}
	}
}

func TestResamplerCopyDelaysByInputDelay(t *testing.T) {
	var r resamplerState
	if err := r.init(12000, 12000); err != nil {
		t.Fatal(err)
	}
	if r.mode != resampleCopy {
		t.Fatalf("mode = %d, want copy", r.mode)
	}
	src := make([]int16, 120)
	for i := range src {
		src[i] = int16(i + 1)
	}
	dst := make([]int16, 120)
	r.process(dst, src)

	d := r.inputDelay
	want := make([]int16, 120)
	copy(want[d:], src[:120-d])
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Fatalf("copy output (-want +got):\n%s", diff)
	}
}

func TestResamplerRejectsUnsupportedRates(t *testing.T) {
	var r resamplerState
	for _, rates := range [][2]int{{24000, 48000}, {16000, 44100}, {11025, 8000}} {
		if err := r.init(rates[0], rates[1]); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("init(%d, %d) error = %v, want ErrInvalidSampleRate", rates[0], rates[1], err)
		}
	}
}

func TestMSToLRWithoutPrediction(t *testing.T) {
	const n = 80
	var s stereoState
	mid := make([]int16, n+2)
	side := make([]int16, n+2)
	for i := 2; i < n+2; i++ {
		mid[i] = int16(100 * i)
		side[i] = int16(10 * i)
	}
	wantL := make([]int16, n)
	wantR := make([]int16, n)
	for i := 0; i < n; i++ {
		// Outputs lag the input by one sample; the first reads the zero
		// history.
		m, sd := mid[i+1], side[i+1]
		wantL[i] = m + sd
		wantR[i] = m - sd
	}

	s.msToLR(mid, side, [2]int32{}, 8, n)
	if diff := cmp.Diff(wantL, mid[1:n+1]); diff != "" {
		t.Errorf("left (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantR, side[1:n+1]); diff != "" {
		t.Errorf("right (-want +got):\n%s", diff)
	}
	if s.sMid != [2]int16{100 * n, 100 * (n + 1)} {
		t.Errorf("mid history = %v", s.sMid)
	}
}
