package celt

import (
	"errors"
	"testing"

	"github.com/wavelane/opusnative/rangecoding"
)

// pulsesToIndex is the encoder side of indexToPulses (libopus icwrs).
func pulsesToIndex(t *pvqTable, y []int) uint32 {
	n := len(y)
	j := n - 1
	var i uint64
	if y[j] < 0 {
		i = 1
	}
	k := abs(y[j])
	for j > 0 {
		j--
		i += t.at(n-j, k)
		k += abs(y[j])
		if y[j] < 0 {
			i += t.at(n-j, k+1)
		}
	}
	return uint32(i)
}

func TestCWRSBijection(t *testing.T) {
	var tab pvqTable
	for n := 2; n <= 6; n++ {
		for k := 1; k <= 6; k++ {
			tab.build(n, k)
			v, ok := tab.pvqSize(n, k)
			if !ok {
				t.Fatalf("V(%d,%d) overflowed", n, k)
			}
			seen := map[[6]int]bool{}
			y := make([]int, n)
			for idx := uint32(0); idx < v; idx++ {
				e := tab.indexToPulses(idx, y, n, k)
				sum, energy := 0, 0
				var key [6]int
				for i, p := range y {
					sum += abs(p)
					energy += p * p
					key[i] = p
				}
				if sum != k {
					t.Fatalf("n=%d k=%d idx=%d: %v has %d pulses", n, k, idx, y, sum)
				}
				if int(e) != energy {
					t.Fatalf("n=%d k=%d idx=%d: energy %v, want %d", n, k, idx, e, energy)
				}
				if seen[key] {
					t.Fatalf("n=%d k=%d idx=%d: duplicate codeword %v", n, k, idx, y)
				}
				seen[key] = true
				if back := pulsesToIndex(&tab, y); back != idx {
					t.Fatalf("n=%d k=%d: %v encodes to %d, want %d", n, k, y, back, idx)
				}
			}
		}
	}
}

func TestPVQSizeKnownValues(t *testing.T) {
	tests := []struct {
		n, k int
		want uint32
	}{
		{2, 1, 4},
		{2, 2, 8},
		{3, 1, 6},
		{3, 2, 18},
		{4, 3, 88},
		{8, 4, 2816},
	}
	var tab pvqTable
	for _, tc := range tests {
		tab.build(tc.n, tc.k)
		got, ok := tab.pvqSize(tc.n, tc.k)
		if !ok || got != tc.want {
			t.Errorf("V(%d,%d) = %d (%v), want %d", tc.n, tc.k, got, ok, tc.want)
		}
	}
}

func TestDecodePulsesRejectsOversizedCodebook(t *testing.T) {
	rd, err := rangecoding.NewDecoder([]byte{0x11, 0x22, 0x33, 0x44})
	if err != nil {
		t.Fatal(err)
	}
	var tab pvqTable
	y := make([]int, 176)
	if _, err := tab.decodePulses(rd, y, 176, 128); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("decodePulses(176, 128) error = %v, want ErrMalformedFrame", err)
	}
}
