package opusnative

import (
	"math"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.5, 16384},
		{-0.5, -16384},
		{1, 32767},
		{-1, -32768},
		{2, 32767},
		{-3, -32768},
		{1.5 / 32768, 2},
		{2.5 / 32768, 2},
		{-1.5 / 32768, -2},
	}
	for _, tt := range tests {
		if got := float32ToInt16(tt.in); got != tt.want {
			t.Errorf("float32ToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSoftClipLeavesInRangeSamples(t *testing.T) {
	x := []float32{0, 0.25, -0.5, 0.99, -1, 1, 0.1, -0.1}
	want := append([]float32(nil), x...)
	var mem [2]float32
	softClipPCM(x, 2, &mem)
	for i := range x {
		if x[i] != want[i] {
			t.Fatalf("sample %d changed from %v to %v", i, want[i], x[i])
		}
	}
	if mem != [2]float32{} {
		t.Fatalf("mem = %v, want zero", mem)
	}
}

func TestSoftClipBoundsExcursions(t *testing.T) {
	const n = 480
	x := make([]float32, n)
	for i := range x {
		x[i] = 1.8 * float32(math.Sin(2*math.Pi*float64(i)/96))
	}
	var mem [2]float32
	softClipPCM(x, 1, &mem)
	for i, v := range x {
		if v > 1 || v < -1 {
			t.Fatalf("sample %d = %v outside [-1, 1]", i, v)
		}
	}
	// The sine ends mid-excursion, so the curve carries over.
	if mem[0] == 0 {
		t.Fatal("mem not set for an excursion running off the end")
	}
}

func TestSoftClipSaturatesBeyondTwo(t *testing.T) {
	x := []float32{0.5, 3, 0.5, -5, 0.5}
	var mem [2]float32
	softClipPCM(x, 1, &mem)
	if x[1] > 1 || x[1] < 0.999 || x[3] < -1 || x[3] > -0.999 {
		t.Fatalf("clipped peaks = %v, %v, want just inside 1, -1", x[1], x[3])
	}
	if mem[0] != 0 {
		t.Fatalf("mem = %v after the excursions ended", mem[0])
	}
}
