package testvectors

import (
	"context"
	"os"
	"testing"

	"github.com/wavelane/opusnative/internal/config"
)

// writeVector stores packets and an all-zero reference of samples
// interleaved values as vector name under dir.
func writeVector(t *testing.T, dir, name string, packets []Packet, samples int) Vector {
	t.Helper()
	v := Vector{Name: name}
	f, err := os.Create(v.BitstreamPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteBitstream(f, packets); err != nil {
		t.Fatal(err)
	}
	for _, channels := range []int{1, 2} {
		ref, err := os.Create(v.ReferencePath(dir, channels))
		if err != nil {
			t.Fatal(err)
		}
		if err := WritePCM(ref, make([]int16, samples*channels)); err != nil {
			t.Fatal(err)
		}
		ref.Close()
	}
	return v
}

var silencePackets = []Packet{
	{Data: []byte{0xF8, 0xFF, 0xFF}},
	{Data: []byte{0xFC, 0xFF, 0xFF}},
	{}, // lost, conceals 20 ms
	{Data: []byte{0xFF, 0x03, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	{Data: []byte{0xE0, 0xFF, 0xFF}},
	{}, // lost, conceals 2.5 ms
}

const silenceSamples = 960 + 960 + 960 + 2880 + 120 + 120

func TestDecodeSilenceVector(t *testing.T) {
	for _, channels := range []int{1, 2} {
		res, err := Decode(context.Background(), silencePackets, 48000, channels, nil)
		if err != nil {
			t.Fatal(err)
		}
		if res.Packets != len(silencePackets) || res.Lost != 2 || res.DecodeErrors != 0 {
			t.Fatalf("%d ch: result %+v", channels, res)
		}
		if len(res.PCM) != silenceSamples*channels {
			t.Fatalf("%d ch: %d samples, want %d", channels, len(res.PCM), silenceSamples*channels)
		}
		for i, v := range res.PCM {
			if v != 0 {
				t.Fatalf("%d ch: sample %d = %d", channels, i, v)
			}
		}
		if res.RangeChecked != 0 || res.FirstMismatch != -1 {
			t.Fatalf("%d ch: checked %d ranges without recorded ones", channels, res.RangeChecked)
		}
	}
}

func TestDecodeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Decode(ctx, silencePackets, 48000, 2, nil); err == nil {
		t.Fatal("Decode ignored a cancelled context")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Rate: 48000}
	v := writeVector(t, dir, "silence", silencePackets, silenceSamples)

	for _, channels := range []int{1, 2} {
		r, err := Check(context.Background(), dir, m, v, channels, PassThreshold, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Passed || r.Quality != PerfectScore {
			t.Fatalf("%d ch: passed %v with quality %v", channels, r.Passed, r.Quality)
		}
	}

	// A final range no range coder can end in must be reported.
	bad := append([]Packet(nil), silencePackets...)
	bad[3].FinalRange = 1
	v = writeVector(t, dir, "badrange", bad, silenceSamples)
	r, err := Check(context.Background(), dir, m, v, 2, PassThreshold, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Passed || r.RangeMismatches != 1 || r.FirstMismatch != 3 {
		t.Fatalf("passed %v with %d mismatches, first %d", r.Passed, r.RangeMismatches, r.FirstMismatch)
	}

	// A reference of the wrong length fails on quality.
	v = writeVector(t, dir, "short", silencePackets, silenceSamples-1)
	if r, err := Check(context.Background(), dir, m, v, 1, PassThreshold, nil); err != nil || r.Passed {
		t.Fatalf("short reference: passed %v, err %v", r != nil && r.Passed, err)
	}
}

// TestConformanceVectors decodes the RFC 8251 vectors found under
// OPUS_VECTOR_DIR and requires every final range and the quality score of
// both reference decodes to pass.
func TestConformanceVectors(t *testing.T) {
	cfg, err := config.FromEnv(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := DefaultManifest()
	if cfg.Manifest != "" {
		if m, err = LoadManifest(cfg.Manifest); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(m.Vectors[0].BitstreamPath(cfg.VectorDir)); err != nil {
		t.Skipf("conformance vectors not found in %s", cfg.VectorDir)
	}

	for _, v := range m.Vectors {
		for _, channels := range []int{1, 2} {
			r, err := Check(context.Background(), cfg.VectorDir, m, v, channels, cfg.QualityThreshold, nil)
			if err != nil {
				t.Errorf("%s: %v", v.Name, err)
				continue
			}
			t.Logf("%s %d ch: Q=%.2f, %d/%d ranges match", v.Name, channels, r.Quality,
				r.RangeChecked-r.RangeMismatches, r.RangeChecked)
			if !r.Passed {
				t.Errorf("%s %d ch: Q=%.2f, %d range mismatches (first at packet %d)",
					v.Name, channels, r.Quality, r.RangeMismatches, r.FirstMismatch)
			}
		}
	}
}
