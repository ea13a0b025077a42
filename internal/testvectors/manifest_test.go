package testvectors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	if m.Rate != 48000 {
		t.Errorf("Rate = %d, want 48000", m.Rate)
	}
	if len(m.Vectors) != 12 {
		t.Fatalf("%d vectors, want 12", len(m.Vectors))
	}
	v := m.Vectors[0]
	if got := v.BitstreamPath("tv"); got != filepath.Join("tv", "testvector01.bit") {
		t.Errorf("BitstreamPath = %q", got)
	}
	if got := v.ReferencePath("tv", 1); got != filepath.Join("tv", "testvector01m.dec") {
		t.Errorf("mono ReferencePath = %q", got)
	}
	if got := v.ReferencePath("tv", 2); got != filepath.Join("tv", "testvector01.dec") {
		t.Errorf("stereo ReferencePath = %q", got)
	}
}

func TestParseManifestJSON(t *testing.T) {
	m, err := ParseManifest([]byte(`{"rate": 16000, "vectors": [{"name": "a", "threshold": 10}, {"name": "b"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	ten := 10.0
	want := &Manifest{Rate: 16000, Vectors: []Vector{{Name: "a", Threshold: &ten}, {Name: "b"}}}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestParseManifestRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no vectors", "rate: 48000\n"},
		{"bad rate", "rate: 44100\nvectors:\n  - name: a\n"},
		{"unnamed", "vectors:\n  - threshold: 3\n"},
		{"duplicate", "vectors:\n  - name: a\n  - name: a\n"},
		{"not yaml", "vectors: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.data)); !errors.Is(err, ErrInvalidManifest) {
				t.Fatalf("ParseManifest error = %v, want ErrInvalidManifest", err)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.yaml")
	if err := os.WriteFile(path, []byte("vectors:\n  - name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Rate != 48000 || len(m.Vectors) != 1 || m.Vectors[0].Name != "x" {
		t.Fatalf("LoadManifest = %+v", m)
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadManifest of a missing file succeeded")
	}
}

func TestSelect(t *testing.T) {
	m := DefaultManifest()
	got, err := m.Select([]string{"testvector05", "testvector02"})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, v := range got {
		names = append(names, v.Name)
	}
	if diff := cmp.Diff([]string{"testvector02", "testvector05"}, names); diff != "" {
		t.Fatalf("Select mismatch (-want +got):\n%s", diff)
	}
	if all, _ := m.Select(nil); len(all) != 12 {
		t.Fatalf("Select(nil) = %d vectors", len(all))
	}
	if _, err := m.Select([]string{"testvector99"}); !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("Select(unknown) error = %v", err)
	}
}
