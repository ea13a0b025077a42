package testvectors

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

//go:embed vectors.yaml
var defaultManifest []byte

// ErrInvalidManifest reports a manifest that names no usable vectors.
var ErrInvalidManifest = errors.New("testvectors: invalid manifest")

// Manifest lists the vectors of a conformance run.
type Manifest struct {
	Rate    int      `yaml:"rate"`
	Vectors []Vector `yaml:"vectors"`
}

// Vector names one conformance vector. Threshold, when set, overrides the
// run's pass threshold for this vector.
type Vector struct {
	Name      string   `yaml:"name"`
	Threshold *float64 `yaml:"threshold,omitempty"`
}

// BitstreamPath returns the path of the vector's .bit file under dir.
func (v Vector) BitstreamPath(dir string) string {
	return filepath.Join(dir, v.Name+".bit")
}

// ReferencePath returns the path of the reference decode for the given
// output channel count under dir.
func (v Vector) ReferencePath(dir string, channels int) string {
	if channels == 1 {
		return filepath.Join(dir, v.Name+"m.dec")
	}
	return filepath.Join(dir, v.Name+".dec")
}

// DefaultManifest returns the twelve RFC 8251 vectors.
func DefaultManifest() *Manifest {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadManifest reads a YAML or JSON manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testvectors: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates a manifest. A missing rate means
// 48 kHz.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if m.Rate == 0 {
		m.Rate = 48000
	}
	switch m.Rate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("%w: rate %d", ErrInvalidManifest, m.Rate)
	}
	if len(m.Vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors", ErrInvalidManifest)
	}
	seen := make(map[string]bool, len(m.Vectors))
	for i, v := range m.Vectors {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: vector %d has no name", ErrInvalidManifest, i)
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("%w: duplicate vector %q", ErrInvalidManifest, v.Name)
		}
		seen[v.Name] = true
	}
	return &m, nil
}

// Select returns the vectors named in names, in manifest order, or all of
// them when names is empty.
func (m *Manifest) Select(names []string) ([]Vector, error) {
	if len(names) == 0 {
		return m.Vectors, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Vector
	for _, v := range m.Vectors {
		if want[v.Name] {
			out = append(out, v)
			delete(want, v.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("%w: unknown vector %q", ErrInvalidManifest, n)
	}
	return out, nil
}
