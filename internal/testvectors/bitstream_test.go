package testvectors

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBitstreamRoundTrip(t *testing.T) {
	packets := []Packet{
		{Data: []byte{0xFC, 0x01, 0x02}, FinalRange: 0x12345678},
		{}, // lost
		{Data: []byte{0xF8, 0xFF, 0xFF}, FinalRange: 0xdeadbeef},
	}
	var buf bytes.Buffer
	if err := WriteBitstream(&buf, packets); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 3*8+6 {
		t.Fatalf("bitstream is %d bytes", buf.Len())
	}
	got, err := ParseBitstream(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(packets, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBitstreamLayout(t *testing.T) {
	data := []byte{
		0, 0, 0, 2, 0xAA, 0xBB, 0xCC, 0xDD, 0x01, 0x02,
		0, 0, 0, 1, 0, 0, 0, 0, 0x03,
	}
	got, err := ParseBitstream(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []Packet{
		{Data: []byte{0x01, 0x02}, FinalRange: 0xAABBCCDD},
		{Data: []byte{0x03}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	// The parsed packets must not alias the input.
	data[8] = 0xFF
	if got[0].Data[0] != 0x01 {
		t.Fatal("packet data aliases the input buffer")
	}
}

func TestParseBitstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0, 0, 0, 1, 0, 0}, ErrTruncatedHeader},
		{"short payload", []byte{0, 0, 0, 4, 0, 0, 0, 0, 1, 2}, ErrTruncatedPacket},
		{"huge length", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, ErrTruncatedPacket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBitstream(tt.data); !errors.Is(err, tt.want) {
				t.Fatalf("ParseBitstream error = %v, want %v", err, tt.want)
			}
		})
	}
	if got, err := ParseBitstream(nil); err != nil || len(got) != 0 {
		t.Fatalf("ParseBitstream(nil) = %v, %v", got, err)
	}
}

func TestPCMFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pcm")
	want := []int16{0, 1, -1, 32767, -32768, 1234}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WritePCM(f, want); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	raw, _ := os.ReadFile(path)
	if !bytes.Equal(raw[:4], []byte{0, 0, 1, 0}) {
		t.Fatalf("samples are not little-endian: % x", raw[:4])
	}
	got, err := ReadPCM(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("PCM mismatch (-want +got):\n%s", diff)
	}

	odd := filepath.Join(dir, "odd.pcm")
	if err := os.WriteFile(odd, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPCM(odd); !errors.Is(err, ErrOddPCM) {
		t.Fatalf("ReadPCM(odd) error = %v, want ErrOddPCM", err)
	}
}
