package opusnative

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTOC(t *testing.T) {
	tests := []struct {
		toc  byte
		want TOC
	}{
		{0x00, TOC{0, ModeSILK, BandwidthNarrowband, 480, false, 0}},
		{0x0C, TOC{1, ModeSILK, BandwidthNarrowband, 960, true, 0}},
		{0x19, TOC{3, ModeSILK, BandwidthNarrowband, 2880, false, 1}},
		{0x2A, TOC{5, ModeSILK, BandwidthMediumband, 960, false, 2}},
		{0x5B, TOC{11, ModeSILK, BandwidthWideband, 2880, false, 3}},
		{0x60, TOC{12, ModeHybrid, BandwidthSuperwideband, 480, false, 0}},
		{0x7C, TOC{15, ModeHybrid, BandwidthFullband, 960, true, 0}},
		{0x80, TOC{16, ModeCELT, BandwidthNarrowband, 120, false, 0}},
		{0xA8, TOC{21, ModeCELT, BandwidthWideband, 240, false, 0}},
		{0xD0, TOC{26, ModeCELT, BandwidthSuperwideband, 480, false, 0}},
		{0xFF, TOC{31, ModeCELT, BandwidthFullband, 960, true, 3}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseTOC(tt.toc)); diff != "" {
			t.Errorf("ParseTOC(%#02x) mismatch (-want +got):\n%s", tt.toc, diff)
		}
	}
}

func TestParseTOCCoversEveryConfig(t *testing.T) {
	for config := 0; config < 32; config++ {
		toc := ParseTOC(byte(config << 3))
		if int(toc.Config) != config {
			t.Fatalf("config %d parsed as %d", config, toc.Config)
		}
		switch toc.FrameSize {
		case 120, 240, 480, 960, 1920, 2880:
		default:
			t.Errorf("config %d: frame size %d", config, toc.FrameSize)
		}
		if toc.Mode != ModeCELT && toc.FrameSize < 480 {
			t.Errorf("config %d: %v frame of %d samples", config, toc.Mode, toc.FrameSize)
		}
	}
}

func TestParsePacket(t *testing.T) {
	padded := append([]byte{0x0B, 0x41, 255, 3, 0x11, 0x22}, make([]byte, 257)...)

	tests := []struct {
		name    string
		data    []byte
		frames  [][]byte
		padding int
	}{
		{"code 0", []byte{0x08, 1, 2, 3}, [][]byte{{1, 2, 3}}, 0},
		{"code 0 empty frame", []byte{0x08}, [][]byte{{}}, 0},
		{"code 1", []byte{0x09, 1, 2, 3, 4}, [][]byte{{1, 2}, {3, 4}}, 0},
		{"code 2", []byte{0x0A, 1, 0xAA, 0xBB, 0xCC}, [][]byte{{0xAA}, {0xBB, 0xCC}}, 0},
		{"code 2 empty first", []byte{0x0A, 0, 0xBB}, [][]byte{{}, {0xBB}}, 0},
		{"code 3 cbr", []byte{0x0B, 0x03, 1, 2, 3, 4, 5, 6}, [][]byte{{1, 2}, {3, 4}, {5, 6}}, 0},
		{"code 3 vbr", []byte{0x0B, 0x82, 1, 0xAA, 0xBB, 0xCC}, [][]byte{{0xAA}, {0xBB, 0xCC}}, 0},
		{"code 3 padding", []byte{0x0B, 0x41, 2, 0x11, 0x22, 0, 0}, [][]byte{{0x11, 0x22}}, 2},
		{"code 3 long padding", padded, [][]byte{{0x11, 0x22}}, 257},
		{"code 3 vbr padding", []byte{0x0B, 0xC2, 1, 1, 0xAA, 0xBB, 0}, [][]byte{{0xAA}, {0xBB}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParsePacket(tt.data)
			if err != nil {
				t.Fatalf("ParsePacket: %v", err)
			}
			if info.FrameCount() != len(tt.frames) {
				t.Fatalf("FrameCount = %d, want %d", info.FrameCount(), len(tt.frames))
			}
			for i, f := range info.Frames {
				if !bytes.Equal(f, tt.frames[i]) {
					t.Errorf("frame %d = %v, want %v", i, f, tt.frames[i])
				}
			}
			if info.Padding != tt.padding {
				t.Errorf("Padding = %d, want %d", info.Padding, tt.padding)
			}
			if info.TOC != ParseTOC(tt.data[0]) {
				t.Errorf("TOC = %+v", info.TOC)
			}
		})
	}
}

func TestParsePacketRejectsBadFraming(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"code 1 odd", []byte{0x09, 1, 2, 3}},
		{"code 2 missing length", []byte{0x0A}},
		{"code 2 length overrun", []byte{0x0A, 5, 1}},
		{"code 2 truncated long length", []byte{0x0A, 252}},
		{"code 3 missing count", []byte{0x0B}},
		{"code 3 zero frames", []byte{0x0B, 0x00}},
		{"code 3 over 120 ms", []byte{0x1B, 0x03, 0, 0, 0}},
		{"code 3 too many short frames", []byte{0x83, 0x31}},
		{"code 3 cbr uneven", []byte{0x0B, 0x02, 1, 2, 3}},
		{"code 3 padding overrun", []byte{0x0B, 0x41, 9, 1}},
		{"code 3 padding truncated", []byte{0x0B, 0x41, 255}},
		{"code 3 vbr overrun", []byte{0x0B, 0x83, 1, 9, 0xAA}},
		{"frame over 1275 bytes", append([]byte{0xF8}, make([]byte, 1276)...)},
		{"code 1 frame over 1275 bytes", append([]byte{0xF9}, make([]byte, 2*1276)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePacket(tt.data); !errors.Is(err, ErrInvalidPacket) {
				t.Fatalf("ParsePacket error = %v, want ErrInvalidPacket", err)
			}
		})
	}
}

func TestParsePacketAcceptsLimits(t *testing.T) {
	// Two 60 ms frames make exactly 120 ms.
	if _, err := ParsePacket([]byte{0x1B, 0x02, 0, 0}); err != nil {
		t.Errorf("120 ms packet: %v", err)
	}
	// 48 frames of 2.5 ms.
	if _, err := ParsePacket([]byte{0x83, 48}); err != nil {
		t.Errorf("48 frame packet: %v", err)
	}
	if _, err := ParsePacket(append([]byte{0xF8}, make([]byte, 1275)...)); err != nil {
		t.Errorf("1275 byte frame: %v", err)
	}
}

func TestPacketSamples(t *testing.T) {
	tests := []struct {
		data  []byte
		rate  int
		count int
		want  int
	}{
		{[]byte{0xF8, 0xFF}, 48000, 1, 960},
		{[]byte{0xF8, 0xFF}, 8000, 1, 160},
		{[]byte{0x09, 0, 0}, 16000, 2, 640},
		{[]byte{0xFB, 0x03, 0, 0, 0}, 48000, 3, 2880},
		{[]byte{0x1B, 0x02}, 24000, 2, 2880},
		{[]byte{0x83, 0x30}, 12000, 48, 1440},
	}
	for _, tt := range tests {
		count, err := PacketFrameCount(tt.data)
		if err != nil || count != tt.count {
			t.Errorf("PacketFrameCount(%v) = %d, %v, want %d", tt.data, count, err, tt.count)
		}
		got, err := PacketSamples(tt.data, tt.rate)
		if err != nil || got != tt.want {
			t.Errorf("PacketSamples(%v, %d) = %d, %v, want %d", tt.data, tt.rate, got, err, tt.want)
		}
	}

	if _, err := PacketSamples([]byte{0x1B, 0x03}, 48000); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("180 ms packet: error = %v, want ErrInvalidPacket", err)
	}
	if _, err := PacketFrameCount([]byte{0x03}); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("code 3 without count: error = %v, want ErrInvalidPacket", err)
	}
}

func FuzzParsePacket(f *testing.F) {
	f.Add([]byte{0xF8, 0x11, 0x22, 0x33})
	f.Add([]byte{0x00, 0x10})
	f.Add([]byte{0x03, 0x02, 0x10, 0x20})
	f.Add([]byte{0x0B, 0xC2, 1, 1, 0xAA, 0xBB, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		info, err := ParsePacket(data)
		if err != nil {
			if !errors.Is(err, ErrInvalidPacket) {
				t.Fatalf("unexpected error class: %v", err)
			}
			return
		}
		if n := info.FrameCount(); n < 1 || n > maxPacketFrames {
			t.Fatalf("frame count %d", n)
		}
		if info.FrameCount()*info.TOC.FrameSize > maxPacketDuration {
			t.Fatalf("%d frames of %d samples", info.FrameCount(), info.TOC.FrameSize)
		}
		total := info.Padding
		for i, fr := range info.Frames {
			if len(fr) > maxFrameBytes {
				t.Fatalf("frame %d has %d bytes", i, len(fr))
			}
			total += len(fr)
		}
		if total >= len(data) {
			t.Fatalf("frames and padding cover %d of %d bytes", total, len(data))
		}
	})
}
