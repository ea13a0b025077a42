package rangecoding

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInitRejectsShortBuffer(t *testing.T) {
	for _, buf := range [][]byte{nil, {}, {0x42}} {
		var d Decoder
		if err := d.Init(buf); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Init(%v) = %v, want ErrInsufficientData", buf, err)
		}
	}
	if _, err := NewDecoder([]byte{0, 0}); err != nil {
		t.Fatalf("NewDecoder on 2 bytes: %v", err)
	}
}

func TestInitialState(t *testing.T) {
	d, err := NewDecoder([]byte{0x00, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if d.rng <= codeBot {
		t.Fatalf("rng = %#x after init, want > %#x", d.rng, codeBot)
	}
	// A fresh decoder has consumed exactly one bit of entropy.
	if got := d.Tell(); got != 1 {
		t.Errorf("Tell() = %d, want 1", got)
	}
	if got := d.TellFrac(); got != 8 {
		t.Errorf("TellFrac() = %d, want 8", got)
	}
}

type op struct {
	kind int
	val  uint32
	arg  uint32
}

var (
	testCDF   = []uint16{0, 10, 40, 41, 90, 128}
	testICDF  = []uint8{200, 140, 60, 25, 0}
	flatCDF16 = []uint16{0, 4096, 8192, 16384, 32768}
)

func randomOps(r *rand.Rand, n int) []op {
	ops := make([]op, n)
	for i := range ops {
		switch kind := r.IntN(6); kind {
		case 0:
			ops[i] = op{kind, uint32(r.IntN(len(testCDF) - 1)), 0}
		case 1:
			logp := uint32(1 + r.IntN(15))
			bit := uint32(0)
			if r.IntN(1<<logp) == 0 {
				bit = 1
			}
			ops[i] = op{kind, bit, logp}
		case 2:
			ops[i] = op{kind, uint32(r.IntN(len(testICDF))), 0}
		case 3:
			ft := uint32(2 + r.IntN(70000))
			ops[i] = op{kind, uint32(r.IntN(int(ft))), ft}
		case 4:
			n := uint32(1 + r.IntN(24))
			ops[i] = op{kind, uint32(r.Int64N(1 << n)), n}
		case 5:
			ops[i] = op{kind, uint32(r.IntN(len(flatCDF16) - 1)), 0}
		}
	}
	return ops
}

func TestRoundTrip(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*7))
		ops := randomOps(r, 1500)

		enc := NewEncoder(8192)
		for _, o := range ops {
			switch o.kind {
			case 0:
				enc.EncodeSymbol(int(o.val), testCDF)
			case 1:
				enc.EncodeBitLogp(int(o.val), uint(o.arg))
			case 2:
				enc.EncodeICDF(int(o.val), testICDF, 8)
			case 3:
				enc.EncodeUniform(o.val, o.arg)
			case 4:
				enc.EncodeRawBits(o.val, uint(o.arg))
			case 5:
				enc.EncodeSymbol(int(o.val), flatCDF16)
			}
		}
		encRange := enc.FinalRange()
		buf, err := enc.Done()
		if err != nil {
			t.Fatalf("seed %d: Done: %v", seed, err)
		}

		d, err := NewDecoder(buf)
		if err != nil {
			t.Fatal(err)
		}
		got := make([]uint32, len(ops))
		want := make([]uint32, len(ops))
		for i, o := range ops {
			want[i] = o.val
			switch o.kind {
			case 0:
				got[i] = uint32(d.DecodeSymbol(testCDF))
			case 1:
				got[i] = uint32(d.DecodeBitLogp(uint(o.arg)))
			case 2:
				got[i] = uint32(d.DecodeICDF(testICDF, 8))
			case 3:
				got[i] = d.DecodeUniform(o.arg)
			case 4:
				got[i] = d.DecodeRawBits(uint(o.arg))
			case 5:
				got[i] = uint32(d.DecodeSymbol(flatCDF16))
			}
			if d.rng <= codeBot {
				t.Fatalf("seed %d op %d: rng %#x not renormalized", seed, i, d.rng)
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("seed %d: decoded symbols differ (-want +got):\n%s", seed, diff)
		}
		if d.FinalRange() != encRange {
			t.Errorf("seed %d: final range %#x, encoder %#x", seed, d.FinalRange(), encRange)
		}
		if err := d.Err(); err != nil {
			t.Errorf("seed %d: unexpected error %v", seed, err)
		}
	}
}

func TestTellTracksEncoder(t *testing.T) {
	enc := NewEncoder(256)
	var tells []int
	for i := 0; i < 200; i++ {
		enc.EncodeBitLogp(i%3&1, 2)
		tells = append(tells, enc.Tell())
	}
	buf, err := enc.Done()
	if err != nil {
		t.Fatal(err)
	}
	d, _ := NewDecoder(buf)
	prev := 0
	for i := 0; i < 200; i++ {
		d.DecodeBitLogp(2)
		if d.Tell() != tells[i] {
			t.Fatalf("step %d: decoder Tell %d, encoder %d", i, d.Tell(), tells[i])
		}
		if d.TellFrac() < prev {
			t.Fatalf("step %d: TellFrac went backwards", i)
		}
		prev = d.TellFrac()
	}
}

func TestMissingInputReadsAsZero(t *testing.T) {
	d, err := NewDecoder([]byte{0xAA, 0x55})
	if err != nil {
		t.Fatal(err)
	}
	// Far more symbols than two bytes can carry: the front of the stream
	// is padded with zero bits, which is not an error.
	for i := 0; i < 500; i++ {
		d.DecodeICDF(testICDF, 8)
		d.DecodeBitLogp(1)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
}

func TestRawBitsExhaustion(t *testing.T) {
	d, err := NewDecoder([]byte{0x12, 0x34, 0x56})
	if err != nil {
		t.Fatal(err)
	}
	if got := d.DecodeRawBits(8); got != 0x56 {
		t.Errorf("first raw byte = %#x, want 0x56", got)
	}
	d.DecodeRawBits(16)
	if d.Err() != nil {
		t.Fatalf("24 raw bits from a 3 byte buffer should succeed, got %v", d.Err())
	}
	d.DecodeRawBits(1)
	if !errors.Is(d.Err(), ErrTruncatedPacket) {
		t.Fatalf("Err() = %v, want ErrTruncatedPacket", d.Err())
	}
}

func TestShrinkStorageHidesTail(t *testing.T) {
	d, _ := NewDecoder([]byte{0x00, 0x00, 0xAB, 0xCD})
	d.ShrinkStorage(1)
	if d.Storage() != 3 {
		t.Fatalf("Storage() = %d, want 3", d.Storage())
	}
	if got := d.DecodeRawBits(8); got != 0xAB {
		t.Errorf("raw byte after shrink = %#x, want 0xab", got)
	}
}
