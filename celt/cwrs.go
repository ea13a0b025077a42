package celt

import (
	"math"

	"github.com/wavelane/opusnative/rangecoding"
)

// Combinatorial coding of PVQ codewords (CWRS).
// Reference: RFC 6716 Section 4.3.4.2, libopus celt/cwrs.c

const pvqSaturate = uint64(1) << 62

// pvqTable holds U(a, b) for a <= n, b <= k+1, the number of ways to place
// b-1 unit pulses in a dimensions with the first one positive. The table is
// rebuilt per codeword into reusable storage.
type pvqTable struct {
	u    []uint64
	cols int
}

func (t *pvqTable) build(n, k int) {
	t.cols = k + 2
	size := (n + 1) * t.cols
	if cap(t.u) < size {
		t.u = make([]uint64, size)
	}
	t.u = t.u[:size]
	clear(t.u[:t.cols])
	t.u[0] = 1
	for a := 1; a <= n; a++ {
		row := t.u[a*t.cols : (a+1)*t.cols]
		prev := t.u[(a-1)*t.cols : a*t.cols]
		row[0] = 0
		for b := 1; b < t.cols; b++ {
			row[b] = min(prev[b]+row[b-1]+prev[b-1], pvqSaturate)
		}
	}
}

// at returns U(a, b) using the symmetry U(a, b) == U(b, a).
func (t *pvqTable) at(a, b int) uint64 {
	if b >= t.cols {
		a, b = b, a
	}
	return t.u[a*t.cols+b]
}

// pvqSize returns V(n, k), the number of codewords of n dimensions and k
// pulses, or false if it does not fit the 32-bit range coder.
func (t *pvqTable) pvqSize(n, k int) (uint32, bool) {
	v := t.at(n, k) + t.at(n, k+1)
	if v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

// decodePulses reads one PVQ codeword of n dimensions and k pulses into y
// and returns its squared norm.
func (t *pvqTable) decodePulses(rd *rangecoding.Decoder, y []int, n, k int) (float32, error) {
	t.build(n, k)
	ft, ok := t.pvqSize(n, k)
	if !ok {
		return 0, ErrMalformedFrame
	}
	return t.indexToPulses(rd.DecodeUniform(ft), y, n, k), nil
}

// indexToPulses expands a codeword index (libopus cwrsi).
func (t *pvqTable) indexToPulses(idx uint32, y []int, n, k int) float32 {
	i := uint64(idx)
	var yy float32
	pos := 0
	emit := func(val int) {
		y[pos] = val
		pos++
		yy += float32(val * val)
	}
	for n > 2 {
		if k >= n {
			p := t.at(n, k+1)
			s := 0
			if i >= p {
				s = -1
				i -= p
			}
			k0 := k
			q := t.at(n, n)
			if q > i {
				k = n
				for {
					k--
					p = t.at(k, n)
					if p <= i {
						break
					}
				}
			} else {
				for p = t.at(n, k); p > i; p = t.at(n, k) {
					k--
				}
			}
			i -= p
			emit((k0 - k + s) ^ s)
		} else {
			p := t.at(k, n)
			q := t.at(k+1, n)
			if p <= i && i < q {
				i -= p
				emit(0)
			} else {
				s := 0
				if i >= q {
					s = -1
					i -= q
				}
				k0 := k
				for {
					k--
					p = t.at(k, n)
					if p <= i {
						break
					}
				}
				i -= p
				emit((k0 - k + s) ^ s)
			}
		}
		n--
	}
	p := uint64(2*k + 1)
	s := 0
	if i >= p {
		s = -1
		i -= p
	}
	k0 := k
	k = int((i + 1) >> 1)
	if k != 0 {
		i -= uint64(2*k - 1)
	}
	emit((k0 - k + s) ^ s)
	s = -int(i)
	emit((k + s) ^ s)
	return yy
}
