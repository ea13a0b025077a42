package rangecoding

import "math/bits"

// Encoder is the range encoder of RFC 6716 Section 5.1, the exact inverse of
// Decoder. The codec itself only decodes; tests use the encoder to build
// frames with known symbol sequences.
type Encoder struct {
	buf        []byte
	storage    uint32
	offs       uint32
	endOffs    uint32
	endWindow  uint32
	nendBits   int
	nbitsTotal int
	rng        uint32
	low        uint32
	rem        int // Buffered output byte awaiting carry, -1 if none
	ext        uint32
	err        error
}

// NewEncoder returns an encoder writing into a buffer of size bytes.
func NewEncoder(size int) *Encoder {
	e := &Encoder{}
	e.Init(make([]byte, size))
	return e
}

// Init resets the encoder to write into buf.
func (e *Encoder) Init(buf []byte) {
	e.buf = buf
	e.storage = uint32(len(buf))
	e.offs = 0
	e.endOffs = 0
	e.endWindow = 0
	e.nendBits = 0
	e.nbitsTotal = codeBits + 1
	e.rng = codeTop
	e.low = 0
	e.rem = -1
	e.ext = 0
	e.err = nil
}

func (e *Encoder) writeByte(v uint32) {
	if e.offs+e.endOffs >= e.storage {
		e.err = ErrBufferFull
		return
	}
	e.buf[e.offs] = byte(v)
	e.offs++
}

func (e *Encoder) writeByteAtEnd(v uint32) {
	if e.offs+e.endOffs >= e.storage {
		e.err = ErrBufferFull
		return
	}
	e.endOffs++
	e.buf[e.storage-e.endOffs] = byte(v)
}

func (e *Encoder) carryOut(c uint32) {
	if c != symMax {
		carry := c >> symBits
		if e.rem >= 0 {
			e.writeByte(uint32(e.rem) + carry)
		}
		if e.ext > 0 {
			sym := (symMax + carry) & symMax
			for ; e.ext > 0; e.ext-- {
				e.writeByte(sym)
			}
		}
		e.rem = int(c & symMax)
		return
	}
	e.ext++
}

func (e *Encoder) normalize() {
	for e.rng <= codeBot {
		e.carryOut(e.low >> codeShift)
		e.low = (e.low << symBits) & (codeTop - 1)
		e.rng <<= symBits
		e.nbitsTotal += symBits
	}
}

// Encode codes the symbol occupying [fl, fh) of a table totalling ft.
func (e *Encoder) Encode(fl, fh, ft uint32) {
	r := e.rng / ft
	if fl > 0 {
		e.low += e.rng - r*(ft-fl)
		e.rng = r * (fh - fl)
	} else {
		e.rng -= r * (ft - fh)
	}
	e.normalize()
}

// EncodeBin is Encode for ft == 1<<bits.
func (e *Encoder) EncodeBin(fl, fh uint32, bits uint) {
	r := e.rng >> bits
	if fl > 0 {
		e.low += e.rng - r*((1<<bits)-fl)
		e.rng = r * (fh - fl)
	} else {
		e.rng -= r * ((1 << bits) - fh)
	}
	e.normalize()
}

// EncodeSymbol codes symbol k against a cumulative table, see Decoder.DecodeSymbol.
func (e *Encoder) EncodeSymbol(k int, cdf []uint16) {
	total := uint32(cdf[len(cdf)-1])
	e.EncodeBin(uint32(cdf[k]), uint32(cdf[k+1]), uint(bits.TrailingZeros32(total)))
}

// EncodeBitLogp codes a binary symbol with P(1) = 1/2^logp.
func (e *Encoder) EncodeBitLogp(val int, logp uint) {
	r := e.rng
	s := r >> logp
	r -= s
	if val != 0 {
		e.low += r
		e.rng = s
	} else {
		e.rng = r
	}
	e.normalize()
}

// EncodeICDF codes symbol s against an inverse cumulative table.
func (e *Encoder) EncodeICDF(s int, icdf []uint8, ftb uint) {
	r := e.rng >> ftb
	if s > 0 {
		e.low += e.rng - r*uint32(icdf[s-1])
		e.rng = r * uint32(icdf[s-1]-icdf[s])
	} else {
		e.rng -= r * uint32(icdf[s])
	}
	e.normalize()
}

// EncodeUniform codes fl uniformly distributed in [0, ft).
func (e *Encoder) EncodeUniform(fl, ft uint32) {
	ft--
	ftb := bits.Len32(ft)
	if ftb > uintBits {
		ftb -= uintBits
		ft1 := (ft >> uint(ftb)) + 1
		fl1 := fl >> uint(ftb)
		e.Encode(fl1, fl1+1, ft1)
		e.EncodeRawBits(fl&(1<<uint(ftb)-1), uint(ftb))
		return
	}
	e.Encode(fl, fl+1, ft+1)
}

// EncodeRawBits appends n raw bits to the back of the buffer.
func (e *Encoder) EncodeRawBits(fl uint32, n uint) {
	window := e.endWindow
	used := e.nendBits
	if used+int(n) > windowSz {
		for {
			e.writeByteAtEnd(window & symMax)
			window >>= symBits
			used -= symBits
			if used < symBits {
				break
			}
		}
	}
	window |= fl << uint(used)
	used += int(n)
	e.endWindow = window
	e.nendBits = used
	e.nbitsTotal += int(n)
}

// Tell returns the number of bits written so far, rounded up.
func (e *Encoder) Tell() int {
	return e.nbitsTotal - bits.Len32(e.rng)
}

// FinalRange returns the range register after Done.
func (e *Encoder) FinalRange() uint32 {
	return e.rng
}

// Done flushes the encoder and returns the whole buffer: range-coded bytes
// at the front, zero fill, raw bits at the back.
func (e *Encoder) Done() ([]byte, error) {
	l := codeBits - bits.Len32(e.rng)
	msk := uint32(codeTop-1) >> uint(l)
	end := (e.low + msk) &^ msk
	if (end | msk) >= e.low+e.rng {
		l++
		msk >>= 1
		end = (e.low + msk) &^ msk
	}
	for l > 0 {
		e.carryOut(end >> codeShift)
		end = (end << symBits) & (codeTop - 1)
		l -= symBits
	}
	if e.rem >= 0 || e.ext > 0 {
		e.carryOut(0)
	}
	window := e.endWindow
	used := e.nendBits
	for used >= symBits {
		e.writeByteAtEnd(window & symMax)
		window >>= symBits
		used -= symBits
	}
	if e.err != nil {
		return nil, e.err
	}
	clear(e.buf[e.offs : e.storage-e.endOffs])
	if used > 0 {
		if e.endOffs >= e.storage {
			return nil, ErrBufferFull
		}
		l = -l
		if e.offs+e.endOffs >= e.storage && l < used {
			return nil, ErrBufferFull
		}
		e.buf[e.storage-e.endOffs-1] |= byte(window)
	}
	return e.buf, nil
}
