package rangecoding

import "math/bits"

// Decoder implements the range decoder per RFC 6716 Section 4.1.
//
// A Decoder is created per frame and is never carried across packets.
// After every decode call rng is greater than 2^23.
type Decoder struct {
	buf        []byte
	storage    uint32 // Usable buffer size
	offs       uint32 // Front read offset
	endOffs    uint32 // Bytes consumed from the back for raw bits
	endWindow  uint32 // Raw-bit window
	nendBits   int    // Valid bits in endWindow
	nbitsTotal int    // Bits consumed, for Tell
	rng        uint32
	val        uint32
	ext        uint32 // Scale saved by Decode for Update
	rem        int    // Last byte read, its low bit not yet used
	rawUsed    int    // Raw bits handed to callers
	err        error
}

// NewDecoder returns a decoder initialized over buf.
func NewDecoder(buf []byte) (*Decoder, error) {
	d := &Decoder{}
	if err := d.Init(buf); err != nil {
		return nil, err
	}
	return d, nil
}

// Init initializes the decoder over buf (RFC 6716 Section 4.1.1).
func (d *Decoder) Init(buf []byte) error {
	if len(buf) < 2 {
		return ErrInsufficientData
	}
	d.buf = buf
	d.storage = uint32(len(buf))
	d.offs = 0
	d.endOffs = 0
	d.endWindow = 0
	d.nendBits = 0
	d.rawUsed = 0
	d.err = nil
	d.ext = 0
	d.nbitsTotal = codeBits + 1 - ((codeBits-codeExtra)/symBits)*symBits
	d.rng = 1 << codeExtra
	d.rem = int(d.readByte())
	d.val = d.rng - 1 - uint32(d.rem>>(symBits-codeExtra))
	d.normalize()
	return nil
}

func (d *Decoder) readByte() byte {
	if d.offs < d.storage {
		b := d.buf[d.offs]
		d.offs++
		return b
	}
	return 0
}

func (d *Decoder) readByteFromEnd() byte {
	if d.endOffs < d.storage {
		d.endOffs++
		return d.buf[d.storage-d.endOffs]
	}
	return 0
}

// normalize restores rng > 2^23, shifting in zero bits past the end of the input.
func (d *Decoder) normalize() {
	for d.rng <= codeBot {
		d.nbitsTotal += symBits
		d.rng <<= symBits
		sym := d.rem
		d.rem = int(d.readByte())
		sym = (sym<<symBits | d.rem) >> (symBits - codeExtra)
		d.val = ((d.val << symBits) + uint32(symMax&^sym)) & (codeTop - 1)
	}
}

// Decode returns the cumulative frequency of the next symbol for a table
// whose total is ft. It must be followed by Update.
func (d *Decoder) Decode(ft uint32) uint32 {
	d.ext = d.rng / ft
	s := d.val / d.ext
	return ft - min(s+1, ft)
}

// DecodeBin is Decode for ft == 1<<bits.
func (d *Decoder) DecodeBin(bits uint) uint32 {
	d.ext = d.rng >> bits
	s := d.val / d.ext
	ft := uint32(1) << bits
	return ft - min(s+1, ft)
}

// Update narrows the range to the symbol occupying [fl, fh) of ft.
func (d *Decoder) Update(fl, fh, ft uint32) {
	s := d.ext * (ft - fh)
	d.val -= s
	if fl > 0 {
		d.rng = d.ext * (fh - fl)
	} else {
		d.rng -= s
	}
	d.normalize()
}

// DecodeSymbol decodes one symbol against a cumulative frequency table.
// cdf has one more entry than there are symbols: cdf[0] == 0 and the last
// entry is the total, which must be a power of two. Symbol k occupies
// [cdf[k], cdf[k+1]).
func (d *Decoder) DecodeSymbol(cdf []uint16) int {
	total := uint32(cdf[len(cdf)-1])
	fs := d.DecodeBin(uint(bits.TrailingZeros32(total)))
	k := 0
	for k < len(cdf)-2 && uint32(cdf[k+1]) <= fs {
		k++
	}
	d.Update(uint32(cdf[k]), uint32(cdf[k+1]), total)
	return k
}

// DecodeBitLogp decodes a binary symbol whose probability of being 1 is
// 1/2^logp (RFC 6716 Section 4.1.3.2).
func (d *Decoder) DecodeBitLogp(logp uint) int {
	r := d.rng
	v := d.val
	s := r >> logp
	if v < s {
		d.rng = s
		d.normalize()
		return 1
	}
	d.val = v - s
	d.rng = r - s
	d.normalize()
	return 0
}

// DecodeICDF decodes a symbol using an inverse cumulative distribution table
// with a total of 1<<ftb (RFC 6716 Section 4.1.3.3). The table is
// decreasing and ends in 0.
func (d *Decoder) DecodeICDF(icdf []uint8, ftb uint) int {
	s := d.rng
	v := d.val
	r := s >> ftb
	k := -1
	var t uint32
	for {
		t = s
		k++
		s = r * uint32(icdf[k])
		if v >= s {
			break
		}
	}
	d.val = v - s
	d.rng = t - s
	d.normalize()
	return k
}

// DecodeUniform decodes a value uniformly distributed in [0, ft)
// (RFC 6716 Section 4.1.5).
func (d *Decoder) DecodeUniform(ft uint32) uint32 {
	if ft <= 1 {
		return 0
	}
	ft--
	ftb := bits.Len32(ft)
	if ftb > uintBits {
		ftb -= uintBits
		ft1 := (ft >> uint(ftb)) + 1
		s := d.Decode(ft1)
		d.Update(s, s+1, ft1)
		t := s<<uint(ftb) | d.DecodeRawBits(uint(ftb))
		if t <= ft {
			return t
		}
		if d.err == nil {
			d.err = ErrInvalidSymbol
		}
		return ft
	}
	ft++
	s := d.Decode(ft)
	d.Update(s, s+1, ft)
	return s
}

// DecodeRawBits reads n raw bits (n <= 25) from the end of the buffer
// (RFC 6716 Section 4.1.4).
func (d *Decoder) DecodeRawBits(n uint) uint32 {
	if n == 0 {
		return 0
	}
	window := d.endWindow
	avail := d.nendBits
	if avail < int(n) {
		for {
			window |= uint32(d.readByteFromEnd()) << uint(avail)
			avail += symBits
			if avail > windowSz-symBits {
				break
			}
		}
	}
	v := window & (1<<n - 1)
	window >>= n
	avail -= int(n)
	d.endWindow = window
	d.nendBits = avail
	d.nbitsTotal += int(n)
	d.rawUsed += int(n)
	if d.rawUsed > int(d.endOffs)*8 && d.err == nil {
		d.err = ErrTruncatedPacket
	}
	return v
}

// Tell returns the number of whole bits consumed so far, rounded up.
func (d *Decoder) Tell() int {
	return d.nbitsTotal - bits.Len32(d.rng)
}

var tellFracCorrection = [8]uint32{35733, 38967, 42495, 46340, 50535, 55109, 60097, 65535}

// TellFrac returns the bits consumed in 1/8 bit units.
func (d *Decoder) TellFrac() int {
	nbits := d.nbitsTotal << bitRes
	l := bits.Len32(d.rng)
	r := d.rng >> uint(l-16)
	b := int(r>>12) - 8
	if r > tellFracCorrection[b] {
		b++
	}
	return nbits - (l<<3 + b)
}

// SkipToEnd marks every bit of the frame as consumed without moving the
// decoder. CELT uses it for silence frames.
func (d *Decoder) SkipToEnd() {
	if t := d.Tell(); t < d.StorageBits() {
		d.nbitsTotal += d.StorageBits() - t
	}
}

// StorageBits returns the size of the usable buffer in bits.
func (d *Decoder) StorageBits() int {
	return int(d.storage) * 8
}

// Storage returns the usable buffer size in bytes.
func (d *Decoder) Storage() int {
	return int(d.storage)
}

// ShrinkStorage removes n trailing bytes from the usable buffer. Hybrid
// frames use it to hide a CELT redundancy frame from the main decoder.
func (d *Decoder) ShrinkStorage(n int) {
	if n <= 0 {
		return
	}
	if uint32(n) >= d.storage {
		d.storage = 0
	} else {
		d.storage -= uint32(n)
	}
	d.offs = min(d.offs, d.storage)
	d.endOffs = min(d.endOffs, d.storage)
}

// FinalRange returns the range register, which equals the encoder's final
// range once a frame has been fully decoded.
func (d *Decoder) FinalRange() uint32 {
	return d.rng
}

// Err returns the first error recorded while decoding, or nil.
func (d *Decoder) Err() error {
	return d.err
}
