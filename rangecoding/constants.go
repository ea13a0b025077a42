// Package rangecoding implements the range coder used by Opus per RFC 6716 Section 4.1.
//
// The decoder reads range-coded symbols from the front of a frame and raw
// bits from the back. Both halves share one buffer; the encoder in this
// package exists so tests can build frames symbol by symbol.
package rangecoding

import "errors"

// Constants from RFC 6716 Section 4.1 (libopus celt/mfrngcod.h).
const (
	symBits   = 8                          // Bits shifted in per renormalization step
	codeBits  = 32                         // Total state register bits
	symMax    = (1 << symBits) - 1         // 255
	codeTop   = 1 << (codeBits - 1)        // 0x80000000
	codeBot   = codeTop >> symBits         // 0x00800000, the 2^23 range floor
	codeShift = codeBits - symBits - 1     // 23
	codeExtra = (codeBits-2)%symBits + 1   // 7
	uintBits  = 8                          // Bits coded with the range coder in DecodeUniform
	windowSz  = 32                         // Raw-bit window size
	bitRes    = 3                          // TellFrac resolution (1/8 bit)
)

// BitRes is the number of fractional bits returned by TellFrac.
const BitRes = bitRes

var (
	// ErrInsufficientData is returned by Init for buffers shorter than 2 bytes.
	ErrInsufficientData = errors.New("rangecoding: insufficient data (need at least 2 bytes)")

	// ErrTruncatedPacket reports that raw bits were read past the start of the
	// raw-bit region.
	ErrTruncatedPacket = errors.New("rangecoding: raw bits exhausted")

	// ErrInvalidSymbol reports a uniform value outside its declared range.
	ErrInvalidSymbol = errors.New("rangecoding: decoded value out of range")

	// ErrBufferFull is returned by the encoder when the output buffer overflows.
	ErrBufferFull = errors.New("rangecoding: encoder buffer full")
)
