package opusnative

import (
	"errors"
	"fmt"

	"github.com/wavelane/opusnative/celt"
	"github.com/wavelane/opusnative/rangecoding"
	"github.com/wavelane/opusnative/silk"
)

var (
	// ErrInvalidSampleRate reports a sample rate other than 8000, 12000,
	// 16000, 24000 or 48000 Hz.
	ErrInvalidSampleRate = errors.New("opus: invalid sample rate (must be 8000, 12000, 16000, 24000, or 48000)")

	// ErrInvalidChannels reports a channel count other than 1 or 2.
	ErrInvalidChannels = errors.New("opus: invalid channels (must be 1 or 2)")

	// ErrInvalidPacket reports a packet whose framing violates RFC 6716
	// Section 3: bad frame lengths, too many frames or more than 120 ms.
	ErrInvalidPacket = errors.New("opus: invalid packet")

	// ErrBufferTooSmall reports an output buffer that cannot hold the
	// decoded audio.
	ErrBufferTooSmall = errors.New("opus: output buffer too small")

	// ErrTruncatedPacket reports a frame that ran out of raw bits. Treat the
	// packet as lost.
	ErrTruncatedPacket = errors.New("opus: truncated packet")

	// ErrMalformedSilkFrame reports a SILK frame with parameters no
	// conforming encoder produces.
	ErrMalformedSilkFrame = errors.New("opus: malformed SILK frame")

	// ErrMalformedCeltFrame reports a CELT frame with parameters no
	// conforming encoder produces.
	ErrMalformedCeltFrame = errors.New("opus: malformed CELT frame")

	// ErrUnsupportedConfiguration reports a request the decoder cannot
	// serve at its rate and channel count, such as concealing a duration
	// that is not a multiple of 2.5 ms.
	ErrUnsupportedConfiguration = errors.New("opus: unsupported configuration")
)

func validSampleRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return true
	}
	return false
}

// codecError maps an error from the silk or celt layer onto the public
// taxonomy, keeping the original in the chain.
func codecError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rangecoding.ErrTruncatedPacket):
		return fmt.Errorf("%w: %w", ErrTruncatedPacket, err)
	case errors.Is(err, silk.ErrMalformedFrame):
		return fmt.Errorf("%w: %w", ErrMalformedSilkFrame, err)
	case errors.Is(err, celt.ErrMalformedFrame):
		return fmt.Errorf("%w: %w", ErrMalformedCeltFrame, err)
	}
	return fmt.Errorf("%w: %w", ErrUnsupportedConfiguration, err)
}
