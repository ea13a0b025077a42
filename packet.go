// packet.go implements TOC parsing and frame extraction per RFC 6716 Section 3.

package opusnative

import (
	"fmt"

	"github.com/wavelane/opusnative/types"
)

// Mode is the coding mode of a packet.
type Mode = types.Mode

// Bandwidth is the coded audio bandwidth of a packet.
type Bandwidth = types.Bandwidth

const (
	ModeSILK   = types.ModeSILK
	ModeHybrid = types.ModeHybrid
	ModeCELT   = types.ModeCELT
)

const (
	BandwidthNarrowband    = types.BandwidthNarrowband
	BandwidthMediumband    = types.BandwidthMediumband
	BandwidthWideband      = types.BandwidthWideband
	BandwidthSuperwideband = types.BandwidthSuperwideband
	BandwidthFullband      = types.BandwidthFullband
)

const (
	maxFrameBytes     = 1275
	maxPacketFrames   = 48
	maxPacketDuration = 5760 // 120 ms at 48 kHz
)

// TOC is the decoded table-of-contents byte of an Opus packet.
type TOC struct {
	Config    uint8     // configuration 0-31
	Mode      Mode      // from Config
	Bandwidth Bandwidth // from Config
	FrameSize int       // samples per frame at 48 kHz
	Stereo    bool
	FrameCode uint8 // 0-3
}

// SamplesPerFrame returns the frame size at sampleRate.
func (t TOC) SamplesPerFrame(sampleRate int) int {
	return t.FrameSize * sampleRate / 48000
}

type configEntry struct {
	mode      Mode
	bandwidth Bandwidth
	frameSize int
}

// RFC 6716 Section 3.1, Table 2.
var configTable = [32]configEntry{
	{ModeSILK, BandwidthNarrowband, 480},
	{ModeSILK, BandwidthNarrowband, 960},
	{ModeSILK, BandwidthNarrowband, 1920},
	{ModeSILK, BandwidthNarrowband, 2880},
	{ModeSILK, BandwidthMediumband, 480},
	{ModeSILK, BandwidthMediumband, 960},
	{ModeSILK, BandwidthMediumband, 1920},
	{ModeSILK, BandwidthMediumband, 2880},
	{ModeSILK, BandwidthWideband, 480},
	{ModeSILK, BandwidthWideband, 960},
	{ModeSILK, BandwidthWideband, 1920},
	{ModeSILK, BandwidthWideband, 2880},
	{ModeHybrid, BandwidthSuperwideband, 480},
	{ModeHybrid, BandwidthSuperwideband, 960},
	{ModeHybrid, BandwidthFullband, 480},
	{ModeHybrid, BandwidthFullband, 960},
	{ModeCELT, BandwidthNarrowband, 120},
	{ModeCELT, BandwidthNarrowband, 240},
	{ModeCELT, BandwidthNarrowband, 480},
	{ModeCELT, BandwidthNarrowband, 960},
	{ModeCELT, BandwidthWideband, 120},
	{ModeCELT, BandwidthWideband, 240},
	{ModeCELT, BandwidthWideband, 480},
	{ModeCELT, BandwidthWideband, 960},
	{ModeCELT, BandwidthSuperwideband, 120},
	{ModeCELT, BandwidthSuperwideband, 240},
	{ModeCELT, BandwidthSuperwideband, 480},
	{ModeCELT, BandwidthSuperwideband, 960},
	{ModeCELT, BandwidthFullband, 120},
	{ModeCELT, BandwidthFullband, 240},
	{ModeCELT, BandwidthFullband, 480},
	{ModeCELT, BandwidthFullband, 960},
}

// ParseTOC decodes a TOC byte.
func ParseTOC(b byte) TOC {
	config := b >> 3
	e := configTable[config]
	return TOC{
		Config:    config,
		Mode:      e.mode,
		Bandwidth: e.bandwidth,
		FrameSize: e.frameSize,
		Stereo:    b&0x04 != 0,
		FrameCode: b & 0x03,
	}
}

// PacketInfo describes the frames of a packet.
type PacketInfo struct {
	TOC     TOC
	Frames  [][]byte // frame payloads, without TOC or length bytes
	Padding int      // padding bytes (code 3 only)
}

// FrameCount returns the number of frames in the packet.
func (p PacketInfo) FrameCount() int { return len(p.Frames) }

// ParsePacket splits a packet into its frames.
func ParsePacket(data []byte) (PacketInfo, error) {
	var frames [maxPacketFrames][]byte
	toc, n, padding, err := parseFrames(data, &frames)
	if err != nil {
		return PacketInfo{}, err
	}
	return PacketInfo{
		TOC:     toc,
		Frames:  append([][]byte(nil), frames[:n]...),
		Padding: padding,
	}, nil
}

// parseFrames fills frames with the payloads of data and returns the TOC,
// the frame count and the padding length. The frames alias data.
//
// Reference: libopus src/opus.c opus_packet_parse_impl
func parseFrames(data []byte, frames *[maxPacketFrames][]byte) (TOC, int, int, error) {
	if len(data) == 0 {
		return TOC{}, 0, 0, fmt.Errorf("%w: empty packet", ErrInvalidPacket)
	}
	toc := ParseTOC(data[0])
	rest := data[1:]
	padding := 0
	var count int

	switch toc.FrameCode {
	case 0:
		count = 1
		frames[0] = rest
	case 1:
		if len(rest)%2 != 0 {
			return toc, 0, 0, fmt.Errorf("%w: code 1 payload of %d bytes is odd", ErrInvalidPacket, len(rest))
		}
		count = 2
		half := len(rest) / 2
		frames[0], frames[1] = rest[:half], rest[half:]
	case 2:
		size, n, ok := parseFrameLength(rest)
		if !ok || size > len(rest)-n {
			return toc, 0, 0, fmt.Errorf("%w: code 2 frame length", ErrInvalidPacket)
		}
		rest = rest[n:]
		count = 2
		frames[0], frames[1] = rest[:size], rest[size:]
	case 3:
		if len(rest) < 1 {
			return toc, 0, 0, fmt.Errorf("%w: code 3 packet without frame count", ErrInvalidPacket)
		}
		ch := rest[0]
		rest = rest[1:]
		count = int(ch & 0x3F)
		if count == 0 || count*toc.FrameSize > maxPacketDuration {
			return toc, 0, 0, fmt.Errorf("%w: %d frames of %d samples", ErrInvalidPacket, count, toc.FrameSize)
		}
		if ch&0x40 != 0 {
			for {
				if len(rest) == 0 {
					return toc, 0, 0, fmt.Errorf("%w: truncated padding length", ErrInvalidPacket)
				}
				p := int(rest[0])
				rest = rest[1:]
				if p == 255 {
					padding += 254
				} else {
					padding += p
				}
				if p != 255 {
					break
				}
			}
			if padding > len(rest) {
				return toc, 0, 0, fmt.Errorf("%w: %d padding bytes in %d", ErrInvalidPacket, padding, len(rest))
			}
			rest = rest[:len(rest)-padding]
		}
		if ch&0x80 != 0 {
			var sizes [maxPacketFrames]int
			for i := 0; i < count-1; i++ {
				size, n, ok := parseFrameLength(rest)
				if !ok || size > len(rest)-n {
					return toc, 0, 0, fmt.Errorf("%w: code 3 length of frame %d", ErrInvalidPacket, i)
				}
				sizes[i] = size
				rest = rest[n:]
			}
			for i := 0; i < count-1; i++ {
				if sizes[i] > len(rest) {
					return toc, 0, 0, fmt.Errorf("%w: frame %d overruns the packet", ErrInvalidPacket, i)
				}
				frames[i] = rest[:sizes[i]]
				rest = rest[sizes[i]:]
			}
			frames[count-1] = rest
		} else {
			if len(rest)%count != 0 {
				return toc, 0, 0, fmt.Errorf("%w: %d bytes do not split into %d frames", ErrInvalidPacket, len(rest), count)
			}
			size := len(rest) / count
			for i := 0; i < count; i++ {
				frames[i] = rest[i*size : (i+1)*size]
			}
		}
	}

	for i := 0; i < count; i++ {
		if len(frames[i]) > maxFrameBytes {
			return toc, 0, 0, fmt.Errorf("%w: frame %d has %d bytes", ErrInvalidPacket, i, len(frames[i]))
		}
	}
	return toc, count, padding, nil
}

// parseFrameLength reads a one or two byte frame length (RFC 6716 Section
// 3.2.1).
func parseFrameLength(b []byte) (size, n int, ok bool) {
	if len(b) < 1 {
		return 0, 0, false
	}
	if b[0] < 252 {
		return int(b[0]), 1, true
	}
	if len(b) < 2 {
		return 0, 0, false
	}
	return 4*int(b[1]) + int(b[0]), 2, true
}

// PacketFrameCount returns the number of frames in a packet.
func PacketFrameCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty packet", ErrInvalidPacket)
	}
	switch data[0] & 0x03 {
	case 0:
		return 1, nil
	case 1, 2:
		return 2, nil
	}
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: code 3 packet without frame count", ErrInvalidPacket)
	}
	return int(data[1] & 0x3F), nil
}

// PacketSamples returns the number of samples per channel a packet decodes
// to at sampleRate.
func PacketSamples(data []byte, sampleRate int) (int, error) {
	count, err := PacketFrameCount(data)
	if err != nil {
		return 0, err
	}
	samples := count * ParseTOC(data[0]).SamplesPerFrame(sampleRate)
	if samples*25 > sampleRate*3 {
		return 0, fmt.Errorf("%w: %d samples exceed 120 ms", ErrInvalidPacket, samples)
	}
	return samples, nil
}
