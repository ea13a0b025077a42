// Package testvectors reads the RFC 6716 / RFC 8251 conformance vectors and
// runs them through the decoder.
//
// A vector is an opus_demo .bit stream plus the reference decodes
// (name.dec for stereo output, namem.dec for mono output) as raw 16-bit
// little-endian PCM at 48 kHz.
package testvectors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrTruncatedHeader reports a packet header shorter than 8 bytes.
	ErrTruncatedHeader = errors.New("testvectors: truncated packet header")

	// ErrTruncatedPacket reports packet data shorter than its header says.
	ErrTruncatedPacket = errors.New("testvectors: truncated packet data")

	// ErrOddPCM reports a PCM file with an odd number of bytes.
	ErrOddPCM = errors.New("testvectors: PCM data is not a whole number of samples")
)

// Packet is one record of an opus_demo bitstream.
type Packet struct {
	// Data is the Opus packet including the TOC byte. Empty means the
	// packet was lost.
	Data []byte

	// FinalRange is the encoder's range coder state after the packet, or 0
	// when the encoder did not record one.
	FinalRange uint32
}

// ParseBitstream splits opus_demo output into packets. Each record is a
// big-endian uint32 length, a big-endian uint32 final range and the packet
// bytes.
func ParseBitstream(data []byte) ([]Packet, error) {
	var packets []Packet
	for off := 0; off < len(data); {
		if len(data)-off < 8 {
			return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrTruncatedHeader, len(data)-off, off)
		}
		n := binary.BigEndian.Uint32(data[off:])
		rng := binary.BigEndian.Uint32(data[off+4:])
		off += 8
		if uint64(n) > uint64(len(data)-off) {
			return nil, fmt.Errorf("%w: packet %d wants %d bytes, %d left", ErrTruncatedPacket, len(packets), n, len(data)-off)
		}
		packets = append(packets, Packet{
			Data:       append([]byte(nil), data[off:off+int(n)]...),
			FinalRange: rng,
		})
		off += int(n)
	}
	return packets, nil
}

// ReadBitstream reads and parses an opus_demo .bit file.
func ReadBitstream(path string) ([]Packet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testvectors: %w", err)
	}
	packets, err := ParseBitstream(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return packets, nil
}

// WriteBitstream writes packets in opus_demo format.
func WriteBitstream(w io.Writer, packets []Packet) error {
	var hdr [8]byte
	for _, p := range packets {
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(p.Data)))
		binary.BigEndian.PutUint32(hdr[4:], p.FinalRange)
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := w.Write(p.Data); err != nil {
			return err
		}
	}
	return nil
}

// ReadPCM reads raw 16-bit little-endian samples.
func ReadPCM(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testvectors: %w", err)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrOddPCM)
	}
	pcm := make([]int16, len(data)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return pcm, nil
}

// WritePCM writes samples as raw 16-bit little-endian PCM.
func WritePCM(w io.Writer, pcm []int16) error {
	buf := make([]byte, 2*len(pcm))
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	_, err := w.Write(buf)
	return err
}
