// Package types defines the coding mode and audio bandwidth enums shared by
// the Opus layer, the loss tracker and the conformance tools.
package types

import "fmt"

// Mode is the Opus coding mode selected by a packet's TOC byte.
type Mode uint8

const (
	ModeSILK   Mode = iota // SILK-only (configs 0-11)
	ModeHybrid             // SILK below 8 kHz, CELT above (configs 12-15)
	ModeCELT               // CELT-only (configs 16-31)
)

func (m Mode) String() string {
	switch m {
	case ModeSILK:
		return "SILK"
	case ModeHybrid:
		return "Hybrid"
	case ModeCELT:
		return "CELT"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Bandwidth is the coded audio bandwidth.
type Bandwidth uint8

const (
	BandwidthNarrowband    Bandwidth = iota // 4 kHz audio
	BandwidthMediumband                     // 6 kHz audio
	BandwidthWideband                       // 8 kHz audio
	BandwidthSuperwideband                  // 12 kHz audio
	BandwidthFullband                       // 20 kHz audio
)

func (b Bandwidth) String() string {
	switch b {
	case BandwidthNarrowband:
		return "NB"
	case BandwidthMediumband:
		return "MB"
	case BandwidthWideband:
		return "WB"
	case BandwidthSuperwideband:
		return "SWB"
	case BandwidthFullband:
		return "FB"
	}
	return fmt.Sprintf("Bandwidth(%d)", uint8(b))
}

// SILKSampleRate returns the rate SILK runs at for the bandwidth. Hybrid
// packets (SWB and FB) code their low band at 16 kHz.
func (b Bandwidth) SILKSampleRate() int {
	switch b {
	case BandwidthNarrowband:
		return 8000
	case BandwidthMediumband:
		return 12000
	}
	return 16000
}

// CELTEndBand returns the first CELT band above the bandwidth.
func (b Bandwidth) CELTEndBand() int {
	switch b {
	case BandwidthNarrowband:
		return 13
	case BandwidthMediumband, BandwidthWideband:
		return 17
	case BandwidthSuperwideband:
		return 19
	}
	return 21
}
