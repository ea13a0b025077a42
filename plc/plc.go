// Package plc keeps the Opus-layer bookkeeping that packet loss concealment
// depends on: which codec produced the last frame, whether that frame ended
// on a CELT redundancy frame, the parameters of the last packet and how many
// frames in a row have been concealed.
//
// The codecs conceal their own signal (silk and celt each carry a PLC); this
// state decides which of them runs and for how long.
//
// Reference: RFC 6716 Section 4.4, libopus src/opus_decoder.c
package plc

import "github.com/wavelane/opusnative/types"

// State tracks decoding history across packets. The zero value is a decoder
// that has not produced any audio. It holds no pointers, so assigning it
// takes a snapshot.
type State struct {
	// Parameters of the last packet whose TOC was accepted.
	mode      types.Mode
	bandwidth types.Bandwidth
	frameSize int
	stereo    bool

	// The last decoded or concealed frame.
	prevMode       types.Mode
	prevRedundancy bool
	decoded        bool

	lostCount int
}

// Reset forgets all history.
func (s *State) Reset() {
	*s = State{}
}

// RecordPacket stores the TOC parameters of an accepted packet. frameSize
// is in samples per channel at the output rate.
func (s *State) RecordPacket(mode types.Mode, bw types.Bandwidth, frameSize int, stereo bool) {
	s.mode = mode
	s.bandwidth = bw
	s.frameSize = frameSize
	s.stereo = stereo
}

// RecordFrame stores the outcome of one decoded frame. redundancy reports
// that the frame ended with a SILK to CELT redundancy frame, after which
// the CELT decoder holds the freshest history.
func (s *State) RecordFrame(mode types.Mode, redundancy bool) {
	s.prevMode = mode
	s.prevRedundancy = redundancy
	s.decoded = true
	s.lostCount = 0
}

// RecordLoss stores one concealed frame and returns the number of frames
// concealed in a row.
func (s *State) RecordLoss(mode types.Mode) int {
	s.prevMode = mode
	s.prevRedundancy = false
	s.lostCount++
	return s.lostCount
}

// HasHistory reports whether any frame has been decoded since the last
// reset. Without history there is nothing to extrapolate and a loss
// decodes as silence.
func (s *State) HasHistory() bool { return s.decoded }

// ConcealMode returns the codec that continues the signal over a loss: the
// mode of the last frame, or CELT when that frame ended on redundancy.
func (s *State) ConcealMode() types.Mode {
	if s.prevRedundancy {
		return types.ModeCELT
	}
	return s.prevMode
}

// PrevMode returns the mode of the last decoded or concealed frame.
func (s *State) PrevMode() types.Mode { return s.prevMode }

// PrevRedundancy reports whether the last frame ended with a SILK to CELT
// redundancy frame.
func (s *State) PrevRedundancy() bool { return s.prevRedundancy }

// Mode returns the mode of the last accepted packet.
func (s *State) Mode() types.Mode { return s.mode }

// Bandwidth returns the bandwidth of the last accepted packet.
func (s *State) Bandwidth() types.Bandwidth { return s.bandwidth }

// FrameSize returns the frame size of the last accepted packet in samples
// per channel at the output rate, or 0 before the first packet.
func (s *State) FrameSize() int { return s.frameSize }

// Stereo reports whether the last accepted packet was coded in stereo.
func (s *State) Stereo() bool { return s.stereo }

// LostCount returns the number of frames concealed since the last decoded
// frame.
func (s *State) LostCount() int { return s.lostCount }

// ChunkSize returns how many of n requested samples one concealment step
// covers at sampleRate when mode continues the signal. The codecs only
// conceal whole 2.5 (CELT), 5 (CELT), 10 or 20 ms frames, so longer gaps
// are split into 20 ms steps and odd sizes are rounded down.
func ChunkSize(n, sampleRate int, mode types.Mode) int {
	f20 := sampleRate / 50
	f10 := f20 / 2
	f5 := f10 / 2
	switch {
	case n >= f20:
		return f20
	case n > f10:
		return f10
	case mode != types.ModeSILK && n > f5 && n < f10:
		return f5
	}
	return n
}
