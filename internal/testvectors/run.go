package testvectors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wavelane/opusnative"
)

// Result is the outcome of decoding one bitstream.
type Result struct {
	Packets      int
	Lost         int // empty records, concealed
	DecodeErrors int // packets the decoder rejected or concealed

	// RangeChecked counts packets whose final range was compared with the
	// encoder's; RangeMismatches those that differed. FirstMismatch is the
	// index of the first differing packet, or -1.
	RangeChecked    int
	RangeMismatches int
	FirstMismatch   int

	PCM []int16 // interleaved output
}

// Decode runs packets through a fresh decoder the way opus_demo -d does:
// each record is decoded into a 120 ms buffer and an empty record conceals
// as much audio as the previous packet held.
func Decode(ctx context.Context, packets []Packet, rate, channels int, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	d, err := opusnative.NewDecoder(rate, channels, opusnative.WithLogger(log))
	if err != nil {
		return nil, err
	}

	maxSamples := rate / 25 * 3
	buf := make([]int16, maxSamples*channels)
	res := &Result{Packets: len(packets), FirstMismatch: -1}
	for i, p := range packets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(p.Data) == 0 {
			res.Lost++
			n, err := conceal(d, buf)
			if err != nil {
				return nil, fmt.Errorf("packet %d: %w", i, err)
			}
			res.PCM = append(res.PCM, buf[:n*channels]...)
			continue
		}

		n, err := d.DecodeInt16(p.Data, buf, maxSamples, false)
		if err != nil {
			res.DecodeErrors++
			log.Warn("decode error", "packet", i, "err", err)
			if n == 0 {
				if n, err = conceal(d, buf); err != nil {
					return nil, fmt.Errorf("packet %d: %w", i, err)
				}
			}
			res.PCM = append(res.PCM, buf[:n*channels]...)
			continue
		}
		res.PCM = append(res.PCM, buf[:n*channels]...)

		if p.FinalRange != 0 {
			res.RangeChecked++
			if got := d.FinalRange(); got != p.FinalRange {
				res.RangeMismatches++
				if res.FirstMismatch < 0 {
					res.FirstMismatch = i
					log.Debug("final range mismatch", "packet", i, "got", got, "want", p.FinalRange)
				}
			}
		}
	}
	return res, nil
}

// conceal fills buf with one loss of the last packet's duration, or 20 ms
// before any packet.
func conceal(d *opusnative.Decoder, buf []int16) (int, error) {
	n := d.LastPacketDuration()
	if n == 0 {
		n = d.SampleRate() / 50
	}
	return d.DecodeInt16(nil, buf, n, false)
}

// Report is the verdict on one vector at one channel count.
type Report struct {
	Vector   string
	Channels int
	Quality  float64
	Passed   bool
	*Result
}

// Check decodes the vector under dir and scores it against the reference
// decode for channels. The vector passes when the quality meets threshold
// (or the vector's own threshold) and every recorded final range matches.
func Check(ctx context.Context, dir string, m *Manifest, v Vector, channels int, threshold float64, log *slog.Logger) (*Report, error) {
	packets, err := ReadBitstream(v.BitstreamPath(dir))
	if err != nil {
		return nil, err
	}
	ref, err := ReadPCM(v.ReferencePath(dir, channels))
	if err != nil {
		return nil, err
	}
	res, err := Decode(ctx, packets, m.Rate, channels, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name, err)
	}
	if v.Threshold != nil {
		threshold = *v.Threshold
	}
	q := Quality(res.PCM, ref)
	return &Report{
		Vector:   v.Name,
		Channels: channels,
		Quality:  q,
		Passed:   Passes(q, threshold) && res.RangeMismatches == 0,
		Result:   res,
	}, nil
}
