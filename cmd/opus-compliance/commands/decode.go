package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavelane/opusnative/internal/testvectors"
)

var (
	decodeRate     int
	decodeChannels int
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input.bit> [output.pcm]",
	Short: "Decode an opus_demo bitstream to raw 16-bit PCM",
	Long: `Decode every packet of an opus_demo .bit stream, report range coder
mismatches and optionally write the output as raw 16-bit little-endian PCM.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().IntVarP(&decodeRate, "rate", "r", 48000, "output sample rate")
	decodeCmd.Flags().IntVarP(&decodeChannels, "channels", "c", 2, "output channels (1 or 2)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	packets, err := testvectors.ReadBitstream(args[0])
	if err != nil {
		return err
	}
	res, err := testvectors.Decode(cmd.Context(), packets, decodeRate, decodeChannels, logger)
	if err != nil {
		return err
	}

	if len(args) == 2 {
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := testvectors.WritePCM(f, res.PCM); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "packets:   %d (%d lost, %d decode errors)\n", res.Packets, res.Lost, res.DecodeErrors)
	fmt.Fprintf(out, "samples:   %d per channel\n", len(res.PCM)/decodeChannels)
	fmt.Fprintf(out, "ranges:    %d checked, %d mismatched\n", res.RangeChecked, res.RangeMismatches)
	if res.RangeMismatches > 0 {
		return fmt.Errorf("range coder state mismatch, first at packet %d", res.FirstMismatch)
	}
	return nil
}
