package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wavelane/opusnative/internal/testvectors"
)

var compareChannels int

var compareCmd = &cobra.Command{
	Use:   "compare [vector...]",
	Short: "Check vectors against their reference decodes",
	Long: `Decode each vector at the manifest rate and score it against the
reference decode. A vector passes when its quality meets the threshold and
every recorded range coder state matches. With no arguments every vector in
the manifest is checked.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().IntVarP(&compareChannels, "channels", "c", 0, "output channels to check (0 checks both)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	vectors, err := m.Select(args)
	if err != nil {
		return err
	}
	layouts := []int{2, 1}
	switch compareChannels {
	case 0:
	case 1, 2:
		layouts = []int{compareChannels}
	default:
		return fmt.Errorf("--channels must be 0, 1 or 2, got %d", compareChannels)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VECTOR\tCHANNELS\tQUALITY\tRANGES\tRESULT")
	failed, total := 0, 0
	for _, v := range vectors {
		for _, channels := range layouts {
			total++
			r, err := testvectors.Check(cmd.Context(), vectorDir, m, v, channels, threshold, logger)
			if err != nil {
				failed++
				logger.Error("vector failed to run", "vector", v.Name, "channels", channels, "err", err)
				fmt.Fprintf(w, "%s\t%d\t-\t-\tERROR\n", v.Name, channels)
				continue
			}
			result := "PASS"
			if !r.Passed {
				failed++
				result = "FAIL"
			}
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%d/%d\t%s\n", v.Name, channels, r.Quality,
				r.RangeChecked-r.RangeMismatches, r.RangeChecked, result)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, total)
	}
	return nil
}
