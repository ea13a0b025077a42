package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wavelane/opusnative/internal/config"
	"github.com/wavelane/opusnative/internal/testvectors"
)

var (
	// Global flags
	verbose      bool
	vectorDir    string
	manifestPath string
	threshold    float64

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "opus-compliance",
	Short: "Opus decoder conformance tool",
	Long: `opus-compliance runs RFC 6716 / RFC 8251 conformance vectors through
the native Opus decoder.

Vectors are opus_demo .bit streams with reference decodes next to them
(name.dec for stereo output, namem.dec for mono output).

Environment:
  OPUS_VECTOR_DIR          vector directory (default testdata/opus_testvectors)
  OPUS_MANIFEST            YAML or JSON vector list (default: the 12 RFC vectors)
  OPUS_QUALITY_THRESHOLD   lowest passing quality score (default 0)
  OPUS_LOG_LEVEL           debug, info, warn or error (default info)

Examples:
  # Check every vector in both channel layouts
  opus-compliance compare --vectors ./opus_testvectors

  # Decode one stream to raw 16-bit PCM
  opus-compliance decode testvector07.bit out.pcm --channels 1`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&vectorDir, "vectors", "", "vector directory (overrides OPUS_VECTOR_DIR)")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "vector manifest (overrides OPUS_MANIFEST)")
	rootCmd.PersistentFlags().Float64Var(&threshold, "threshold", 0, "pass threshold (overrides OPUS_QUALITY_THRESHOLD)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(compareCmd)
}

// setup merges the environment defaults under the flags and installs the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv(cmd.Context())
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("vectors") {
		vectorDir = cfg.VectorDir
	}
	if !flags.Changed("manifest") {
		manifestPath = cfg.Manifest
	}
	if !flags.Changed("threshold") {
		threshold = cfg.QualityThreshold
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadManifest returns the manifest named by --manifest, or the default.
func loadManifest() (*testvectors.Manifest, error) {
	if manifestPath == "" {
		return testvectors.DefaultManifest(), nil
	}
	return testvectors.LoadManifest(manifestPath)
}
