// Command opus-compliance decodes Opus conformance vectors and checks the
// output against the reference decodes.
//
// Usage:
//
//	opus-compliance [flags] decode <input.bit> [output.pcm]
//	opus-compliance [flags] compare [vector...]
//
// Defaults come from OPUS_VECTOR_DIR, OPUS_MANIFEST, OPUS_QUALITY_THRESHOLD
// and OPUS_LOG_LEVEL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/wavelane/opusnative/cmd/opus-compliance/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := commands.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
