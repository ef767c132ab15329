// Command chipmunk-ingest is a small external-facing harness that wires
// a source + parser pair into a producer.Producer and a session.State,
// exercising the ingestion pipeline end to end (spec.md §11 ambient
// stack).
package main

import (
	"fmt"
	"os"

	"github.com/esrlabs/chipmunk-core/internal/logging"
	"github.com/spf13/cobra"
)

var flagDebug bool

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chipmunk-ingest",
		Short: "Ingest, index and export logs through the chipmunk-core pipeline",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(flagDebug)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	cmd.AddCommand(newObserveCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newGrabCmd())
	return cmd
}
