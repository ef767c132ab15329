package main

import (
	"fmt"

	"github.com/esrlabs/chipmunk-core/config"
	"github.com/esrlabs/chipmunk-core/session"
	"github.com/esrlabs/chipmunk-core/sessionfile"
	"github.com/spf13/cobra"
)

func newGrabCmd() *cobra.Command {
	var (
		sessionPath string
		from, to    uint64
		chunkSize   int
	)

	cmd := &cobra.Command{
		Use:   "grab",
		Short: "Print a row range from a session file",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := sessionfile.Open(sessionPath, sessionfile.WithChunkSize(chunkSize))
			if err != nil {
				return fmt.Errorf("grab: open session file: %w", err)
			}
			defer w.Close()

			api := session.NewState(session.Options{Writer: w})
			if _, err := api.UpdateSession(0); err != nil {
				return fmt.Errorf("grab: update session: %w", err)
			}

			rows, err := api.Grab(cmd.Context(), session.RowRange{From: from, To: to})
			if err != nil {
				return fmt.Errorf("grab: %w", err)
			}
			for _, r := range rows {
				fmt.Printf("%d\t%s\n", r.Row, r.Line)
			}
			return api.Shutdown()
		},
	}

	cmd.Flags().StringVar(&sessionPath, "session-file", "session.log", "session file to grab from")
	cmd.Flags().Uint64Var(&from, "from", 0, "first row (inclusive)")
	cmd.Flags().Uint64Var(&to, "to", 0, "last row (inclusive)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", config.Defaults().ChunkSize, "rows per session-file chunk")
	return cmd
}
