package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/esrlabs/chipmunk-core/config"
	"github.com/esrlabs/chipmunk-core/internal/logging"
	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/producer"
	"github.com/esrlabs/chipmunk-core/registry"
	"github.com/esrlabs/chipmunk-core/session"
	"github.com/esrlabs/chipmunk-core/sessionfile"
	"github.com/spf13/cobra"
)

func newObserveCmd() *cobra.Command {
	var (
		sourceKind  string
		sourcePath  string
		parserKind  string
		sessionPath string
		follow      bool
		chunkSize   int
	)

	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Pull a source through a parser into a session file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := registry.Default()
			src, err := reg.BuildSource(ctx, sourceKind, map[string]any{"path": sourcePath, "port": sourcePath, "command": sourcePath, "follow": follow})
			if err != nil {
				return fmt.Errorf("observe: build source: %w", err)
			}
			defer src.Close()

			p, err := reg.BuildParser(parserKind, nil)
			if err != nil {
				return fmt.Errorf("observe: build parser: %w", err)
			}

			writer, err := sessionfile.Open(sessionPath, sessionfile.WithChunkSize(chunkSize))
			if err != nil {
				return fmt.Errorf("observe: open session file: %w", err)
			}
			defer writer.Close()

			api := session.NewState(session.Options{
				Logger:     logging.Sub("session"),
				Writer:     writer,
				Bus:        session.NewBus(64),
				Breadcrumb: session.BreadcrumbParams{MinDistance: 4, MinOffset: 2},
			})
			if err := api.AddSource(session.SourceDescriptor{SourceID: 1, SourceKind: sourceKind, ParserKind: parserKind, Detail: sourcePath}); err != nil {
				return err
			}

			prod := producer.New(p, src, nil)
			var total int
			for {
				items, err := prod.ReadNextSegment(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						break
					}
					return fmt.Errorf("observe: producer: %w", err)
				}
				if items == nil {
					continue
				}
				done := false
				for _, item := range items {
					if item.Done {
						done = true
						continue
					}
					if item.Message == nil {
						continue
					}
					if _, err := writer.Write(1, *item.Message, msgrec.RenderOptions{}); err != nil {
						return fmt.Errorf("observe: write session file: %w", err)
					}
					total++
				}
				if done {
					break
				}
			}

			if _, err := api.UpdateSession(1); err != nil {
				return fmt.Errorf("observe: update session: %w", err)
			}
			fmt.Printf("ingested %d messages into %s\n", total, sessionPath)
			return api.Shutdown()
		},
	}

	cmd.Flags().StringVar(&sourceKind, "source-kind", "file", "source kind: file|pcap|serial|process")
	cmd.Flags().StringVar(&sourcePath, "source-path", "", "file path (file, pcap), port name (serial) or command (process) passed to the source factory")
	cmd.Flags().StringVar(&parserKind, "parser-kind", "text", "parser kind: text|dlt|dltft|someip")
	cmd.Flags().StringVar(&sessionPath, "session-file", "session.log", "output session file path")
	cmd.Flags().BoolVar(&follow, "follow", false, "keep reading as the source file grows")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", config.Defaults().ChunkSize, "rows per session-file chunk")
	return cmd
}
