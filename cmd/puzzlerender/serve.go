package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/chess-puzzle-render/internal/httpapi"
	"github.com/park285/chess-puzzle-render/internal/obslog"
	"github.com/park285/chess-puzzle-render/internal/renderbuilder"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
)

func newServeCmd() *cobra.Command {
	var (
		flags       pipelineFlags
		addr        string
		concurrent  int
		queueWait   time.Duration
		keepPartial bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := obslog.L()
			deps, err := renderbuilder.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			srv := httpapi.NewServer(
				func(runID string) *sequencer.Sequencer { return deps.NewSequencer(runID, "") },
				deps.Store,
				httpapi.Options{
					Concurrent:  concurrent,
					QueueWait:   queueWait,
					KeepPartial: keepPartial,
					StoreKind:   deps.StoreKind,
				},
				logger.Named("http"),
			)
			return srv.ListenAndServe(ctx, cfg.HTTPAddr)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (HTTP_ADDR)")
	cmd.Flags().IntVar(&concurrent, "concurrent", 1, "renders allowed at once")
	cmd.Flags().DurationVar(&queueWait, "queue-wait", 30*time.Second, "how long a request waits for a render slot")
	cmd.Flags().BoolVar(&keepPartial, "keep-partial", false, "leave frames of failed runs on disk")
	return cmd
}
