package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/chess-puzzle-render/internal/obslog"
	"github.com/park285/chess-puzzle-render/internal/puzzle"
	"github.com/park285/chess-puzzle-render/internal/renderbuilder"
	"github.com/park285/chess-puzzle-render/internal/renderclient"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
)

func newRenderCmd() *cobra.Command {
	var (
		flags       pipelineFlags
		keepPartial bool
		server      string
	)
	cmd := &cobra.Command{
		Use:   "render <puzzle-file>",
		Short: "Render the initial board and every solution half-move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if server != "" {
				return renderRemote(ctx, cmd, server, args[0])
			}
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			p, err := puzzle.Load(args[0])
			if err != nil {
				return err
			}

			logger := obslog.L()
			deps, err := renderbuilder.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			seq := deps.NewSequencer("", cfg.OutputDir)
			m, err := seq.Run(ctx, p)
			if err != nil {
				if !keepPartial {
					sequencer.Discard(m)
				}
				logger.Error("render failed", zap.String("puzzle", args[0]), zap.Bool("kept_partial", keepPartial), zap.Error(err))
				return err
			}
			return printJSON(cmd, m)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&keepPartial, "keep-partial", false, "leave frames of a failed run on disk")
	cmd.Flags().StringVar(&server, "server", "", "submit to a running puzzlerender server instead of rendering locally")
	return cmd
}

func renderRemote(ctx context.Context, cmd *cobra.Command, server, path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read puzzle: %w", err)
	}
	client := renderclient.NewClient(server)
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("render server %s unavailable: %w", server, err)
	}
	obslog.L().Debug("render server healthy", zap.String("server", server), zap.String("store", health.Store))
	resp, err := client.Render(ctx, doc)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
