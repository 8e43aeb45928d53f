package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/chess-puzzle-render/internal/config"
	"github.com/park285/chess-puzzle-render/internal/obslog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "puzzlerender",
		Short:         "Render chess puzzle solutions into animation frames",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := obslog.InitFromEnv(); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = obslog.L().Sync()
		},
	}
	root.AddCommand(newRenderCmd(), newServeCmd(), newFenCmd())
	return root
}

// pipelineFlags are the config keys every rendering command may override.
type pipelineFlags struct {
	frames     int
	squareSize int
	out        string
	format     string
	template   string
	emitSVG    bool
	workers    int
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.frames, "frames", 0, "sub-frames per half-move (FRAMES_PER_MOVE)")
	fs.IntVar(&f.squareSize, "square-size", 0, "board square size in pixels (SQUARE_SIZE)")
	fs.StringVarP(&f.out, "out", "o", "", "output directory (OUTPUT_DIR)")
	fs.StringVar(&f.format, "format", "", "png or jpg (OUTPUT_FORMAT)")
	fs.StringVar(&f.template, "template", "", "board template SVG (TEMPLATE_PATH)")
	fs.BoolVar(&f.emitSVG, "emit-svg", false, "write the scene SVG next to every raster (EMIT_SVG)")
	fs.IntVar(&f.workers, "workers", 0, "parallel raster writes (RENDER_WORKERS)")
}

// load reads the config and applies only the flags set on the command line.
func (f *pipelineFlags) load(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fs := cmd.Flags()
	if fs.Changed("frames") {
		cfg.FramesPerMove = f.frames
	}
	if fs.Changed("square-size") {
		cfg.SquareSize = f.squareSize
	}
	if fs.Changed("out") {
		cfg.OutputDir = f.out
	}
	if fs.Changed("format") {
		cfg.OutputFormat = f.format
	}
	if fs.Changed("template") {
		cfg.TemplatePath = f.template
	}
	if fs.Changed("emit-svg") {
		cfg.EmitSVG = f.emitSVG
	}
	if fs.Changed("workers") {
		cfg.RenderWorkers = f.workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	obslog.L().Debug("config resolved", zap.Any("config", cfg))
	return cfg, nil
}
