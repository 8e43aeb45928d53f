package renderbuilder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chess-puzzle-render/internal/board"
	"github.com/park285/chess-puzzle-render/internal/config"
	"github.com/park285/chess-puzzle-render/internal/render"
	"github.com/park285/chess-puzzle-render/internal/runstore"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
)

// Deps holds everything a sequencing run needs, shared across runs.
type Deps struct {
	Config    *config.AppConfig
	Template  *board.Template
	Geometry  board.Geometry
	Raster    *render.Rasterizer
	Store     runstore.Store
	StoreKind string

	logger  *zap.Logger
	closers []func() error
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	geom := board.NewGeometry(cfg.SquareSize)
	tpl := board.DefaultTemplate(cfg.SquareSize)
	if cfg.TemplatePath != "" {
		loaded, err := board.LoadTemplate(cfg.TemplatePath)
		if err != nil {
			return nil, err
		}
		tpl = loaded
	}

	format, err := render.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	raster := render.NewRasterizer(render.Options{
		Width:       cfg.OutputWidth,
		Height:      cfg.OutputHeight,
		Format:      format,
		JPEGQuality: cfg.JPEGQuality,
		EmitSVG:     cfg.EmitSVG,
	}, logger.Named("render"))

	d := &Deps{
		Config:   cfg,
		Template: tpl,
		Geometry: geom,
		Raster:   raster,
		logger:   logger,
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := runstore.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init run store: %w", err)
		}
		d.Store = runstore.NewRedisStore(rdb)
		d.StoreKind = "redis"
		d.closers = append(d.closers, rdb.Close)
	} else {
		d.Store = runstore.NewMemoryStore()
		d.StoreKind = "memory"
	}

	logger.Info("render pipeline ready",
		zap.Int("square_size", cfg.SquareSize),
		zap.Int("frames_per_move", cfg.FramesPerMove),
		zap.String("format", string(format)),
		zap.String("template", templateName(cfg.TemplatePath)),
		zap.String("store", d.StoreKind))
	return d, nil
}

// NewSequencer prepares a run writing under dir. An empty runID gets a UUID;
// an empty dir becomes OUTPUT_DIR/<runID>. Transitions go to the run store.
func (d *Deps) NewSequencer(runID, dir string) *sequencer.Sequencer {
	if runID == "" {
		runID = uuid.NewString()
	}
	if dir == "" {
		dir = filepath.Join(d.Config.OutputDir, runID)
	}
	seq := sequencer.New(sequencer.Options{
		RunID:         runID,
		Dir:           dir,
		FramesPerMove: d.Config.FramesPerMove,
		Workers:       d.Config.RenderWorkers,
	}, d.Template, d.Geometry, d.Raster, d.logger.Named("sequencer"))
	seq.OnStateChange(runstore.Listener(d.Store, func(err error) {
		d.logger.Warn("run store save failed", zap.String("run_id", runID), zap.Error(err))
	}))
	return seq
}

func (d *Deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func templateName(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}
