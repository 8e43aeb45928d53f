package animate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/park285/chess-puzzle-render/internal/board"
	"go.uber.org/zap"
)

// DefaultFramesPerMove matches a one-second slide at 24 fps.
const DefaultFramesPerMove = 24

// Rasterizer writes one scene to one file.
type Rasterizer interface {
	RenderFile(ctx context.Context, scene board.Scene, path string) error
	Ext() string
}

type Options struct {
	FramesPerMove int
	// Dir receives the frame files.
	Dir string
	// Workers bounds concurrent raster writes within one half-move.
	Workers int
}

// Frame is one rendered sub-frame of a half-move.
type Frame struct {
	Order int
	Sub   int
	Path  string
	Scene board.Scene
}

// Result describes one animated half-move.
type Result struct {
	Order    int
	Move     board.Move
	Piece    board.Piece
	NewTag   string
	Captured *board.Piece
	Frames   []Frame
	// Final is the settled scene handed to the next half-move.
	Final board.Scene
}

// Paths lists the frame files in sub-frame order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Path
	}
	return out
}

type Animator struct {
	raster Rasterizer
	opts   Options
	logger *zap.Logger
}

func New(raster Rasterizer, opts Options, logger *zap.Logger) *Animator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FramesPerMove <= 0 {
		opts.FramesPerMove = DefaultFramesPerMove
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Animator{raster: raster, opts: opts, logger: logger}
}

// FrameName encodes (order, sub) so that names sort chronologically.
func FrameName(order, sub int, ext string) string {
	return fmt.Sprintf("board-update-%03d-%03d.%s", order, sub, ext)
}

// Plan computes every sub-frame scene of one half-move without touching disk.
// The piece leaves its origin tag at once; a captured piece stays on its
// square until the last sub-frame.
func (a *Animator) Plan(scene board.Scene, c board.Color, text string, order int) (*Result, error) {
	move, err := board.ParseMove(c, text)
	if err != nil {
		return nil, err
	}
	geom := scene.Geometry()
	fromPx := geom.ToPixel(move.From)
	toPx := geom.ToPixel(move.To)

	piece, ok := scene.FindPieceAt(move.From)
	if !ok {
		return nil, &board.PieceNotFoundError{Move: move.Text, Square: move.From}
	}
	if piece.Color != c {
		a.logger.Warn("moving piece belongs to the other side",
			zap.String("move", move.Text),
			zap.String("tag", piece.Tag),
			zap.String("expected", c.String()))
	}

	res := &Result{
		Order:  order,
		Move:   move,
		Piece:  piece,
		NewTag: board.Retag(piece.Tag, move.To, move.Promotion),
	}
	if occupant, ok := scene.FindPieceAt(move.To); ok {
		res.Captured = &occupant
	}

	n := a.opts.FramesPerMove
	points := board.Interpolate(fromPx, toPx, n)
	a.logger.Debug("half-move path",
		zap.Int("order", order),
		zap.String("move", move.Text),
		zap.Any("from", fromPx),
		zap.Any("to", toPx),
		zap.Any("points", points))

	ext := a.raster.Ext()
	res.Frames = make([]Frame, 0, len(points))
	for i, pt := range points {
		working := scene.WithoutTag(piece.Tag)
		if i == len(points)-1 && res.Captured != nil {
			working = working.WithoutTag(res.Captured.Tag)
		}
		working, err = working.WithPieceAt(piece.Color, res.NewTag, pt)
		if err != nil {
			return nil, err
		}
		res.Frames = append(res.Frames, Frame{
			Order: order,
			Sub:   i,
			Path:  filepath.Join(a.opts.Dir, FrameName(order, i, ext)),
			Scene: working,
		})
	}
	res.Final = res.Frames[len(res.Frames)-1].Scene
	return res, nil
}

// Animate plans a half-move and rasterizes its frames. Scenes are computed in
// sub-frame order; the raster writes run concurrently. On any failure the
// frames already written for this half-move are removed.
func (a *Animator) Animate(ctx context.Context, scene board.Scene, c board.Color, text string, order int) (*Result, error) {
	res, err := a.Plan(scene, c, text, order)
	if err != nil {
		a.logger.Error("half-move rejected",
			zap.Int("order", order),
			zap.String("move", text),
			zap.Error(err))
		return nil, err
	}

	if err := a.rasterize(ctx, res.Frames); err != nil {
		a.removeFrames(res.Frames)
		a.logger.Error("half-move render failed",
			zap.Int("order", order),
			zap.String("move", text),
			zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("order", order),
		zap.String("move", text),
		zap.String("tag", res.Piece.Tag),
		zap.String("new_tag", res.NewTag),
		zap.Int("frames", len(res.Frames)),
	}
	if res.Captured != nil {
		fields = append(fields, zap.String("captured", res.Captured.Tag))
	}
	a.logger.Info("half-move rendered", fields...)
	return res, nil
}

func (a *Animator) rasterize(ctx context.Context, frames []Frame) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, a.opts.Workers)

	for _, f := range frames {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(f Frame) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := a.raster.RenderFile(ctx, f.Scene, f.Path); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				errMu.Unlock()
			}
		}(f)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (a *Animator) removeFrames(frames []Frame) {
	for _, f := range frames {
		if err := RemoveFrame(f.Path); err != nil {
			a.logger.Warn("remove partial frame", zap.String("path", f.Path), zap.Error(err))
		}
	}
}

// RemoveFrame deletes a raster and the scene document written next to it.
// Files that do not exist are not an error.
func RemoveFrame(path string) error {
	var errs []error
	for _, p := range []string{path, SceneDocPath(path)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SceneDocPath is the .svg path that accompanies a raster frame.
func SceneDocPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
}
