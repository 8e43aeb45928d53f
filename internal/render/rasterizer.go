package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/park285/chess-puzzle-render/internal/board"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
)

// ParseFormat accepts png, jpg and jpeg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

type Options struct {
	// Width and Height of the encoded image. Zero keeps the board size.
	Width       int
	Height      int
	Format      Format
	JPEGQuality int
	// EmitSVG also writes the scene document next to every raster.
	EmitSVG bool
}

// Rasterizer turns scenes into images. It is safe for concurrent use and
// deterministic: the same scene always yields the same pixels.
type Rasterizer struct {
	opts   Options
	logger *zap.Logger

	mu         sync.RWMutex
	pieces     map[pieceCacheKey]image.Image
	background map[backgroundKey]*image.RGBA
}

type backgroundKey struct {
	template *board.Template
	size     int
}

func NewRasterizer(opts Options, logger *zap.Logger) *Rasterizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 90
	}
	return &Rasterizer{
		opts:       opts,
		logger:     logger,
		pieces:     make(map[pieceCacheKey]image.Image),
		background: make(map[backgroundKey]*image.RGBA),
	}
}

// Ext is the file extension of encoded frames, without the dot.
func (r *Rasterizer) Ext() string { return string(r.opts.Format) }

// RenderBoard draws the scene at board resolution. Settled pieces are drawn
// first so that a piece in flight passes over them.
func (r *Rasterizer) RenderBoard(ctx context.Context, scene board.Scene) (*image.RGBA, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tpl := scene.Template()
	if tpl == nil {
		return nil, fmt.Errorf("scene has no template")
	}
	geom := scene.Geometry()
	size := geom.BoardSize()

	bg, err := r.backgroundImage(tpl, size)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(bg.Bounds())
	xdraw.Draw(img, img.Bounds(), bg, image.Point{}, xdraw.Src)

	var moving []board.Piece
	for _, p := range scene.All() {
		if !p.Settled(geom) {
			moving = append(moving, p)
			continue
		}
		if err := r.drawPiece(img, p, geom.SquareSize); err != nil {
			return nil, err
		}
	}
	for _, p := range moving {
		if err := r.drawPiece(img, p, geom.SquareSize); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// Render draws the scene and scales it to the configured output size.
func (r *Rasterizer) Render(ctx context.Context, scene board.Scene) (image.Image, error) {
	img, err := r.RenderBoard(ctx, scene)
	if err != nil {
		return nil, err
	}
	return r.scale(img), nil
}

// Encode renders the scene and returns the encoded bytes.
func (r *Rasterizer) Encode(ctx context.Context, scene board.Scene) ([]byte, error) {
	img, err := r.Render(ctx, scene)
	if err != nil {
		return nil, &board.RenderError{Err: err}
	}

	var buf bytes.Buffer
	switch r.opts.Format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.JPEGQuality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, &board.RenderError{Err: fmt.Errorf("encode %s: %w", r.opts.Format, err)}
	}
	return buf.Bytes(), nil
}

// RenderFile renders the scene to path. The file appears atomically; on
// failure nothing is left behind.
func (r *Rasterizer) RenderFile(ctx context.Context, scene board.Scene, path string) error {
	data, err := r.Encode(ctx, scene)
	if err != nil {
		var re *board.RenderError
		if errors.As(err, &re) {
			re.Path = path
			return re
		}
		return &board.RenderError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &board.RenderError{Path: path, Err: err}
	}
	if r.opts.EmitSVG {
		svgPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
		if err := r.WriteSVG(scene, svgPath); err != nil {
			_ = os.Remove(path)
			return &board.RenderError{Path: svgPath, Err: err}
		}
	}
	r.logger.Debug("frame written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (r *Rasterizer) drawPiece(dst *image.RGBA, p board.Piece, squareSize int) error {
	img, err := r.pieceImage(p.Kind, p.Color, squareSize)
	if err != nil {
		return err
	}
	rect := image.Rect(p.At.X, p.At.Y, p.At.X+squareSize, p.At.Y+squareSize)
	xdraw.Draw(dst, rect, img, image.Point{}, xdraw.Over)
	return nil
}

func (r *Rasterizer) backgroundImage(tpl *board.Template, size int) (*image.RGBA, error) {
	key := backgroundKey{template: tpl, size: size}

	r.mu.RLock()
	if img, ok := r.background[key]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	r.mu.RUnlock()

	img, err := rasterizeSVG(tpl.Background(), size, size)
	if err != nil {
		return nil, &board.TemplateLoadError{Path: tpl.Path, Err: err}
	}

	r.mu.Lock()
	r.background[key] = img
	r.mu.Unlock()
	return img, nil
}

func (r *Rasterizer) scale(img *image.RGBA) image.Image {
	w, h := r.opts.Width, r.opts.Height
	if w <= 0 || h <= 0 {
		return img
	}
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
