package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/park285/chess-puzzle-render/internal/board"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

type pieceCacheKey struct {
	kind  board.Kind
	color board.Color
	size  int
}

func (r *Rasterizer) pieceImage(kind board.Kind, c board.Color, size int) (image.Image, error) {
	key := pieceCacheKey{kind: kind, color: c, size: size}

	r.mu.RLock()
	if img, ok := r.pieces[key]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	r.mu.RUnlock()

	name := pieceAssetName(kind, c)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}
	img, err := rasterizeSVG(data, size, size)
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", name, err)
	}

	r.mu.Lock()
	r.pieces[key] = img
	r.mu.Unlock()

	return img, nil
}

// rasterizeSVG draws an SVG document scaled to w×h on a transparent canvas.
func rasterizeSVG(data []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)), oksvg.WarnErrorMode)
	if err != nil {
		return nil, err
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(w)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

// symbolID names a piece asset, e.g. "wQ".
func symbolID(kind board.Kind, c board.Color) string {
	prefix := "w"
	if c == board.Black {
		prefix = "b"
	}

	var suffix string
	switch kind {
	case board.King:
		suffix = "K"
	case board.Queen:
		suffix = "Q"
	case board.Rook:
		suffix = "R"
	case board.Bishop:
		suffix = "B"
	case board.Knight:
		suffix = "N"
	case board.Pawn:
		suffix = "P"
	}
	return prefix + suffix
}

func pieceAssetName(kind board.Kind, c board.Color) string {
	return fmt.Sprintf("assets/pieces/%s.svg", symbolID(kind, c))
}
