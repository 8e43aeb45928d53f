package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/chess-puzzle-render/internal/board"
)

func newScene(t *testing.T, squareSize int, white, black []string) board.Scene {
	t.Helper()
	s, err := board.Build(board.DefaultTemplate(squareSize), board.NewGeometry(squareSize), white, black)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestPieceAssetsPresent(t *testing.T) {
	r := NewRasterizer(Options{}, nil)
	for _, c := range []board.Color{board.White, board.Black} {
		for k := board.King; k <= board.Pawn; k++ {
			img, err := r.pieceImage(k, c, 40)
			if err != nil {
				t.Fatalf("piece %s %s: %v", c, k, err)
			}
			if img.Bounds().Dx() != 40 {
				t.Fatalf("piece size %v", img.Bounds())
			}
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	scene := newScene(t, 40, []string{"Qe6", "Kg1"}, []string{"kh7", "pb7"})
	r := NewRasterizer(Options{Format: FormatPNG}, nil)
	ctx := context.Background()

	a, err := r.Encode(ctx, scene)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := NewRasterizer(Options{Format: FormatPNG}, nil).Encode(ctx, scene)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding the same scene twice differs")
	}
}

func TestRenderDrawsPieces(t *testing.T) {
	ctx := context.Background()
	r := NewRasterizer(Options{}, nil)
	empty, err := r.RenderBoard(ctx, newScene(t, 40, nil, nil))
	if err != nil {
		t.Fatalf("RenderBoard: %v", err)
	}
	withQueen, err := r.RenderBoard(ctx, newScene(t, 40, []string{"Qe6"}, nil))
	if err != nil {
		t.Fatalf("RenderBoard: %v", err)
	}
	if bytes.Equal(empty.Pix, withQueen.Pix) {
		t.Fatalf("queen not drawn")
	}
	// a8 corner is untouched by a queen on e6.
	if empty.RGBAAt(2, 2) != withQueen.RGBAAt(2, 2) {
		t.Fatalf("unexpected change outside the piece square")
	}
	if empty.Bounds().Dx() != 320 {
		t.Fatalf("board size %v", empty.Bounds())
	}
}

func TestRenderFileScalesToOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	r := NewRasterizer(Options{Width: 192, Height: 108, Format: FormatPNG, EmitSVG: true}, nil)
	if err := r.RenderFile(context.Background(), newScene(t, 40, []string{"Ke1"}, []string{"ke8"}), path); err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 192 || cfg.Height != 108 {
		t.Fatalf("size %dx%d", cfg.Width, cfg.Height)
	}
	svg, err := os.ReadFile(filepath.Join(dir, "frame.svg"))
	if err != nil {
		t.Fatalf("scene document missing: %v", err)
	}
	if !strings.Contains(string(svg), `data-tag="Ke1"`) || !strings.Contains(string(svg), `id="bK"`) {
		t.Fatalf("scene document=%s", svg)
	}
}

func TestRenderFileReportsRenderError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(blocker, "frame.png")
	err := NewRasterizer(Options{}, nil).RenderFile(context.Background(), newScene(t, 40, nil, nil), path)
	var re *board.RenderError
	if !errors.As(err, &re) || re.Path != path {
		t.Fatalf("err=%v", err)
	}
}

func TestSceneDocumentPlacesUses(t *testing.T) {
	scene := newScene(t, 135, []string{"Qe6"}, []string{"qd1"})
	doc, err := SceneDocument(scene)
	if err != nil {
		t.Fatalf("SceneDocument: %v", err)
	}
	white := board.PieceGroup(doc, board.White)
	uses := white.SelectElements("use")
	if len(uses) != 1 {
		t.Fatalf("white uses=%d", len(uses))
	}
	if uses[0].SelectAttrValue("x", "") != "540" || uses[0].SelectAttrValue("y", "") != "270" {
		t.Fatalf("use at %s,%s", uses[0].SelectAttrValue("x", ""), uses[0].SelectAttrValue("y", ""))
	}
	// The template itself is untouched.
	if g := board.PieceGroup(scene.Template().Document(), board.White); len(g.ChildElements()) != 0 {
		t.Fatalf("template mutated")
	}
}
