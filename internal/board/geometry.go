package board

import (
	"math"
	"strings"
)

const (
	// BoardSquares is the number of files and ranks.
	BoardSquares = 8
	// DefaultSquareSize matches the built-in template asset.
	DefaultSquareSize = 135
)

// Square is a board square in algebraic notation. File is 'a'..'h', Rank is '1'..'8'.
type Square struct {
	File byte
	Rank byte
}

func (s Square) String() string { return string([]byte{s.File, s.Rank}) }

// FileIndex maps a→0 … h→7.
func (s Square) FileIndex() int { return int(s.File - 'a') }

// RankIndex maps '1'→1 … '8'→8.
func (s Square) RankIndex() int { return int(s.Rank-'1') + 1 }

// ParseSquare parses two-character square text such as "e4".
func ParseSquare(text string) (Square, error) {
	if len(text) != 2 {
		return Square{}, invalidNotation(text, "square must be two characters")
	}
	file := text[0]
	rank := text[1]
	if file < 'a' || file > 'h' {
		return Square{}, invalidNotation(text, "file %q not in a-h", file)
	}
	if rank < '1' || rank > '8' {
		return Square{}, invalidNotation(text, "rank %q not in 1-8", rank)
	}
	return Square{File: file, Rank: rank}, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(text string) Square {
	sq, err := ParseSquare(text)
	if err != nil {
		panic(err)
	}
	return sq
}

// Point is a position in the board raster, origin at the top-left corner.
type Point struct {
	X int
	Y int
}

// Geometry maps squares to pixels for a board of fixed square size.
type Geometry struct {
	SquareSize int
}

func NewGeometry(squareSize int) Geometry {
	if squareSize <= 0 {
		squareSize = DefaultSquareSize
	}
	return Geometry{SquareSize: squareSize}
}

// BoardSize is the width and height of the board raster.
func (g Geometry) BoardSize() int { return g.SquareSize * BoardSquares }

// lastRow is the y of the top edge of rank 1.
func (g Geometry) lastRow() int { return g.BoardSize() - g.SquareSize }

// ToPixel returns the top-left corner of sq. Rank 8 sits at y=0.
func (g Geometry) ToPixel(sq Square) Point {
	return Point{
		X: sq.FileIndex() * g.SquareSize,
		Y: g.lastRow() - (sq.RankIndex()-1)*g.SquareSize,
	}
}

// SquareAt returns the square whose corner is nearest to p, clamped to the board.
func (g Geometry) SquareAt(p Point) Square {
	col := clamp(int(math.Round(float64(p.X)/float64(g.SquareSize))), 0, BoardSquares-1)
	row := clamp(int(math.Round(float64(p.Y)/float64(g.SquareSize))), 0, BoardSquares-1)
	return Square{File: byte('a' + col), Rank: byte('8' - row)}
}

// Interpolate returns n points from 'from' to 'to' inclusive. Each absolute
// coordinate is rounded half to even.
// n <= 1 yields just the destination.
func Interpolate(from, to Point, n int) []Point {
	if n <= 1 {
		return []Point{to}
	}
	stepX := float64(to.X-from.X) / float64(n-1)
	stepY := float64(to.Y-from.Y) / float64(n-1)
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{
			X: int(math.RoundToEven(float64(from.X) + stepX*float64(i))),
			Y: int(math.RoundToEven(float64(from.Y) + stepY*float64(i))),
		}
	}
	points[n-1] = to
	return points
}

// AllSquares lists a1..h8 file by file.
func AllSquares() []Square {
	out := make([]Square, 0, BoardSquares*BoardSquares)
	for f := byte('a'); f <= 'h'; f++ {
		for r := byte('1'); r <= '8'; r++ {
			out = append(out, Square{File: f, Rank: r})
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normalizeToken(s string) string { return strings.TrimSpace(s) }
