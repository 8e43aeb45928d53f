package board

import "strings"

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == Black {
		return White
	}
	return Black
}

// ParseColor accepts "white"/"black" in any case, plus "w"/"b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, invalidNotation(s, "side must be White or Black")
}

type Kind int

const (
	King Kind = iota
	Queen
	Bishop
	Knight
	Rook
	Pawn
)

var kindNames = [...]string{"king", "queen", "bishop", "knight", "rook", "pawn"}

func (k Kind) String() string {
	if k < King || k > Pawn {
		return "unknown"
	}
	return kindNames[k]
}

// Letter is the lower-case piece letter used in placement tokens.
func (k Kind) Letter() byte { return "kqbnrp"[k] }

// KindFromLetter resolves a piece letter, case-insensitively.
func KindFromLetter(letter byte) (Kind, bool) {
	switch letter | 0x20 {
	case 'k':
		return King, true
	case 'q':
		return Queen, true
	case 'b':
		return Bishop, true
	case 'n':
		return Knight, true
	case 'r':
		return Rook, true
	case 'p':
		return Pawn, true
	}
	return King, false
}

// Piece is one instance in a scene. Tag is the placement token that identifies
// it, e.g. "Qe6". While settled, At equals the pixel of the tag's square.
type Piece struct {
	Kind  Kind
	Color Color
	Tag   string
	At    Point
}

// Square returns the square encoded in the tag.
func (p Piece) Square() Square {
	return Square{File: p.Tag[1], Rank: p.Tag[2]}
}

// Settled reports whether the piece sits exactly on its tag's square.
func (p Piece) Settled(g Geometry) bool {
	return p.At == g.ToPixel(p.Square())
}

// ParsePlacement splits a placement token ("Qe6", "pb7") into kind and square.
func ParsePlacement(token string) (Kind, Square, error) {
	token = normalizeToken(token)
	if len(token) != 3 {
		return King, Square{}, invalidNotation(token, "placement must be piece letter plus square")
	}
	kind, ok := KindFromLetter(token[0])
	if !ok {
		return King, Square{}, invalidNotation(token, "unknown piece letter %q", token[0])
	}
	sq, err := ParseSquare(token[1:])
	if err != nil {
		return King, Square{}, invalidNotation(token, "%v", err)
	}
	return kind, sq, nil
}

// Retag builds the tag for a piece that moved to sq, keeping the letter case of tag.
// A non-zero promotion letter replaces the kind.
func Retag(tag string, sq Square, promotion byte) string {
	letter := tag[0]
	if promotion != 0 {
		upper := letter >= 'A' && letter <= 'Z'
		letter = promotion | 0x20
		if upper {
			letter -= 0x20
		}
	}
	return string(letter) + sq.String()
}
