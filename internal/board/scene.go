package board

import (
	"fmt"
	"strings"
)

// Scene is an immutable board position: white and black piece collections
// over a background template. Every transform returns a new Scene.
type Scene struct {
	template *Template
	geom     Geometry
	white    []Piece
	black    []Piece
}

// Build creates the settled starting scene from placement tokens.
func Build(tpl *Template, geom Geometry, white, black []string) (Scene, error) {
	s := Scene{template: tpl, geom: geom}
	occupied := make(map[Square]string, len(white)+len(black))

	add := func(c Color, token string) error {
		token = normalizeToken(token)
		kind, sq, err := ParsePlacement(token)
		if err != nil {
			return err
		}
		if prev, ok := occupied[sq]; ok {
			return invalidNotation(token, "square %s already holds %s", sq, prev)
		}
		occupied[sq] = token
		piece := Piece{Kind: kind, Color: c, Tag: token, At: geom.ToPixel(sq)}
		if c == Black {
			s.black = append(s.black, piece)
		} else {
			s.white = append(s.white, piece)
		}
		return nil
	}

	for _, token := range white {
		if err := add(White, token); err != nil {
			return Scene{}, err
		}
	}
	for _, token := range black {
		if err := add(Black, token); err != nil {
			return Scene{}, err
		}
	}
	return s, nil
}

func (s Scene) Template() *Template { return s.template }
func (s Scene) Geometry() Geometry  { return s.geom }

// Pieces returns a copy of one color's collection in insertion order.
func (s Scene) Pieces(c Color) []Piece {
	src := s.white
	if c == Black {
		src = s.black
	}
	out := make([]Piece, len(src))
	copy(out, src)
	return out
}

// All returns white pieces followed by black pieces, the order they are drawn in.
func (s Scene) All() []Piece {
	out := make([]Piece, 0, len(s.white)+len(s.black))
	out = append(out, s.white...)
	return append(out, s.black...)
}

// Len is the number of piece instances in the scene.
func (s Scene) Len() int { return len(s.white) + len(s.black) }

// FindPieceAt returns the piece whose tag names sq, searching white first.
func (s Scene) FindPieceAt(sq Square) (Piece, bool) {
	for _, coll := range [][]Piece{s.white, s.black} {
		for _, p := range coll {
			if p.Square() == sq {
				return p, true
			}
		}
	}
	return Piece{}, false
}

// HasTag reports whether any piece of either color carries tag.
func (s Scene) HasTag(tag string) bool {
	_, ok := s.lookup(tag)
	return ok
}

// Lookup returns the piece carrying tag.
func (s Scene) Lookup(tag string) (Piece, bool) { return s.lookup(tag) }

func (s Scene) lookup(tag string) (Piece, bool) {
	for _, coll := range [][]Piece{s.white, s.black} {
		for _, p := range coll {
			if p.Tag == tag {
				return p, true
			}
		}
	}
	return Piece{}, false
}

// WithoutTag returns a scene with every instance carrying tag removed.
// An empty tag or an absent one yields an equal scene.
func (s Scene) WithoutTag(tag string) Scene {
	if tag == "" {
		return s
	}
	out := s
	out.white = dropTag(s.white, tag)
	out.black = dropTag(s.black, tag)
	return out
}

// WithPieceAt returns a scene with a new instance of color c tagged tag at pt.
// The kind comes from the tag's letter. Adding a tag the color already holds
// is a DuplicateTagError.
func (s Scene) WithPieceAt(c Color, tag string, pt Point) (Scene, error) {
	tag = normalizeToken(tag)
	kind, _, err := ParsePlacement(tag)
	if err != nil {
		return Scene{}, err
	}
	coll := s.white
	if c == Black {
		coll = s.black
	}
	for _, p := range coll {
		if p.Tag == tag {
			return Scene{}, &DuplicateTagError{Color: c, Tag: tag}
		}
	}

	next := make([]Piece, len(coll), len(coll)+1)
	copy(next, coll)
	next = append(next, Piece{Kind: kind, Color: c, Tag: tag, At: pt})

	out := s
	if c == Black {
		out.black = next
	} else {
		out.white = next
	}
	return out, nil
}

// Settled reports whether every piece sits on its tag's square.
func (s Scene) Settled() bool {
	for _, p := range s.All() {
		if !p.Settled(s.geom) {
			return false
		}
	}
	return true
}

// Placements returns each color's tags, the inverse of Build for a settled scene.
func (s Scene) Placements() (white, black []string) {
	for _, p := range s.white {
		white = append(white, p.Tag)
	}
	for _, p := range s.black {
		black = append(black, p.Tag)
	}
	return white, black
}

func (s Scene) String() string {
	white, black := s.Placements()
	return fmt.Sprintf("white[%s] black[%s]", strings.Join(white, " "), strings.Join(black, " "))
}

func dropTag(coll []Piece, tag string) []Piece {
	out := make([]Piece, 0, len(coll))
	for _, p := range coll {
		if p.Tag != tag {
			out = append(out, p)
		}
	}
	return out
}
