package board

import "strings"

// Move is one half-move in from/to square form, e.g. "e2e4". Castling and en
// passant arrive already reduced to plain from/to slides.
type Move struct {
	Color     Color
	From      Square
	To        Square
	Promotion byte
	Text      string
}

// ParseMove parses four-character move text with an optional promotion letter.
func ParseMove(c Color, text string) (Move, error) {
	text = strings.TrimSpace(text)
	if len(text) != 4 && len(text) != 5 {
		return Move{}, invalidNotation(text, "move must be from and to squares")
	}
	from, err := ParseSquare(text[:2])
	if err != nil {
		return Move{}, invalidNotation(text, "from square: %v", err)
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, invalidNotation(text, "to square: %v", err)
	}
	if from == to {
		return Move{}, invalidNotation(text, "from and to squares are equal")
	}
	m := Move{Color: c, From: from, To: to, Text: text}
	if len(text) == 5 {
		kind, ok := KindFromLetter(text[4])
		if !ok || kind == King || kind == Pawn {
			return Move{}, invalidNotation(text, "bad promotion piece %q", text[4])
		}
		m.Promotion = kind.Letter()
	}
	return m, nil
}

func (m Move) String() string { return m.Text }
