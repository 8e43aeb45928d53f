package puzzle

import (
	"fmt"
	"os"
	"strings"

	"github.com/park285/chess-puzzle-render/internal/board"
	yaml "gopkg.in/yaml.v3"
)

// Position lists placement tokens per side, e.g. "Qe6" or "pb7".
type Position struct {
	White []string `yaml:"white_position" json:"white_position"`
	Black []string `yaml:"black_position" json:"black_position"`
}

// Pair is one turn of the solution. An empty string means that side does not move.
type Pair struct {
	White string `yaml:"white" json:"white,omitempty"`
	Black string `yaml:"black" json:"black,omitempty"`
}

// Solution keeps turn pairs in document order.
type Solution []Pair

// Puzzle is the document produced by the daily puzzle step.
type Puzzle struct {
	Position  Position `yaml:"chess_board" json:"chess_board"`
	Solution  Solution `yaml:"solution,omitempty" json:"solution"`
	FEN       string   `yaml:"fen,omitempty" json:"fen,omitempty"`
	Date      string   `yaml:"date,omitempty" json:"date,omitempty"`
	WholeTurn string   `yaml:"whose_turn,omitempty" json:"whose_turn,omitempty"`
}

// UnmarshalYAML accepts the solution either as a mapping (move1, move2, ...)
// taken in document order, or as a plain sequence.
func (s *Solution) UnmarshalYAML(value *yaml.Node) error {
	type rawPair struct {
		White *string `yaml:"white"`
		Black *string `yaml:"black"`
	}
	convert := func(n *yaml.Node) (Pair, error) {
		var rp rawPair
		if err := n.Decode(&rp); err != nil {
			return Pair{}, err
		}
		var p Pair
		if rp.White != nil {
			p.White = strings.TrimSpace(*rp.White)
		}
		if rp.Black != nil {
			p.Black = strings.TrimSpace(*rp.Black)
		}
		return p, nil
	}

	var out Solution
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			p, err := convert(value.Content[i+1])
			if err != nil {
				return fmt.Errorf("solution %s: %w", value.Content[i].Value, err)
			}
			out = append(out, p)
		}
	case yaml.SequenceNode:
		for i, n := range value.Content {
			p, err := convert(n)
			if err != nil {
				return fmt.Errorf("solution[%d]: %w", i, err)
			}
			out = append(out, p)
		}
	default:
		if value.Tag != "!!null" {
			return fmt.Errorf("solution must be a mapping or a list")
		}
	}
	*s = out
	return nil
}

// Decode parses a puzzle document in YAML or JSON and fills gaps: placements
// come from the FEN when absent, and so does the side to move.
func Decode(data []byte) (*Puzzle, error) {
	var p Puzzle
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode puzzle: %w", err)
	}
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a puzzle document from disk.
func Load(path string) (*Puzzle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read puzzle: %w", err)
	}
	return Decode(data)
}

func (p *Puzzle) Normalize() error {
	if len(p.Position.White) == 0 && len(p.Position.Black) == 0 && strings.TrimSpace(p.FEN) != "" {
		pos, _, err := PositionFromFEN(p.FEN)
		if err != nil {
			return err
		}
		p.Position = pos
	}
	if strings.TrimSpace(p.WholeTurn) == "" {
		c, err := p.FirstToMove()
		if err != nil {
			return err
		}
		p.WholeTurn = TurnName(c)
	}
	return nil
}

// FirstToMove resolves whose_turn, falling back to the FEN side-to-move field
// and then to White.
func (p *Puzzle) FirstToMove() (board.Color, error) {
	if t := strings.TrimSpace(p.WholeTurn); t != "" {
		return board.ParseColor(t)
	}
	if fields := strings.Fields(p.FEN); len(fields) > 1 {
		return board.ParseColor(fields[1])
	}
	return board.White, nil
}

// HalfMoveCount is the number of non-empty half-moves in the solution.
func (s Solution) HalfMoveCount() int {
	n := 0
	for _, p := range s {
		if p.White != "" {
			n++
		}
		if p.Black != "" {
			n++
		}
	}
	return n
}

// TurnName is the whose_turn spelling for c.
func TurnName(c board.Color) string {
	if c == board.Black {
		return "Black"
	}
	return "White"
}
