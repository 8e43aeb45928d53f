package sequencer

import (
	"fmt"
	"strings"

	"github.com/park285/chess-puzzle-render/internal/board"
	"github.com/park285/chess-puzzle-render/internal/puzzle"
)

// State is the lifecycle of one sequencing run.
type State int

const (
	NotStarted State = iota
	ProcessingHalfMove
	Completed
	Failed
)

var stateNames = map[State]string{
	NotStarted:         "NOT_STARTED",
	ProcessingHalfMove: "PROCESSING",
	Completed:          "COMPLETED",
	Failed:             "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == Completed || s == Failed }

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if strings.EqualFold(name, string(b)) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown run state %q", b)
}

// HalfMove is one side's move placed in global render order.
type HalfMove struct {
	Order int
	Turn  int
	Color board.Color
	Move  string
}

// Order flattens the solution into half-moves. Within each turn pair the side
// that moves first goes first; empty entries are skipped. Order counts from 1.
func Order(solution puzzle.Solution, first board.Color) []HalfMove {
	var out []HalfMove
	order := 0
	for turn, pair := range solution {
		sides := []board.Color{first, first.Other()}
		for _, c := range sides {
			text := pair.White
			if c == board.Black {
				text = pair.Black
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			order++
			out = append(out, HalfMove{Order: order, Turn: turn + 1, Color: c, Move: text})
		}
	}
	return out
}

// Manifest lists what a run produced, in chronological order.
type Manifest struct {
	RunID        string          `json:"run_id"`
	State        State           `json:"state"`
	InitialImage string          `json:"initial_image,omitempty"`
	Frames       []string        `json:"frames"`
	HalfMoves    []HalfMoveEntry `json:"half_moves"`
	FinalWhite   []string        `json:"final_white,omitempty"`
	FinalBlack   []string        `json:"final_black,omitempty"`
	Error        string          `json:"error,omitempty"`
}

type HalfMoveEntry struct {
	Order    int      `json:"order"`
	Turn     int      `json:"turn"`
	Color    string   `json:"color"`
	Move     string   `json:"move"`
	Tag      string   `json:"tag"`
	NewTag   string   `json:"new_tag"`
	Captured string   `json:"captured,omitempty"`
	Frames   []string `json:"frames"`
}
