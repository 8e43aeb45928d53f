package puzzle

import (
	"fmt"
	"sort"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/chess-puzzle-render/internal/board"
)

// PositionFromFEN lists the placements of a FEN position, rank 8 to rank 1
// and a to h within a rank, with upper-case letters for white.
func PositionFromFEN(fen string) (Position, board.Color, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return Position{}, board.White, &board.InvalidNotationError{Input: fen, Reason: err.Error()}
	}
	pos := nchess.NewGame(opt).Position()

	squares := make([]nchess.Square, 0, 32)
	pieces := pos.Board().SquareMap()
	for sq := range pieces {
		squares = append(squares, sq)
	}
	sort.Slice(squares, func(i, j int) bool {
		if squares[i].Rank() != squares[j].Rank() {
			return squares[i].Rank() > squares[j].Rank()
		}
		return squares[i].File() < squares[j].File()
	})

	var out Position
	for _, sq := range squares {
		piece := pieces[sq]
		letter, ok := pieceLetter(piece.Type())
		if !ok {
			continue
		}
		if piece.Color() == nchess.White {
			out.White = append(out.White, strings.ToUpper(letter)+sq.String())
		} else {
			out.Black = append(out.Black, letter+sq.String())
		}
	}

	turn := board.White
	if pos.Turn() == nchess.Black {
		turn = board.Black
	}
	return out, turn, nil
}

func pieceLetter(pt nchess.PieceType) (string, bool) {
	switch pt {
	case nchess.King:
		return "k", true
	case nchess.Queen:
		return "q", true
	case nchess.Rook:
		return "r", true
	case nchess.Bishop:
		return "b", true
	case nchess.Knight:
		return "n", true
	case nchess.Pawn:
		return "p", true
	}
	return "", false
}

// FormatPosition renders placements the way the puzzle step logs them.
func FormatPosition(p Position) string {
	return fmt.Sprintf("White: %s\nBlack: %s", strings.Join(p.White, " "), strings.Join(p.Black, " "))
}
