package main

import (
	"fmt"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/park285/chess-puzzle-render/internal/puzzle"
)

func newFenCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "fen <fen>",
		Short: "Print the piece placements of a FEN position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, turn, err := puzzle.PositionFromFEN(args[0])
			if err != nil {
				return err
			}
			if !asYAML {
				fmt.Fprintln(cmd.OutOrStdout(), puzzle.FormatPosition(pos))
				fmt.Fprintln(cmd.OutOrStdout(), "To move:", puzzle.TurnName(turn))
				return nil
			}
			doc := puzzle.Puzzle{Position: pos, FEN: args[0], WholeTurn: puzzle.TurnName(turn)}
			raw, err := yaml.Marshal(&doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print a puzzle document skeleton instead")
	return cmd
}
