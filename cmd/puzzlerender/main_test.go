package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/chess-puzzle-render/internal/config"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.ConfigFileEnv, "")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("OUTPUT_WIDTH", "64")
	t.Setenv("OUTPUT_HEIGHT", "36")
	t.Setenv("REDIS_URL", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFenCommand(t *testing.T) {
	out, err := run(t, "fen", "6k1/8/8/8/8/8/8/4K2R b - - 0 1")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	if !strings.Contains(out, "White: Ke1 Rh1") || !strings.Contains(out, "Black: kg8") || !strings.Contains(out, "To move: Black") {
		t.Fatalf("output %q", out)
	}

	out, err = run(t, "fen", "--yaml", "6k1/8/8/8/8/8/8/4K2R w - - 0 1")
	if err != nil {
		t.Fatalf("fen --yaml: %v", err)
	}
	if !strings.Contains(out, "white_position:") || !strings.Contains(out, "whose_turn: White") {
		t.Fatalf("yaml %q", out)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "puzzle.yaml")
	body := `chess_board:
  white_position: [Ke1, Qd1]
  black_position: [ke8]
solution:
  move1:
    white: d1d7
    black: e8f8
whose_turn: White
`
	if err := os.WriteFile(doc, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "chess")
	out, err := run(t, "render", doc, "--out", outDir, "--frames", "2", "--square-size", "16", "--format", "png")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var m sequencer.Manifest
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("manifest %q: %v", out, err)
	}
	if m.State != sequencer.Completed || len(m.Frames) != 4 {
		t.Fatalf("manifest %+v", m)
	}
	if m.InitialImage != filepath.Join(outDir, "chess_board_with_puzzle.png") {
		t.Fatalf("initial %s", m.InitialImage)
	}
}

func TestRenderCommandDiscardsOnFailure(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "puzzle.yaml")
	body := "chess_board:\n  white_position: [Ke1]\n  black_position: [ke8]\nsolution:\n  move1: {white: e1e2, black: a7a6}\n"
	if err := os.WriteFile(doc, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "chess")
	if _, err := run(t, "render", doc, "--out", outDir, "--frames", "2", "--square-size", "16"); err == nil {
		t.Fatalf("expected failure")
	}
	entries, _ := os.ReadDir(filepath.Join(outDir, "moves"))
	if len(entries) != 0 {
		t.Fatalf("partial frames kept: %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(outDir, "chess_board_with_puzzle.jpg")); !os.IsNotExist(err) {
		t.Fatalf("initial board kept")
	}
}
