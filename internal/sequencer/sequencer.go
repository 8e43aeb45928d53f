package sequencer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/park285/chess-puzzle-render/internal/animate"
	"github.com/park285/chess-puzzle-render/internal/board"
	"github.com/park285/chess-puzzle-render/internal/puzzle"
	"go.uber.org/zap"
)

// DefaultInitialName is the file stem of the initial board raster.
const DefaultInitialName = "chess_board_with_puzzle"

var ErrAlreadyStarted = errors.New("sequencer already started")

type Options struct {
	// RunID identifies the run; a UUID is generated when empty.
	RunID string
	// Dir receives the initial board raster.
	Dir string
	// FramesDir receives the move frames; it is emptied at the start of a run.
	FramesDir     string
	InitialName   string
	FramesPerMove int
	Workers       int
}

// Listener observes state transitions. The manifest is a snapshot.
type Listener func(ctx context.Context, state State, m *Manifest)

// Sequencer renders one puzzle: the initial board, then every half-move of
// the solution in turn order. A Sequencer runs once.
type Sequencer struct {
	opts     Options
	tpl      *board.Template
	geom     board.Geometry
	raster   animate.Rasterizer
	animator *animate.Animator
	logger   *zap.Logger
	listener Listener

	mu    sync.Mutex
	state State
	runID string
}

func New(opts Options, tpl *board.Template, geom board.Geometry, raster animate.Rasterizer, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.FramesDir == "" {
		opts.FramesDir = filepath.Join(opts.Dir, "moves")
	}
	if opts.InitialName == "" {
		opts.InitialName = DefaultInitialName
	}
	if tpl == nil {
		tpl = board.DefaultTemplate(geom.SquareSize)
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With(zap.String("run_id", runID))
	animator := animate.New(raster, animate.Options{
		FramesPerMove: opts.FramesPerMove,
		Dir:           opts.FramesDir,
		Workers:       opts.Workers,
	}, logger)
	return &Sequencer{
		opts:     opts,
		tpl:      tpl,
		geom:     geom,
		raster:   raster,
		animator: animator,
		logger:   logger,
		runID:    runID,
	}
}

// OnStateChange registers the transition listener. Call before Run.
func (s *Sequencer) OnStateChange(l Listener) { s.listener = l }

func (s *Sequencer) RunID() string { return s.runID }

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run renders the puzzle. On failure it returns the manifest built so far
// together with the error; callers normally discard such a manifest.
func (s *Sequencer) Run(ctx context.Context, p *puzzle.Puzzle) (*Manifest, error) {
	s.mu.Lock()
	if s.state != NotStarted {
		s.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.state = ProcessingHalfMove
	s.mu.Unlock()

	m := &Manifest{RunID: s.runID, Frames: []string{}, HalfMoves: []HalfMoveEntry{}}
	s.transition(ctx, ProcessingHalfMove, m)

	fail := func(err error) (*Manifest, error) {
		m.Error = err.Error()
		s.transition(ctx, Failed, m)
		s.logger.Error("puzzle sequencing failed", zap.Error(err), zap.Int("frames", len(m.Frames)))
		return m, err
	}

	if p == nil {
		return fail(errors.New("nil puzzle"))
	}
	first, err := p.FirstToMove()
	if err != nil {
		return fail(err)
	}

	scene, err := board.Build(s.tpl, s.geom, p.Position.White, p.Position.Black)
	if err != nil {
		return fail(fmt.Errorf("initial position: %w", err))
	}

	if err := s.resetFramesDir(); err != nil {
		return fail(err)
	}
	initial := filepath.Join(s.opts.Dir, s.opts.InitialName+"."+s.raster.Ext())
	if err := s.raster.RenderFile(ctx, scene, initial); err != nil {
		return fail(fmt.Errorf("initial board: %w", err))
	}
	m.InitialImage = initial
	s.logger.Info("initial board rendered",
		zap.String("path", initial),
		zap.String("first", first.String()),
		zap.Int("pieces", scene.Len()),
		zap.Int("half_moves", p.Solution.HalfMoveCount()))

	for _, hm := range Order(p.Solution, first) {
		res, err := s.animator.Animate(ctx, scene, hm.Color, hm.Move, hm.Order)
		if err != nil {
			return fail(fmt.Errorf("half-move %d (%s %s): %w", hm.Order, hm.Color, hm.Move, err))
		}
		entry := HalfMoveEntry{
			Order:  hm.Order,
			Turn:   hm.Turn,
			Color:  hm.Color.String(),
			Move:   hm.Move,
			Tag:    res.Piece.Tag,
			NewTag: res.NewTag,
			Frames: res.Paths(),
		}
		if res.Captured != nil {
			entry.Captured = res.Captured.Tag
		}
		m.HalfMoves = append(m.HalfMoves, entry)
		m.Frames = append(m.Frames, entry.Frames...)
		scene = res.Final
	}

	m.FinalWhite, m.FinalBlack = scene.Placements()
	s.transition(ctx, Completed, m)
	s.logger.Info("puzzle sequenced",
		zap.Int("half_moves", len(m.HalfMoves)),
		zap.Int("frames", len(m.Frames)))
	return m, nil
}

func (s *Sequencer) transition(ctx context.Context, next State, m *Manifest) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	m.State = next
	if s.listener != nil {
		snapshot := *m
		snapshot.Frames = append([]string(nil), m.Frames...)
		snapshot.HalfMoves = append([]HalfMoveEntry(nil), m.HalfMoves...)
		s.listener(ctx, next, &snapshot)
	}
}

func (s *Sequencer) resetFramesDir() error {
	if err := os.RemoveAll(s.opts.FramesDir); err != nil {
		return fmt.Errorf("clear frames dir: %w", err)
	}
	if err := os.MkdirAll(s.opts.FramesDir, 0o755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}
	return nil
}

// Discard removes every file a manifest lists, along with any scene
// document written next to it.
func Discard(m *Manifest) {
	if m == nil {
		return
	}
	paths := append([]string(nil), m.Frames...)
	if m.InitialImage != "" {
		paths = append(paths, m.InitialImage)
	}
	for _, path := range paths {
		_ = animate.RemoveFrame(path)
	}
}
