package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chess-puzzle-render/internal/board"
	"github.com/park285/chess-puzzle-render/internal/puzzle"
	"github.com/park285/chess-puzzle-render/internal/runstore"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
	"github.com/park285/chess-puzzle-render/pkg/renderdto"
)

const (
	maxBodySize      = 1 << 20
	defaultQueueWait = 30 * time.Second
	defaultListLimit = 20
)

// SequencerFactory prepares a run with the given id writing under its
// default directory.
type SequencerFactory func(runID string) *sequencer.Sequencer

type Options struct {
	// Concurrent bounds simultaneous renders; further requests wait.
	Concurrent int
	// QueueWait is how long a request waits for a render slot.
	QueueWait time.Duration
	// KeepPartial leaves the frames of failed runs on disk.
	KeepPartial bool
	StoreKind   string
}

type Server struct {
	newSeq SequencerFactory
	store  runstore.Store
	opts   Options
	slots  chan struct{}
	logger *zap.Logger
}

func NewServer(newSeq SequencerFactory, store runstore.Store, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrent <= 0 {
		opts.Concurrent = 1
	}
	if opts.QueueWait <= 0 {
		opts.QueueWait = defaultQueueWait
	}
	return &Server{
		newSeq: newSeq,
		store:  store,
		opts:   opts,
		slots:  make(chan struct{}, opts.Concurrent),
		logger: logger,
	}
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "puzzlerender",
		MaxRequestBodySize: maxBodySize,
		ReadTimeout:        10 * time.Second,
		IdleTimeout:        60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()
	s.logger.Info("http server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		return srv.Shutdown()
	}
}

func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := strings.TrimRight(string(ctx.Path()), "/")
	switch {
	case path == "/healthz":
		s.health(ctx)
	case path == "/v1/render":
		if !ctx.IsPost() {
			s.methodNotAllowed(ctx, fasthttp.MethodPost)
			return
		}
		s.render(ctx)
	case path == "/v1/runs":
		if !ctx.IsGet() {
			s.methodNotAllowed(ctx, fasthttp.MethodGet)
			return
		}
		s.listRuns(ctx)
	case strings.HasPrefix(path, "/v1/runs/"):
		if !ctx.IsGet() {
			s.methodNotAllowed(ctx, fasthttp.MethodGet)
			return
		}
		s.getRun(ctx, strings.TrimPrefix(path, "/v1/runs/"))
	default:
		writeError(ctx, fasthttp.StatusNotFound, renderdto.ErrorResponse{Code: renderdto.CodeNotFound, Message: "no route for " + path})
	}
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, renderdto.Health{Status: "ok", Store: s.opts.StoreKind})
}

func (s *Server) render(ctx *fasthttp.RequestCtx) {
	p, err := puzzle.Decode(ctx.PostBody())
	if err != nil {
		status, body := classify(err)
		if status == fasthttp.StatusInternalServerError {
			status, body = fasthttp.StatusBadRequest, renderdto.ErrorResponse{Code: renderdto.CodeBadRequest, Message: err.Error()}
		}
		writeError(ctx, status, body)
		return
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-time.After(s.opts.QueueWait):
		writeError(ctx, fasthttp.StatusServiceUnavailable, renderdto.ErrorResponse{Code: renderdto.CodeBusy, Message: "all render slots busy", Retryable: true})
		return
	}

	runID := uuid.NewString()
	ctx.Response.Header.Set("X-Run-Id", runID)
	seq := s.newSeq(runID)

	start := time.Now()
	m, err := seq.Run(context.Background(), p)
	if err != nil {
		if !s.opts.KeepPartial {
			sequencer.Discard(m)
		}
		s.logger.Warn("render request failed", zap.String("run_id", runID), zap.Error(err))
		status, body := classify(err)
		writeError(ctx, status, body)
		return
	}
	s.logger.Info("render request done",
		zap.String("run_id", runID),
		zap.Int("frames", len(m.Frames)),
		zap.Duration("took", time.Since(start)))
	writeJSON(ctx, fasthttp.StatusOK, toRenderResponse(m))
}

func (s *Server) listRuns(ctx *fasthttp.RequestCtx) {
	limit := ctx.QueryArgs().GetUintOrZero("limit")
	if limit <= 0 {
		limit = defaultListLimit
	}
	recs, err := s.store.List(ctx, limit)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, renderdto.ErrorResponse{Code: renderdto.CodeInternal, Message: err.Error(), Retryable: true})
		return
	}
	out := renderdto.RunList{Runs: make([]renderdto.RunStatus, 0, len(recs))}
	for _, rec := range recs {
		out.Runs = append(out.Runs, toRunStatus(rec))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) getRun(ctx *fasthttp.RequestCtx, id string) {
	if id == "" || strings.Contains(id, "/") {
		writeError(ctx, fasthttp.StatusNotFound, renderdto.ErrorResponse{Code: renderdto.CodeNotFound, Message: "run not found"})
		return
	}
	rec, err := s.store.Load(ctx, id)
	if errors.Is(err, runstore.ErrNotFound) {
		writeError(ctx, fasthttp.StatusNotFound, renderdto.ErrorResponse{Code: renderdto.CodeNotFound, Message: "run not found"})
		return
	}
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, renderdto.ErrorResponse{Code: renderdto.CodeInternal, Message: err.Error(), Retryable: true})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toRunStatus(rec))
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx, allow string) {
	ctx.Response.Header.Set("Allow", allow)
	writeError(ctx, fasthttp.StatusMethodNotAllowed, renderdto.ErrorResponse{Code: renderdto.CodeBadRequest, Message: "method not allowed"})
}

// classify maps pipeline errors to a status and wire error.
func classify(err error) (int, renderdto.ErrorResponse) {
	var (
		inv  *board.InvalidNotationError
		nf   *board.PieceNotFoundError
		dup  *board.DuplicateTagError
		tpl  *board.TemplateLoadError
		rerr *board.RenderError
	)
	switch {
	case errors.As(err, &inv):
		return fasthttp.StatusUnprocessableEntity, renderdto.ErrorResponse{Code: renderdto.CodeInvalidNotation, Message: err.Error()}
	case errors.As(err, &nf):
		return fasthttp.StatusUnprocessableEntity, renderdto.ErrorResponse{Code: renderdto.CodePieceNotFound, Message: err.Error()}
	case errors.As(err, &dup):
		return fasthttp.StatusUnprocessableEntity, renderdto.ErrorResponse{Code: renderdto.CodeDuplicateTag, Message: err.Error()}
	case errors.As(err, &tpl):
		return fasthttp.StatusInternalServerError, renderdto.ErrorResponse{Code: renderdto.CodeTemplate, Message: err.Error()}
	case errors.As(err, &rerr):
		return fasthttp.StatusInternalServerError, renderdto.ErrorResponse{Code: renderdto.CodeRender, Message: err.Error(), Retryable: true}
	default:
		return fasthttp.StatusInternalServerError, renderdto.ErrorResponse{Code: renderdto.CodeInternal, Message: err.Error()}
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error(`{"code":"internal","message":"encode response"}`, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, body renderdto.ErrorResponse) {
	writeJSON(ctx, status, body)
}
