package httpapi

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/valyala/fasthttp"

	"github.com/park285/chess-puzzle-render/internal/board"
	"github.com/park285/chess-puzzle-render/internal/runstore"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
	"github.com/park285/chess-puzzle-render/pkg/renderdto"
)

type fileRaster struct{}

func (fileRaster) Ext() string { return "png" }

func (fileRaster) RenderFile(_ context.Context, scene board.Scene, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(scene.String()), 0o644)
}

const dailyJSON = `{
  "chess_board": {
    "white_position": ["Qe6", "Nd5", "Pg4", "Pa3", "Pf3", "Bf1", "Kg1"],
    "black_position": ["bb8", "re8", "rh8", "pb7", "kh7", "pa6", "pc5", "pd4", "ph3", "qd1"]
  },
  "solution": {
    "move1": {"white": "e6f7", "black": "h7h6"},
    "move2": {"white": "g4g5", "black": "h6g5"},
    "move3": {"white": "f7g7", "black": "g5h5"},
    "move4": {"white": "d5f6", "black": "h5h4"},
    "move5": {"white": "g7g4"}
  },
  "whose_turn": "White"
}`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb, err := runstore.DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	store := runstore.NewRedisStore(rdb)

	out := t.TempDir()
	factory := func(runID string) *sequencer.Sequencer {
		seq := sequencer.New(sequencer.Options{RunID: runID, Dir: filepath.Join(out, runID), FramesPerMove: 2},
			nil, board.NewGeometry(135), fileRaster{}, nil)
		seq.OnStateChange(runstore.Listener(store, nil))
		return seq
	}
	return NewServer(factory, store, Options{StoreKind: "redis"}, nil), out
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	s.Handler(ctx)
	return ctx
}

func TestRenderThenStatus(t *testing.T) {
	s, out := newTestServer(t)

	ctx := do(s, fasthttp.MethodPost, "/v1/render", dailyJSON)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status %d body %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var resp renderdto.RenderResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != "COMPLETED" || len(resp.HalfMoves) != 9 || len(resp.Frames) != 18 {
		t.Fatalf("response %+v", resp)
	}
	if string(ctx.Response.Header.Peek("X-Run-Id")) != resp.RunID {
		t.Fatalf("run id header mismatch")
	}
	if filepath.Dir(resp.InitialImage) != filepath.Join(out, resp.RunID) {
		t.Fatalf("initial %s", resp.InitialImage)
	}

	ctx = do(s, fasthttp.MethodGet, "/v1/runs/"+resp.RunID, "")
	var st renderdto.RunStatus
	if err := json.Unmarshal(ctx.Response.Body(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.State != "COMPLETED" || st.FrameCount != 18 || st.HalfMoves != 9 {
		t.Fatalf("status %+v", st)
	}

	ctx = do(s, fasthttp.MethodGet, "/v1/runs?limit=5", "")
	var list renderdto.RunList
	if err := json.Unmarshal(ctx.Response.Body(), &list); err != nil || len(list.Runs) != 1 {
		t.Fatalf("list %s (%v)", ctx.Response.Body(), err)
	}
}

func TestRenderMissingPieceDiscardsFrames(t *testing.T) {
	s, out := newTestServer(t)
	body := `{"chess_board":{"white_position":["Ke1"],"black_position":["ke8"]},
	  "solution":{"move1":{"white":"e1e2","black":"d7d6"}},"whose_turn":"White"}`

	ctx := do(s, fasthttp.MethodPost, "/v1/render", body)
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("status %d", ctx.Response.StatusCode())
	}
	var e renderdto.ErrorResponse
	if err := json.Unmarshal(ctx.Response.Body(), &e); err != nil || e.Code != renderdto.CodePieceNotFound {
		t.Fatalf("error body %s", ctx.Response.Body())
	}

	runID := string(ctx.Response.Header.Peek("X-Run-Id"))
	entries, _ := os.ReadDir(filepath.Join(out, runID, "moves"))
	if len(entries) != 0 {
		t.Fatalf("partial frames kept: %d", len(entries))
	}
	ctx = do(s, fasthttp.MethodGet, "/v1/runs/"+runID, "")
	var st renderdto.RunStatus
	_ = json.Unmarshal(ctx.Response.Body(), &st)
	if st.State != "FAILED" || st.Error == "" {
		t.Fatalf("status %+v", st)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)
	if ctx := do(s, fasthttp.MethodPost, "/v1/render", "solution: [oops"); ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("bad yaml status %d", ctx.Response.StatusCode())
	}
	body := `{"chess_board":{"white_position":["Ke9"],"black_position":[]},"solution":{}}`
	if ctx := do(s, fasthttp.MethodPost, "/v1/render", body); ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("bad square status %d", ctx.Response.StatusCode())
	}
}

func TestRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	if ctx := do(s, fasthttp.MethodGet, "/healthz", ""); ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("healthz %d", ctx.Response.StatusCode())
	}
	if ctx := do(s, fasthttp.MethodGet, "/v1/render", ""); ctx.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("GET render %d", ctx.Response.StatusCode())
	}
	if ctx := do(s, fasthttp.MethodGet, "/v1/runs/unknown", ""); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unknown run %d", ctx.Response.StatusCode())
	}
	if ctx := do(s, fasthttp.MethodGet, "/nope", ""); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unknown route %d", ctx.Response.StatusCode())
	}
}
