package main

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/valyala/fasthttp"
)

func serveStub(t *testing.T, healthy bool, renders *int32) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/healthz":
			if !healthy {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				ctx.SetBodyString(`{"code":"not_found","message":"no route"}`)
				return
			}
			ctx.SetBodyString(`{"status":"ok","store":"memory"}`)
		case "/v1/render":
			atomic.AddInt32(renders, 1)
			ctx.SetBodyString(`{"run_id":"remote-1","state":"COMPLETED","frames":["f0"]}`)
		}
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return "http://" + ln.Addr().String()
}

func writePuzzle(t *testing.T) string {
	t.Helper()
	doc := filepath.Join(t.TempDir(), "puzzle.yaml")
	if err := os.WriteFile(doc, []byte("fen: 6k1/8/8/8/8/8/8/4K3 w - - 0 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRenderRemoteChecksHealthFirst(t *testing.T) {
	var renders int32
	url := serveStub(t, true, &renders)
	out, err := run(t, "render", writePuzzle(t), "--server", url)
	if err != nil {
		t.Fatalf("render --server: %v", err)
	}
	if !strings.Contains(out, `"run_id": "remote-1"`) || atomic.LoadInt32(&renders) != 1 {
		t.Fatalf("output %q renders %d", out, renders)
	}
}

func TestRenderRemoteStopsOnUnhealthyServer(t *testing.T) {
	var renders int32
	url := serveStub(t, false, &renders)
	if _, err := run(t, "render", writePuzzle(t), "--server", url); err == nil {
		t.Fatalf("expected health check failure")
	}
	if atomic.LoadInt32(&renders) != 0 {
		t.Fatalf("puzzle submitted to unhealthy server")
	}
}
