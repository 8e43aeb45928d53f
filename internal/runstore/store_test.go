package runstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/chess-puzzle-render/internal/sequencer"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisSaveLoad(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	m := &sequencer.Manifest{RunID: "r1", State: sequencer.Completed, Frames: []string{"a.jpg", "b.jpg"}}
	if err := s.Save(ctx, &Record{RunID: "r1", State: sequencer.Completed, Manifest: m, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, err := s.Load(ctx, "r1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.State != sequencer.Completed || rec.Manifest == nil || len(rec.Manifest.Frames) != 2 {
		t.Fatalf("record %+v", rec)
	}
	if ttl := mr.TTL("run:r1"); ttl != TTL {
		t.Fatalf("ttl %v", ttl)
	}
	if raw, _ := mr.Get("run:r1"); raw == "" || !strings.Contains(raw, `"state":"COMPLETED"`) {
		t.Fatalf("stored %s", raw)
	}

	mr.FastForward(TTL + time.Second)
	if _, err := s.Load(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired load err=%v", err)
	}
}

func TestRedisListNewestFirst(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		rec := &Record{RunID: id, State: sequencer.ProcessingHalfMove, UpdatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	got, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "new" || got[1].RunID != "mid" {
		t.Fatalf("list %+v", got)
	}
}

func TestDialRedisRejectsEmptyURL(t *testing.T) {
	if _, err := DialRedis(context.Background(), " "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Save(ctx, &Record{RunID: "a", State: sequencer.Failed, Error: "boom"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, err := s.Load(ctx, "a")
	if err != nil || rec.Error != "boom" || !rec.UpdatedAt.Equal(now) {
		t.Fatalf("Load %+v %v", rec, err)
	}
	now = now.Add(TTL + time.Minute)
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if list, _ := s.List(ctx, 0); len(list) != 0 {
		t.Fatalf("list %+v", list)
	}
}

func TestListenerPublishesTransitions(t *testing.T) {
	s := NewMemoryStore()
	l := Listener(s, func(err error) { t.Fatalf("save: %v", err) })
	ctx := context.Background()

	l(ctx, sequencer.ProcessingHalfMove, &sequencer.Manifest{RunID: "x"})
	l(ctx, sequencer.Failed, &sequencer.Manifest{RunID: "x", Error: "piece missing"})

	rec, err := s.Load(ctx, "x")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.State != sequencer.Failed || rec.Error != "piece missing" {
		t.Fatalf("record %+v", rec)
	}
}

func TestRedisListFillsLimitPastExpired(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 60; i++ {
		rec := &Record{RunID: fmt.Sprintf("run-%02d", i), State: sequencer.Completed, UpdatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	// The 55 newest records expire; their index entries linger.
	for i := 5; i < 60; i++ {
		mr.Del(fmt.Sprintf("run:run-%02d", i))
	}

	got, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].RunID != "run-04" || got[2].RunID != "run-02" {
		t.Fatalf("list %+v", got)
	}
	if members, _ := mr.ZMembers("run:index"); len(members) != 5 {
		t.Fatalf("index not pruned: %d members", len(members))
	}

	all, err := s.List(ctx, 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("unbounded list %d err=%v", len(all), err)
	}
}
