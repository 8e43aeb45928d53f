package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("REDIS_URL required for the redis run store")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) keyRun(id string) string { return "run:" + strings.TrimSpace(id) }
func (s *RedisStore) keyIndex() string        { return "run:index" }

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.RunID) == "" {
		return errors.New("run record without id")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyRun(rec.RunID), raw, TTL)
	pipe.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(rec.UpdatedAt.UnixMilli()), Member: rec.RunID})
	pipe.Expire(ctx, s.keyIndex(), TTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Load(ctx context.Context, runID string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.keyRun(runID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &rec, nil
}

// List walks the index newest first. Entries whose record already expired
// are pruned and skipped, so the result is only short when the index runs out.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*Record, error) {
	const page = 50
	var out []*Record
	var start int64
	for limit <= 0 || len(out) < limit {
		ids, err := s.rdb.ZRevRange(ctx, s.keyIndex(), start, start+page-1).Result()
		if err != nil {
			return nil, err
		}
		var pruned int64
		for _, id := range ids {
			rec, err := s.Load(ctx, id)
			if errors.Is(err, ErrNotFound) {
				if err := s.rdb.ZRem(ctx, s.keyIndex(), id).Err(); err == nil {
					pruned++
				}
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
		if len(ids) < page {
			break
		}
		start += page - pruned
	}
	return out, nil
}
