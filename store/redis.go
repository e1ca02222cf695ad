package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// recordTTL keeps archived matches around for a month.
const recordTTL = 30 * 24 * time.Hour

// Redis keeps each match record as JSON under its match key and maintains one
// index set per agent so an agent's match history can be listed.
type Redis struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedis connects and pings the server. The URL takes the usual
// redis://[user:pass@]host:port/db form.
func NewRedis(url string, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.WithMessage(err, "parse redis url")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.WithMessage(err, "redis ping")
	}
	return &Redis{rdb: rdb, logger: logger}, nil
}

func matchKey(id string) string { return "arena:match:" + id }

func agentKey(id string) string { return "arena:agent:" + id }

func (s *Redis) SaveResult(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := s.rdb.Set(ctx, matchKey(rec.ID), raw, recordTTL).Err(); err != nil {
		return errors.WithMessage(err, "save record")
	}
	for _, agent := range []string{rec.White, rec.Black} {
		if agent == "" {
			continue
		}
		if err := s.rdb.SAdd(ctx, agentKey(agent), rec.ID).Err(); err != nil {
			return errors.WithMessage(err, "index record")
		}
	}
	s.logger.Debug("match archived", zap.String("match_id", rec.ID))
	return nil
}

// LoadResult returns nil without error when no record exists under the id.
func (s *Redis) LoadResult(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, matchKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "load record")
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.WithStack(err)
	}
	return &rec, nil
}

func (s *Redis) ListByAgent(ctx context.Context, agentID string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, agentKey(agentID)).Result()
	if err != nil {
		return nil, errors.WithMessage(err, "list matches")
	}
	return ids, nil
}

// Close releases the connection pool.
func (s *Redis) Close() error { return s.rdb.Close() }
