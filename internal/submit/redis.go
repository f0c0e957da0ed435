package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/store"
)

const (
	defaultRedisTTL    = 7 * 24 * time.Hour
	defaultRedisPrefix = "interview"
	recentIndexSize    = 100
)

// #region redis-submitter
// RedisSubmitter stores reports as JSON values with a TTL and keeps a capped list of recent IDs.
type RedisSubmitter struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisSubmitter.
type RedisOption func(*RedisSubmitter)

// WithTTL sets how long stored reports live. Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisSubmitter) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix. Default is "interview".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisSubmitter) {
		s.prefix = prefix
	}
}

// NewRedis creates a Redis-backed submitter.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisSubmitter {
	s := &RedisSubmitter{
		client: client,
		ttl:    defaultRedisTTL,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Submitter.
func (s *RedisSubmitter) Name() string { return "redis" }

// Submit implements Submitter. SET and the index update go out in one pipeline.
func (s *RedisSubmitter) Submit(ctx context.Context, r interview.Report) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.reportKey(r.ID), data, s.ttl)
	pipe.LPush(ctx, s.indexKey(), r.ID)
	pipe.LTrim(ctx, s.indexKey(), 0, recentIndexSize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis pipeline failed: %w", err)
	}
	return r.ID, nil
}

// Load reads a stored report back.
func (s *RedisSubmitter) Load(ctx context.Context, id string) (interview.Report, error) {
	data, err := s.client.Get(ctx, s.reportKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return interview.Report{}, fmt.Errorf("load report %s: %w", id, store.ErrNotFound)
		}
		return interview.Report{}, fmt.Errorf("redis get failed: %w", err)
	}
	var r interview.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return interview.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return r, nil
}

// Recent returns the most recently submitted report IDs, newest first.
func (s *RedisSubmitter) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.client.LRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}
	return ids, nil
}

func (s *RedisSubmitter) reportKey(id string) string {
	return s.prefix + ":report:" + id
}

func (s *RedisSubmitter) indexKey() string {
	return s.prefix + ":reports"
}
// #endregion redis-submitter
