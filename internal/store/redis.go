package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"offgrid-planner/internal/optimize"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "offgrid:result:"

// Redis stores results as JSON values under prefix+ID with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	return NewRedisClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.Prefix, cfg.TTL)
}

// NewRedisClient wraps an existing client. Zero TTL keeps results for a day.
func NewRedisClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks the connection.
func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Redis) Put(ctx context.Context, r *optimize.Result) error {
	if r == nil || r.ID == "" {
		return errors.New("result has no id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", r.ID, err)
	}
	if err := s.client.Set(ctx, s.prefix+r.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store result %s: %w", r.ID, err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (*optimize.Result, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	var r optimize.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &r, nil
}

func (s *Redis) Close() error { return s.client.Close() }
