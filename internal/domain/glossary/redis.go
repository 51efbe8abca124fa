package glossary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis constructs a redis-backed glossary store. Each language pair maps
// to one hash so terms stay atomic per pair.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "glossary:pair:"
	}

	return &redisStore{
		client: client,
		ttl:    cfg.TTL,
		prefix: prefix,
	}, nil
}

func (s *redisStore) key(pair string) string {
	return s.prefix + pair
}

func (s *redisStore) Put(ctx context.Context, pair string, term, translation string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if pair == "" || term == "" {
		return fmt.Errorf("pair and term required")
	}
	if err := s.client.HSet(ctx, s.key(pair), term, translation).Err(); err != nil {
		return err
	}
	if s.ttl > 0 {
		return s.client.Expire(ctx, s.key(pair), s.ttl).Err()
	}
	return nil
}

func (s *redisStore) Terms(ctx context.Context, pair string) (map[string]string, error) {
	terms, err := s.client.HGetAll(ctx, s.key(pair)).Result()
	if err != nil {
		return nil, err
	}
	return terms, nil
}

func (s *redisStore) Remove(ctx context.Context, pair string, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	return s.client.HDel(ctx, s.key(pair), term).Err()
}

func (s *redisStore) Pairs(ctx context.Context) ([]string, error) {
	var cursor uint64
	pairs := make([]string, 0)
	pattern := s.prefix + "*"
	for {
		res, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range res {
			pairs = append(pairs, strings.TrimPrefix(key, s.prefix))
		}
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return pairs, nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "redis",
		"pairs": size,
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
