// Package glossary persists preserved terminology across sessions so that a
// returning speaker keeps consistent translations for names and jargon.
package glossary

import (
	"context"
	"time"
)

// Store defines the behaviour required by the session manager.
type Store interface {
	Put(ctx context.Context, pair string, term, translation string) error
	Terms(ctx context.Context, pair string) (map[string]string, error)
	Remove(ctx context.Context, pair string, term string) error
	Pairs(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
