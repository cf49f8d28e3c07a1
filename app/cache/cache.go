// Package cache provides the application cache with interchangeable
// backends selected by CACHE_TYPE.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Type     string
	RedisURL string
	// Prefix namespaces redis keys.
	Prefix string
}

// New builds the backend named by cfg.Type: "simple", "redis" or "null".
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "simple":
		return NewMemory()
	case "redis":
		return NewRedis(cfg.RedisURL, cfg.Prefix)
	case "null":
		return Null{}, nil
	}
	return nil, fmt.Errorf("cache: unknown type %q", cfg.Type)
}

// Null never stores anything.
type Null struct{}

func (Null) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Null) Delete(context.Context, ...string) error                  { return nil }
func (Null) Clear(context.Context) error                              { return nil }
func (Null) Close() error                                             { return nil }
