// Package cache provides byte caches for link previews.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localnerve/homespace/internal/config"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
	Name() string
}

// New opens the cache selected by CACHE_TYPE. It returns nil, nil for "none".
func New(cfg *config.Config, log *zap.Logger) (Cache, error) {
	switch cfg.CacheType {
	case "redis":
		c, err := NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "badger":
		c, err := NewBadgerCache(cfg.BadgerPath, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "", "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
}
