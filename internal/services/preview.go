package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/utils"
	"go.uber.org/zap"
)

// PreviewService answers ad-hoc metadata lookups without touching the link registry.
// Successful fetches are cached for TTL when a cache is configured; failures never are.
type PreviewService struct {
	Fetcher Fetcher
	Cache   cache.Cache
	TTL     time.Duration
	Logger  *zap.Logger
}

// NewPreviewService creates a preview service; c may be nil.
func NewPreviewService(fetcher Fetcher, c cache.Cache, ttl time.Duration, log *zap.Logger) *PreviewService {
	return &PreviewService{Fetcher: fetcher, Cache: c, TTL: ttl, Logger: log.Named("preview")}
}

// Preview normalizes rawURL and returns its metadata mapping.
func (s *PreviewService) Preview(ctx context.Context, rawURL string) (map[string]string, error) {
	normalized, err := utils.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := models.HashURL(normalized)

	if meta, ok := s.lookup(ctx, key); ok {
		return meta, nil
	}

	meta, err := s.Fetcher.Fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, meta)
	return meta, nil
}

func (s *PreviewService) lookup(ctx context.Context, key string) (map[string]string, bool) {
	if s.Cache == nil {
		return nil, false
	}

	raw, err := s.Cache.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		previewCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		previewCacheTotal.WithLabelValues("error").Inc()
		s.Logger.Warn("preview cache read failed", zap.String("cache", s.Cache.Name()), zap.Error(err))
		return nil, false
	}

	var meta map[string]string
	if err := json.Unmarshal(raw, &meta); err != nil {
		previewCacheTotal.WithLabelValues("error").Inc()
		s.Logger.Warn("preview cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	previewCacheTotal.WithLabelValues("hit").Inc()
	return meta, true
}

func (s *PreviewService) store(ctx context.Context, key string, meta map[string]string) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, raw, s.TTL); err != nil {
		s.Logger.Warn("preview cache write failed", zap.String("cache", s.Cache.Name()), zap.Error(err))
	}
}
