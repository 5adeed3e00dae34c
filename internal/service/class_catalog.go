package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const classesCacheKey = "classes"

// ClassSource is the backend lookup the catalog fronts.
type ClassSource interface {
	AvailableClasses(ctx context.Context) ([]string, error)
}

// ClassCatalog serves the list of student classes, optionally through the
// cache. Invalidate must be called whenever persisted students change.
type ClassCatalog struct {
	source ClassSource
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewClassCatalog constructs a catalog. cache may be nil.
func NewClassCatalog(source ClassSource, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ClassCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassCatalog{source: source, cache: cache, ttl: ttl, logger: logger}
}

// AvailableClasses returns cached classes when present, otherwise asks the
// backend and stores the answer.
func (c *ClassCatalog) AvailableClasses(ctx context.Context) ([]string, error) {
	classes, err := Remember(ctx, c.cache, classesCacheKey, c.ttl, c.source.AvailableClasses)
	if err != nil {
		c.logger.Debug("class list unavailable", zap.Error(err))
		return nil, err
	}
	if classes == nil {
		classes = []string{}
	}
	return classes, nil
}

// Invalidate drops the cached class list.
func (c *ClassCatalog) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx, classesCacheKey)
}
