package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// cacheNamespace prefixes every key the console writes, so a shared redis
// database can be flushed selectively with "console:*".
const cacheNamespace = "console:"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts backend lookups that change only when students are
// uploaded or cleared. Keys are namespaced; concurrent misses on the same key
// are collapsed into a single backend call.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	loads      singleflight.Group
}

// NewCacheService constructs a cache service. A nil repo or enabled=false
// turns every operation into a miss that goes straight to the loader.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger.Named("cache"), enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Key returns the namespaced form of key.
func Key(key string) string {
	if strings.HasPrefix(key, cacheNamespace) {
		return key
	}
	return cacheNamespace + key
}

// Get reads key into dest and reports whether it was a hit. A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, Key(key), dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", Key(key)), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores value under key. ttl <= 0 uses the default TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, Key(key), value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", Key(key)), zap.Error(err))
	}
	return err
}

// Invalidate removes the entries matching pattern (a key or a "prefix*" glob).
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, Key(pattern)); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", Key(pattern)), zap.Error(err))
		return err
	}
	return nil
}

// Remember returns the value cached under key, or calls load and caches what
// it returns. Errors from load are returned as-is and never cached; cache
// failures only cost the extra backend call.
func Remember[T any](ctx context.Context, s *CacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if hit, err := s.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	if !s.Enabled() {
		return load(ctx)
	}

	v, err, shared := s.loads.Do(Key(key), func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		_ = s.Set(ctx, key, value, ttl)
		return value, nil
	})
	if shared {
		s.logger.Debug("cache load shared", zap.String("key", Key(key)))
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
