package querycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/aegis/internal/db"
	"github.com/kailas-cloud/aegis/internal/domain"
	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// Backend is the storage contract shared by the SQL and KV adapters.
type Backend interface {
	Latest(ctx context.Context, fp string, now time.Time) (cache.Entry, error)
	Upsert(ctx context.Context, e cache.Entry) error
}

// Cache is the response cache. Store failures never reach the caller:
// a failed read is a miss and a failed write is logged and dropped.
type Cache struct {
	backend    Backend
	ttl        time.Duration
	now        func() time.Time
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides cache.DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics sets a counter vec with label "result" (hit, miss, error).
func WithMetrics(cacheTotal *prometheus.CounterVec) Option {
	return func(c *Cache) { c.cacheTotal = cacheTotal }
}

// New creates a response cache over the given backend.
func New(b Backend, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		backend: b,
		ttl:     cache.DefaultTTL,
		now:     time.Now,
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Lookup returns the newest current entry for fp.
func (c *Cache) Lookup(ctx context.Context, fp string) (cache.Entry, bool) {
	e, err := c.backend.Latest(ctx, fp, c.now())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc("miss")
			return cache.Entry{}, false
		}
		c.inc("error")
		c.logger.Warn("Cache lookup failed", zap.String("query_hash", fp), zap.Error(unavailable(err)))
		return cache.Entry{}, false
	}
	c.inc("hit")
	return e, true
}

// Store records a successful answer under fp. Best effort.
func (c *Cache) Store(ctx context.Context, fp, text string, m mode.Mode, a answer.Answer) {
	e := cache.NewEntry(fp, text, m, a, c.now(), c.ttl)
	if err := c.backend.Upsert(ctx, e); err != nil {
		c.inc("error")
		c.logger.Warn("Cache write failed", zap.String("query_hash", fp), zap.Error(unavailable(err)))
	}
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
}
