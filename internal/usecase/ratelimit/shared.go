package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/aegis/internal/domain"
)

// Shared keeps windows in an external store so every gateway instance
// enforces one quota per client.
type Shared struct {
	counter WindowCounter
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

// NewShared creates a store-backed limiter. Non-positive limit or window fall back to defaults.
func NewShared(counter WindowCounter, limit int, window time.Duration, logger *zap.Logger) *Shared {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Shared{counter: counter, limit: limit, window: window, logger: logger}
}

// Admit asks the store. A store failure admits the request.
func (s *Shared) Admit(ctx context.Context, clientKey string) bool {
	key := domain.KeyPrefix + Key(clientKey)
	ok, err := s.counter.AdmitWindow(ctx, key, s.limit, s.window)
	if err != nil {
		s.logger.Warn("Rate limit store unavailable, admitting request",
			zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}
