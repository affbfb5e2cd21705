package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/aegis/internal/db"
	"github.com/kailas-cloud/aegis/internal/domain"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
)

var kvKeyPrefix = domain.KeyPrefix + "sonar_cache:"

// kvStore is the consumer interface for the KV-backed entry store (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KVStore keeps one JSON document per fingerprint. A write replaces the
// document and its native TTL, which is the upsert.
type KVStore struct {
	store kvStore
}

// NewKVStore creates a KV-backed entry store.
func NewKVStore(s kvStore) *KVStore {
	return &KVStore{store: s}
}

// Latest returns the entry for fp if it is still current at now.
func (s *KVStore) Latest(ctx context.Context, fp string, now time.Time) (cache.Entry, error) {
	data, err := s.store.Get(ctx, kvKey(fp))
	if err != nil {
		return cache.Entry{}, err
	}

	var e cache.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return cache.Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	// Native TTL is second-granular; expires_at is authoritative.
	if !e.IsCurrent(now) {
		return cache.Entry{}, db.ErrKeyNotFound
	}
	return e, nil
}

// Upsert writes the entry with a TTL matching its expires_at.
func (s *KVStore) Upsert(ctx context.Context, e cache.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	ttl := e.ExpiresAt.Sub(e.CreatedAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.store.SetWithTTL(ctx, kvKey(e.Fingerprint), data, ttl); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

func kvKey(fp string) string {
	return kvKeyPrefix + fp
}
