// Package memory is a process-local KV store for single-instance runs and tests.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kailas-cloud/aegis/internal/db"
)

// Store implements db.Pinger and db.KVStore on top of go-cache.
type Store struct {
	items *gocache.Cache
}

var (
	_ db.Pinger  = (*Store)(nil)
	_ db.KVStore = (*Store)(nil)
)

// NewStore creates a store; expired items are purged every cleanupInterval.
func NewStore(cleanupInterval time.Duration) *Store {
	return &Store{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	data, _ := v.([]byte)
	return append([]byte(nil), data...), nil
}

// Set stores a value without expiration.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.items.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

// SetWithTTL stores a value that disappears after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

// Close is a no-op; go-cache's janitor stops when the cache is collected.
func (s *Store) Close() {}
