package db

import (
	"context"
	"time"
)

// Store is the KV facade the gateway needs from Redis or Valkey.
type Store interface {
	Pinger
	KVStore
	WindowCounter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// WindowCounter admits requests against a fixed-window counter atomically.
type WindowCounter interface {
	// AdmitWindow returns true when the counter at key was below limit and has
	// been incremented. The first admission in a window starts its TTL.
	AdmitWindow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
