// Package ratelimit implements fixed-window admission control per client key.
package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of requests admitted per window.
	DefaultLimit = 10
	// DefaultWindow is the window length.
	DefaultWindow = time.Minute

	keyPrefix  = "rate_limit:"
	shardCount = 32
)

type windowState struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*windowState
}

// Memory is a process-local fixed-window limiter. Keys are spread over
// shards so unrelated clients never wait on the same mutex.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time
	shards [shardCount]shard
}

// MemoryOption configures a Memory limiter.
type MemoryOption func(*Memory)

// WithClock injects the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a limiter. Non-positive limit or window fall back to defaults.
func NewMemory(limit int, window time.Duration, opts ...MemoryOption) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	m := &Memory{limit: limit, window: window, now: time.Now}
	for i := range m.shards {
		m.shards[i].windows = make(map[string]*windowState)
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Admit applies the fixed-window rule to clientKey.
func (m *Memory) Admit(_ context.Context, clientKey string) bool {
	key := Key(clientKey)
	sh := m.shardFor(key)
	now := m.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok || !now.Before(w.resetAt) {
		sh.windows[key] = &windowState{count: 1, resetAt: now.Add(m.window)}
		return true
	}
	if w.count < m.limit {
		w.count++
		return true
	}
	return false
}

// Sweep drops windows that have already reset and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	removed := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for k, w := range sh.windows {
			if !now.Before(w.resetAt) {
				delete(sh.windows, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len returns the number of tracked windows.
func (m *Memory) Len() int {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}

func (m *Memory) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}

// Key namespaces a client identity.
func Key(clientKey string) string {
	return keyPrefix + clientKey
}
