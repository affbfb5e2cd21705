package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
	"github.com/kailas-cloud/aegis/internal/domain/query"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// --- Mocks ---

type mockLimiter struct {
	deny  bool
	calls atomic.Int32
}

func (m *mockLimiter) Admit(_ context.Context, _ string) bool {
	m.calls.Add(1)
	return !m.deny
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
	lookups int
	stores  int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]cache.Entry)}
}

func (m *mockCache) Lookup(_ context.Context, fp string) (cache.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	e, ok := m.entries[fp]
	return e, ok
}

func (m *mockCache) Store(_ context.Context, fp, text string, md mode.Mode, a answer.Answer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	m.entries[fp] = cache.NewEntry(fp, text, md, a, time.Now(), cache.DefaultTTL)
}

type mockUpstream struct {
	answer answer.Answer
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockUpstream) Execute(_ context.Context, _ query.Query) (answer.Answer, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.answer, m.err
}

// gatedUpstream blocks until release is closed or ctx ends.
type gatedUpstream struct {
	answer  answer.Answer
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (m *gatedUpstream) Execute(ctx context.Context, _ query.Query) (answer.Answer, error) {
	m.calls.Add(1)
	m.once.Do(func() { close(m.started) })
	select {
	case <-ctx.Done():
		return answer.Answer{}, ctx.Err()
	case <-m.release:
		return m.answer, nil
	}
}

type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string   { return e.msg }
func (e *statusErr) HTTPStatus() int { return e.status }

func sampleAnswer() answer.Answer {
	return answer.Answer{
		Text: "Cooling centres cut heat mortality.",
		Citations: []answer.Citation{
			{Title: "Heat", URL: "https://who.int/heat", Source: "who.int"},
		},
		Confidence:       60,
		ProcessingTimeMs: 900,
	}
}
