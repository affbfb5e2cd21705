package querycache

import (
	"context"
	"time"

	"github.com/kailas-cloud/aegis/internal/db"
	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
)

// mockBackend implements Backend for tests.
type mockBackend struct {
	latestFn func(ctx context.Context, fp string, now time.Time) (cache.Entry, error)
	upsertFn func(ctx context.Context, e cache.Entry) error
	upserts  []cache.Entry
}

func (m *mockBackend) Latest(ctx context.Context, fp string, now time.Time) (cache.Entry, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, fp, now)
	}
	return cache.Entry{}, db.ErrKeyNotFound
}

func (m *mockBackend) Upsert(ctx context.Context, e cache.Entry) error {
	m.upserts = append(m.upserts, e)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, e)
	}
	return nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testAnswer() answer.Answer {
	return answer.Answer{
		Text: "Heat action plans reduce mortality.",
		Citations: []answer.Citation{
			{Title: "Heat and Health", URL: "https://www.who.int/heat", Source: "who.int"},
		},
		Confidence:       70,
		ProcessingTimeMs: 1200,
	}
}
