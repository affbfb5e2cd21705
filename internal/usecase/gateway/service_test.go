package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/aegis/internal/db/memory"
	"github.com/kailas-cloud/aegis/internal/domain"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
	"github.com/kailas-cloud/aegis/internal/domain/query"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
	logpkg "github.com/kailas-cloud/aegis/internal/logger"
	"github.com/kailas-cloud/aegis/internal/repository/querycache"
	"github.com/kailas-cloud/aegis/internal/transport/sonar"
	"github.com/kailas-cloud/aegis/internal/usecase/ratelimit"
)

func TestHandle_RateLimited(t *testing.T) {
	c := newMockCache()
	up := &mockUpstream{answer: sampleAnswer()}
	svc := New(&mockLimiter{deny: true}, c, up, zap.NewNop())

	_, err := svc.Handle(context.Background(), "1.2.3.4", Request{Text: "q", Mode: "deep_research"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if c.lookups != 0 || up.calls.Load() != 0 {
		t.Fatalf("denied request touched cache (%d) or upstream (%d)", c.lookups, up.calls.Load())
	}
}

func TestHandle_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty text", Request{Text: "", Mode: "deep_research"}},
		{"unknown mode", Request{Text: "x", Mode: "not_a_mode"}},
		{"missing mode", Request{Text: "x"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newMockCache()
			up := &mockUpstream{}
			svc := New(&mockLimiter{}, c, up, zap.NewNop())

			_, err := svc.Handle(context.Background(), "k", tc.req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if c.lookups != 0 || up.calls.Load() != 0 {
				t.Fatal("invalid request reached cache or upstream")
			}
		})
	}
}

func TestHandle_CacheHitShortCircuits(t *testing.T) {
	c := newMockCache()
	q, err := query.New("heat plans", mode.DeepResearch, nil)
	if err != nil {
		t.Fatal(err)
	}
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fp := query.Fingerprint(q)
	c.entries[fp] = cache.NewEntry(fp, "heat plans", mode.DeepResearch, sampleAnswer(), created, cache.DefaultTTL)

	up := &mockUpstream{}
	svc := New(&mockLimiter{}, c, up, zap.NewNop())

	resp, err := svc.Handle(context.Background(), "k", Request{Text: "heat plans", Mode: "deep_research"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Cached || !resp.CacheTimestamp.Equal(created) {
		t.Fatalf("cached=%v ts=%v", resp.Cached, resp.CacheTimestamp)
	}
	if !reflect.DeepEqual(resp.Answer, sampleAnswer()) {
		t.Fatalf("answer = %+v", resp.Answer)
	}
	if up.calls.Load() != 0 {
		t.Fatalf("upstream called %d times on hit", up.calls.Load())
	}
}

func TestHandle_MissStores(t *testing.T) {
	c := newMockCache()
	up := &mockUpstream{answer: sampleAnswer()}
	svc := New(&mockLimiter{}, c, up, zap.NewNop())

	resp, err := svc.Handle(context.Background(), "k", Request{Text: "q", Mode: "search_citation"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Cached || !resp.CacheTimestamp.IsZero() {
		t.Fatalf("cached=%v ts=%v", resp.Cached, resp.CacheTimestamp)
	}
	if c.stores != 1 {
		t.Fatalf("stores = %d, want 1", c.stores)
	}
}

func TestHandle_UpstreamFailureSkipsStore(t *testing.T) {
	c := newMockCache()
	up := &mockUpstream{err: errors.New("sonar API error: 401 - bad key")}
	svc := New(&mockLimiter{}, c, up, zap.NewNop())

	_, err := svc.Handle(context.Background(), "k", Request{Text: "q", Mode: "deep_research"})
	if !errors.Is(err, domain.ErrUpstreamAuth) {
		t.Fatalf("expected ErrUpstreamAuth, got %v", err)
	}
	if c.stores != 0 {
		t.Fatalf("stores = %d, want 0", c.stores)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"message 401", errors.New("Sonar API error: 401 Unauthorized"), domain.ErrUpstreamAuth},
		{"message 403", errors.New("status 403"), domain.ErrUpstreamAuth},
		{"status 403", &statusErr{status: 403, msg: "forbidden"}, domain.ErrUpstreamAuth},
		{"message 429", errors.New("Sonar API error: 429"), domain.ErrUpstreamRateLimited},
		{"message rate limit", errors.New("Rate Limit reached for model"), domain.ErrUpstreamRateLimited},
		{"status 429", &statusErr{status: 429, msg: "slow down"}, domain.ErrUpstreamRateLimited},
		{"other", errors.New("connection reset"), domain.ErrInternal},
		{"status 500", &statusErr{status: 500, msg: "boom"}, domain.ErrInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
			if got.Error() == tc.err.Error() {
				t.Fatal("raw provider message leaked")
			}
		})
	}
}

func TestHandle_SingleFlight(t *testing.T) {
	c := newMockCache()
	up := &mockUpstream{answer: sampleAnswer(), delay: 100 * time.Millisecond}
	svc := New(&mockLimiter{}, c, up, zap.NewNop(), WithSingleFlight())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Handle(context.Background(), "k", Request{Text: "same", Mode: "deep_research"}); err != nil {
				t.Errorf("Handle: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := up.calls.Load(); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
	if c.stores != 1 {
		t.Fatalf("stores = %d, want 1", c.stores)
	}
}

func TestHandle_SingleFlightSurvivesLeaderCancel(t *testing.T) {
	c := newMockCache()
	up := &gatedUpstream{answer: sampleAnswer(), started: make(chan struct{}), release: make(chan struct{})}
	svc := New(&mockLimiter{}, c, up, zap.NewNop(), WithSingleFlight())
	req := Request{Text: "shared question", Mode: "deep_research"}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Handle(leaderCtx, "leader", req)
		leaderErr <- err
	}()
	<-up.started

	type result struct {
		resp Response
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		resp, err := svc.Handle(context.Background(), "follower", req)
		follower <- result{resp, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; err == nil {
		t.Fatal("leader: expected error after cancel")
	}

	close(up.release)
	res := <-follower
	if res.err != nil {
		t.Fatalf("follower: %v", res.err)
	}
	if res.resp.Text != sampleAnswer().Text {
		t.Errorf("follower answer = %q", res.resp.Text)
	}
	if n := up.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestHandle_LogsThroughRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logpkg.ContextWithLogger(context.Background(),
		zap.New(core).With(zap.String("client", "203.0.113.9")))
	svc := New(&mockLimiter{}, newMockCache(), &mockUpstream{answer: sampleAnswer()}, zap.NewNop())

	if _, err := svc.Handle(ctx, "203.0.113.9", Request{Text: "private question", Mode: "deep_research"}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	entries := logs.FilterMessage("Sonar query completed").All()
	if len(entries) != 1 {
		t.Fatalf("log lines = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["client"] != "203.0.113.9" || fields["mode"] != "deep_research" {
		t.Errorf("fields = %v", fields)
	}
	for k, v := range fields {
		if v == "private question" {
			t.Errorf("query text leaked in field %q", k)
		}
	}
}

func TestHandle_Metrics(t *testing.T) {
	rl := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rl"}, []string{"result"})
	qt := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "qt"}, []string{"mode", "outcome"})
	lim := &mockLimiter{}
	svc := New(lim, newMockCache(), &mockUpstream{answer: sampleAnswer()}, zap.NewNop(), WithMetrics(rl, qt))

	_, _ = svc.Handle(context.Background(), "k", Request{Text: "q", Mode: "deep_research"})
	_, _ = svc.Handle(context.Background(), "k", Request{Text: "q", Mode: "deep_research"})
	_, _ = svc.Handle(context.Background(), "k", Request{Text: "q", Mode: "bogus"})
	lim.deny = true
	_, _ = svc.Handle(context.Background(), "k", Request{Text: "q", Mode: "deep_research"})

	checks := []struct {
		got  float64
		want float64
	}{
		{testutil.ToFloat64(rl.WithLabelValues("admitted")), 3},
		{testutil.ToFloat64(rl.WithLabelValues("denied")), 1},
		{testutil.ToFloat64(qt.WithLabelValues("deep_research", "upstream")), 1},
		{testutil.ToFloat64(qt.WithLabelValues("deep_research", "cached")), 1},
		{testutil.ToFloat64(qt.WithLabelValues("unknown", "invalid")), 1},
	}
	for i, c := range checks {
		if c.got != c.want {
			t.Errorf("check %d: got %v, want %v", i, c.got, c.want)
		}
	}
}

func TestInfo(t *testing.T) {
	info := New(&mockLimiter{}, newMockCache(), &mockUpstream{}, zap.NewNop()).Info()

	if info.Service != "AEGIS Sonar API" || info.Status != "operational" {
		t.Fatalf("info = %+v", info)
	}
	if info.Endpoints["query"] != "POST /api/sonar-query" {
		t.Fatalf("endpoints = %v", info.Endpoints)
	}
	if len(info.Modes) != 3 || info.Modes[1] != mode.ReasoningPro {
		t.Fatalf("modes = %v", info.Modes)
	}
}

// TestHandle_CarbonTaxScenario wires the real limiter, cache and provider
// client against a stub provider.
func TestHandle_CarbonTaxScenario(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		_, _ = io.WriteString(w, `{"id":"1","choices":[{"index":0,"message":{"role":"assistant",`+
			`"content":"1. Reduce emissions\n2. Monitor costs"},"finish_reason":"stop"}],`+
			`"citations":[{"title":"A","url":"https://www.nature.com/a","text":"t"},"https://cdc.gov/b"]}`)
	}))
	defer server.Close()

	client, err := sonar.NewClient(sonar.Config{APIKey: "k", BaseURL: server.URL, Logger: zap.NewNop()})
	if err != nil {
		t.Fatal(err)
	}
	c := querycache.New(querycache.NewKVStore(memory.NewStore(time.Minute)), zap.NewNop())
	svc := New(ratelimit.NewMemory(10, time.Minute), c, client, zap.NewNop())

	req := Request{
		Text:    "impact of carbon tax",
		Mode:    "reasoning_pro",
		Context: &query.Context{Sectors: []string{"climate"}},
	}

	first, err := svc.Handle(context.Background(), "10.0.0.1", req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Cached {
		t.Fatal("first call must not be cached")
	}
	if !reflect.DeepEqual(first.Steps, []string{"Reduce emissions", "Monitor costs"}) {
		t.Fatalf("steps = %q", first.Steps)
	}
	if len(first.Citations) != 2 {
		t.Fatalf("citations = %d", len(first.Citations))
	}

	second, err := svc.Handle(context.Background(), "10.0.0.1", req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !second.Cached || second.CacheTimestamp.IsZero() {
		t.Fatalf("second cached=%v ts=%v", second.Cached, second.CacheTimestamp)
	}
	if !reflect.DeepEqual(first.Answer, second.Answer) {
		t.Fatalf("cached answer differs:\n%+v\n%+v", first.Answer, second.Answer)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("provider calls = %d, want 1", calls)
	}
}
