// Package gateway orchestrates one query: admission, validation, cache and upstream.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/aegis/internal/domain"
	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/query"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
	logpkg "github.com/kailas-cloud/aegis/internal/logger"
)

// Request is a raw, not yet validated query.
type Request struct {
	Text    string
	Mode    string
	Context *query.Context
}

// Response is an answer plus its cache provenance.
type Response struct {
	answer.Answer
	Cached bool
	// CacheTimestamp is the entry's created_at; zero unless Cached.
	CacheTimestamp time.Time
}

// Service is the query gateway.
type Service struct {
	limiter  Limiter
	cache    Cache
	upstream Upstream
	logger   *zap.Logger

	flights      *singleflight.Group
	rateLimits   *prometheus.CounterVec
	queriesTotal *prometheus.CounterVec
}

// Option configures a Service.
type Option func(*Service)

// WithSingleFlight makes concurrent misses on one fingerprint share an upstream call.
func WithSingleFlight() Option {
	return func(s *Service) { s.flights = &singleflight.Group{} }
}

// WithMetrics sets counters for limiter decisions (label "result") and
// query outcomes (labels "mode", "outcome"). Either may be nil.
func WithMetrics(rateLimits, queriesTotal *prometheus.CounterVec) Option {
	return func(s *Service) {
		s.rateLimits = rateLimits
		s.queriesTotal = queriesTotal
	}
}

// New creates a gateway service.
func New(limiter Limiter, c Cache, upstream Upstream, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{limiter: limiter, cache: c, upstream: upstream, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handle runs one request cycle. No step is retried.
func (s *Service) Handle(ctx context.Context, clientKey string, req Request) (Response, error) {
	if !s.limiter.Admit(ctx, clientKey) {
		s.incRateLimit("denied")
		return Response{}, domain.ErrRateLimited
	}
	s.incRateLimit("admitted")

	q, err := query.New(req.Text, mode.Mode(req.Mode), req.Context)
	if err != nil {
		s.incQuery(req.Mode, "invalid")
		return Response{}, err
	}

	fp := query.Fingerprint(q)

	if e, ok := s.cache.Lookup(ctx, fp); ok {
		s.incQuery(req.Mode, "cached")
		return Response{Answer: e.Response, Cached: true, CacheTimestamp: e.CreatedAt}, nil
	}

	log := logpkg.FromContextOr(ctx, s.logger)
	a, err := s.execute(ctx, fp, q)
	if err != nil {
		log.Error("Sonar query failed", zap.String("mode", req.Mode), zap.Error(err))
		classified := Classify(err)
		s.incQuery(req.Mode, outcomeFor(classified))
		return Response{}, classified
	}

	log.Info("Sonar query completed",
		zap.String("mode", req.Mode),
		zap.Int("chars", utf8.RuneCountInString(req.Text)),
		zap.Int("citations", len(a.Citations)),
	)
	s.incQuery(req.Mode, "upstream")
	return Response{Answer: a}, nil
}

// execute calls upstream and stores the answer. With single-flight enabled
// only the leader of a flight writes the cache, and the shared call runs
// detached from any one caller so a disconnecting leader cannot fail the
// followers. Each caller still stops waiting when its own ctx ends.
func (s *Service) execute(ctx context.Context, fp string, q query.Query) (answer.Answer, error) {
	call := func(ctx context.Context) (answer.Answer, error) {
		a, err := s.upstream.Execute(ctx, q)
		if err != nil {
			return answer.Answer{}, err
		}
		s.cache.Store(ctx, fp, q.Text(), q.Mode(), a)
		return a, nil
	}

	if s.flights == nil {
		return call(ctx)
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(fp, func() (any, error) {
		return call(flightCtx)
	})
	select {
	case <-ctx.Done():
		return answer.Answer{}, fmt.Errorf("await shared upstream call: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return answer.Answer{}, res.Err //nolint:wrapcheck // classified by caller
		}
		return res.Val.(answer.Answer), nil
	}
}

// Classify maps an upstream failure onto the caller-visible taxonomy.
// Raw provider messages never survive classification.
func Classify(err error) error {
	var se interface{ HTTPStatus() int }
	status := 0
	if errors.As(err, &se) {
		status = se.HTTPStatus()
	}
	msg := strings.ToLower(err.Error())

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamAuth, domain.ErrUpstream)
	case status == http.StatusTooManyRequests ||
		strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamRateLimited, domain.ErrUpstream)
	default:
		return domain.ErrInternal
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpstreamAuth):
		return "upstream_auth"
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return "upstream_rate_limited"
	default:
		return "error"
	}
}

func (s *Service) incRateLimit(result string) {
	if s.rateLimits != nil {
		s.rateLimits.WithLabelValues(result).Inc()
	}
}

func (s *Service) incQuery(m, outcome string) {
	if s.queriesTotal == nil {
		return
	}
	if !mode.Mode(m).IsValid() {
		m = "unknown"
	}
	s.queriesTotal.WithLabelValues(m, outcome).Inc()
}
