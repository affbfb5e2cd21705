package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/aegis/internal/domain"
	logpkg "github.com/kailas-cloud/aegis/internal/logger"
	gatewayuc "github.com/kailas-cloud/aegis/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/aegis/internal/usecase/health"
)

const maxBodyBytes = 1 << 20

// Client-facing messages. The dashboard shows them verbatim.
const (
	msgRateLimited         = "Rate limit exceeded. Please try again later."
	msgUpstreamRateLimited = "API rate limit exceeded. Please try again later."
	msgUpstreamAuth        = "Authentication failed. Please check API configuration."
	msgInternal            = "Internal server error. Please try again later."
	msgInvalidBody         = "Invalid request body"
)

// Gateway is the query use case consumed by the HTTP layer.
type Gateway interface {
	Handle(ctx context.Context, clientKey string, req gatewayuc.Request) (gatewayuc.Response, error)
	Info() gatewayuc.Info
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the gateway HTTP contract.
type Server struct {
	gateway       Gateway
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(gateway Gateway, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{gateway: gateway, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		invalidRequestHandler,
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, msgRateLimited),
		sentinelHandler(domain.ErrUpstreamAuth, http.StatusUnauthorized, msgUpstreamAuth),
		sentinelHandler(domain.ErrUpstreamRateLimited, http.StatusTooManyRequests, msgUpstreamRateLimited),
	}
	return s
}

// Query handles POST /api/sonar-query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		logpkg.FromContext(r.Context()).Debug("Undecodable request body", zap.Error(err))
		s.rejectBody(w, r)
		return
	}

	resp, err := s.gateway.Handle(r.Context(), clientKey(r), body.toDomain())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponseFrom(resp))
}

// rejectBody answers an undecodable body. The request still counts against
// the caller's quota, so a throttled client gets 429 rather than 400.
func (s *Server) rejectBody(w http.ResponseWriter, r *http.Request) {
	_, err := s.gateway.Handle(r.Context(), clientKey(r), gatewayuc.Request{})
	if err == nil || errors.Is(err, domain.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	s.handleDomainError(w, r, err)
}

// Info handles GET /api/sonar-query.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gateway.Info())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
		s.logger.Warn("Health check failing",
			zap.String("status", string(report.Status)),
			zap.Any("checks", report.Checks),
		)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

// invalidRequestHandler surfaces the validation message, which never carries input data.
func invalidRequestHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidRequest.Error()+": ")
	writeError(w, http.StatusBadRequest, capitalize(msg))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
