// Package sonar is the client for the Perplexity Sonar chat-completions API.
package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/aegis/internal/domain"
	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/query"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
	"github.com/kailas-cloud/aegis/internal/metrics"
)

const (
	maxErrorBody = 64 << 10
	msgNoChoices = "No response generated from Sonar API"
	msgMalformed = "malformed response"
)

// Client executes queries against the provider. Safe for concurrent use.
type Client struct {
	http       *http.Client
	endpoint   string
	apiKey     string
	cfg        Config
	lastStatus atomic.Int64
	logger     *zap.Logger
}

// NewClient creates a client. A missing API key is a configuration error.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: SONAR_API_KEY is required", domain.ErrConfiguration)
	}
	cfg.applyDefaults()

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		http:     hc,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		cfg:      cfg,
		logger:   cfg.Logger,
	}, nil
}

// ModelFor returns the model identifier for m. Unknown modes use the deep-research model.
func (c *Client) ModelFor(m mode.Mode) string {
	if name, ok := c.cfg.Models[m]; ok {
		return name
	}
	return c.cfg.Models[mode.DeepResearch]
}

// Execute sends one chat-completion request and normalizes the result.
func (c *Client) Execute(ctx context.Context, q query.Query) (answer.Answer, error) {
	start := time.Now()
	model := c.ModelFor(q.Mode())
	labels := []string{string(q.Mode()), model}

	resp, err := c.send(ctx, c.buildRequest(model, q))
	duration := time.Since(start)
	if err != nil {
		c.observeError(labels, err)
		return answer.Answer{}, err
	}

	if len(resp.Choices) == 0 {
		err := &Error{Message: msgNoChoices}
		c.observeError(labels, err)
		return answer.Answer{}, err
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(labels[0], labels[1], "success").Inc()
	metrics.UpstreamRequestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.UpstreamTokensTotal.WithLabelValues(model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.UpstreamTokensTotal.WithLabelValues(model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	content := resp.Choices[0].Message.Content
	a := answer.Answer{
		Text:      content,
		Citations: toCitations(resp.Citations),
	}
	if q.Mode() == mode.ReasoningPro {
		a.Steps = extractSteps(content)
	}
	a.Confidence = confidence(len(a.Citations), content)
	a.ProcessingTimeMs = time.Since(start).Milliseconds()

	return a, nil
}

// HealthCheck fails when the provider last rejected our credential.
// The provider has no free status endpoint to probe.
func (c *Client) HealthCheck(_ context.Context) error {
	switch s := c.lastStatus.Load(); s {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{StatusCode: int(s), Message: "credential rejected"}
	}
	return nil
}

func (c *Client) buildRequest(model string, q query.Query) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(q)},
		},
		MaxTokens:          c.cfg.MaxTokens,
		Temperature:        c.cfg.Temperature,
		TopP:               c.cfg.TopP,
		ReturnCitations:    true,
		SearchDomainFilter: c.cfg.SearchDomains,
	}
}

func (c *Client) send(ctx context.Context, body chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = res.Body.Close() }()
	c.lastStatus.Store(int64(res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		apiErr := errorFromBody(res.StatusCode, raw)
		c.logger.Warn("Sonar API returned an error",
			zap.Int("status", res.StatusCode),
			zap.String("model", body.Model),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	var out chatResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &Error{Message: msgMalformed + ": " + err.Error()}
	}
	return &out, nil
}

func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "request timed out"}
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return &Error{Message: "request timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Message: "request canceled"}
	}
	return &Error{Message: "request failed: " + err.Error()}
}

func (c *Client) observeError(labels []string, err error) {
	errType := "transport"
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			errType = "auth"
		case apiErr.StatusCode == http.StatusTooManyRequests:
			errType = "rate_limited"
		case apiErr.StatusCode > 0:
			errType = "api_error"
		case apiErr.Message == msgNoChoices:
			errType = "empty_response"
		case strings.HasPrefix(apiErr.Message, msgMalformed):
			errType = "malformed_response"
		}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(labels[0], labels[1], "error").Inc()
	metrics.UpstreamErrorsTotal.WithLabelValues(labels[0], labels[1], errType).Inc()
}
