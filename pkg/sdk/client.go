package aegis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 90 * time.Second
	queryPath       = "/api/sonar-query"
	maxResponseBody = 8 << 20
)

// Client calls the gateway over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	obs     *observer
}

// New creates a Client for the gateway at baseURL (scheme and host, optional path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("aegis: invalid base URL %q", baseURL)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		obs:     obs,
	}, nil
}

// Query submits a question. Non-2xx answers are returned as *APIError.
func (c *Client) Query(ctx context.Context, req QueryRequest) (resp QueryResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err, resp.Cached) }()

	err = c.do(ctx, http.MethodPost, queryPath, req, &resp)
	return resp, err
}

// Info fetches the service description.
func (c *Client) Info(ctx context.Context) (info ServiceInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("info", start, err, false) }()

	err = c.do(ctx, http.MethodGet, queryPath, nil, &info)
	return info, err
}

// do sends one request. On a non-2xx status it still decodes the body into out
// when possible, and returns an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("aegis: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("aegis: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("aegis: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("aegis: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		_ = json.Unmarshal(raw, out)
		return apiErrorFrom(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("aegis: decode response: %w", err)
	}
	return nil
}

func apiErrorFrom(status int, raw []byte) *APIError {
	var e struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &APIError{StatusCode: status, Message: msg}
}

// IsRetryable reports whether err is worth retrying after a delay.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrInternal)
}
