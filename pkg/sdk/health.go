package aegis

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Health fetches GET /health. A degraded or failing gateway answers 503 with a
// report; that report is returned without error.
func (c *Client) Health(ctx context.Context) (status HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err, false) }()

	err = c.do(ctx, http.MethodGet, "/health", nil, &status)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && status.Status != "" {
		return status, nil
	}
	return status, err
}
