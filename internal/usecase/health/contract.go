package health

import "context"

// StorePinger checks cache store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// UpstreamChecker checks the language-model provider client.
type UpstreamChecker interface {
	HealthCheck(ctx context.Context) error
}
