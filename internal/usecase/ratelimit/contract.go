package ratelimit

import (
	"context"
	"time"
)

// Limiter admits or denies one request for a client key.
type Limiter interface {
	Admit(ctx context.Context, clientKey string) bool
}

// WindowCounter is the shared-store primitive behind Shared. It must create,
// compare and increment the window atomically.
type WindowCounter interface {
	AdmitWindow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
