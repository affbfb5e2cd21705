package gateway

import (
	"context"

	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
	"github.com/kailas-cloud/aegis/internal/domain/query"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// Limiter admits or denies a request for a client key.
type Limiter interface {
	Admit(ctx context.Context, clientKey string) bool
}

// Cache is the best-effort response cache. Implementations absorb store errors.
type Cache interface {
	Lookup(ctx context.Context, fp string) (cache.Entry, bool)
	Store(ctx context.Context, fp, text string, m mode.Mode, a answer.Answer)
}

// Upstream executes a query against the language-model provider.
type Upstream interface {
	Execute(ctx context.Context, q query.Query) (answer.Answer, error)
}
