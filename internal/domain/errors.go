package domain

import "errors"

var (
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited signals that the caller exceeded its quota.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrCacheUnavailable signals a failed read or write against the cache store.
	// It never leaves the repository layer.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrUpstream signals a failed call to the language-model provider.
	ErrUpstream = errors.New("upstream error")
	// ErrUpstreamAuth signals that the provider rejected our credential.
	ErrUpstreamAuth = errors.New("upstream authentication failed")
	// ErrUpstreamRateLimited signals that the provider throttled us.
	ErrUpstreamRateLimited = errors.New("upstream rate limit exceeded")

	// ErrConfiguration signals a fatal startup misconfiguration.
	ErrConfiguration = errors.New("configuration error")
	// ErrInternal is the catch-all for failures that must not leak details.
	ErrInternal = errors.New("internal error")
)

// KeyPrefix namespaces every key the gateway writes into a shared KV store.
const KeyPrefix = "aegis:"
