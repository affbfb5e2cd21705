package cache

import (
	"time"

	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// DefaultTTL is how long a stored answer stays current.
const DefaultTTL = 24 * time.Hour

// Entry is a persisted answer keyed by query fingerprint.
type Entry struct {
	Fingerprint string        `json:"query_hash"`
	Query       string        `json:"query"`
	Mode        mode.Mode     `json:"mode"`
	Response    answer.Answer `json:"response"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// NewEntry stamps a fresh entry created at now.
func NewEntry(fp, text string, m mode.Mode, a answer.Answer, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Fingerprint: fp,
		Query:       text,
		Mode:        m,
		Response:    a,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// IsCurrent reports whether the entry is still servable at now.
// expires_at must be strictly in the future.
func (e Entry) IsCurrent(now time.Time) bool {
	return e.ExpiresAt.After(now)
}
