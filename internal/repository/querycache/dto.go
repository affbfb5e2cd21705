package querycache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// Row is the relational shape of a cache entry (table sonar_cache).
type Row struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	QueryHash string         `gorm:"size:64;not null;uniqueIndex"`
	Query     string         `gorm:"type:text;not null"`
	Mode      string         `gorm:"size:32;not null"`
	Response  datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null;index"`
	ExpiresAt time.Time      `gorm:"not null;index"`
}

// TableName pins the table name used by the dashboard deployment.
func (Row) TableName() string { return "sonar_cache" }

func rowFromEntry(e cache.Entry) (Row, error) {
	payload, err := json.Marshal(e.Response)
	if err != nil {
		return Row{}, fmt.Errorf("marshal response: %w", err)
	}
	return Row{
		ID:        uuid.New(),
		QueryHash: e.Fingerprint,
		Query:     e.Query,
		Mode:      string(e.Mode),
		Response:  datatypes.JSON(payload),
		CreatedAt: e.CreatedAt.UTC(),
		ExpiresAt: e.ExpiresAt.UTC(),
	}, nil
}

func entryFromRow(r Row) (cache.Entry, error) {
	var a answer.Answer
	if err := json.Unmarshal(r.Response, &a); err != nil {
		return cache.Entry{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return cache.Entry{
		Fingerprint: r.QueryHash,
		Query:       r.Query,
		Mode:        mode.Mode(r.Mode),
		Response:    a,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}, nil
}
