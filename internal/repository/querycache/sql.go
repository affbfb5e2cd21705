package querycache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/aegis/internal/db"
	"github.com/kailas-cloud/aegis/internal/domain/cache"
)

// SQLStore keeps entries in a relational table with a unique fingerprint column.
type SQLStore struct {
	gdb *gorm.DB
}

// NewSQLStore creates a relational entry store.
func NewSQLStore(gdb *gorm.DB) *SQLStore {
	return &SQLStore{gdb: gdb}
}

// Models lists the tables this store needs migrated.
func Models() []any { return []any{&Row{}} }

// Latest returns the most recent entry for fp that is still current at now.
func (s *SQLStore) Latest(ctx context.Context, fp string, now time.Time) (cache.Entry, error) {
	var row Row
	err := latestQuery(s.gdb.WithContext(ctx), fp, now).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cache.Entry{}, db.ErrKeyNotFound
		}
		return cache.Entry{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return entryFromRow(row)
}

// Upsert inserts the entry or replaces payload and timestamps of the existing row.
func (s *SQLStore) Upsert(ctx context.Context, e cache.Entry) error {
	row, err := rowFromEntry(e)
	if err != nil {
		return err
	}
	if err := upsertQuery(s.gdb.WithContext(ctx)).Create(&row).Error; err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

func latestQuery(tx *gorm.DB, fp string, now time.Time) *gorm.DB {
	return tx.Model(&Row{}).
		Where("query_hash = ? AND expires_at > ?", fp, now.UTC()).
		Order("created_at DESC").
		Limit(1)
}

func upsertQuery(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "query_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"query", "mode", "response", "created_at", "expires_at"}),
	})
}
