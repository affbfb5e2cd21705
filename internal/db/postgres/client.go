// Package postgres opens the relational store that backs the answer cache.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kailas-cloud/aegis/internal/db"
)

// Config holds connection parameters for a PostgreSQL database.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogSQL       bool
}

// Store wraps a GORM handle.
type Store struct {
	gdb *gorm.DB
}

var _ db.Pinger = (*Store)(nil)

// NewStore opens a connection pool. The database is not contacted until the
// first query or WaitForReady.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	logLevel := gormlogger.Warn
	if cfg.LogSQL {
		logLevel = gormlogger.Info
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(logLevel),
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return &Store{gdb: gdb}, nil
}

// NewStoreForTest wraps an existing handle (test-only).
func NewStoreForTest(gdb *gorm.DB) *Store {
	return &Store{gdb: gdb}
}

// DB returns the GORM handle for repositories.
func (s *Store) DB() *gorm.DB { return s.gdb }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Migrate creates or updates tables for the given models.
func (s *Store) Migrate(ctx context.Context, models ...any) error {
	if err := s.gdb.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if sqlDB, err := s.gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
