package postgres

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDryRun returns a handle that renders SQL without a live server (test-only).
func OpenDryRun() (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=aegis dbname=aegis sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
}
