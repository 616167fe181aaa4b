package database

import (
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// SQLiteDriver implements Driver for the pure-Go SQLite engine
type SQLiteDriver struct{}

// Name returns the driver name
func (d *SQLiteDriver) Name() string {
	return "sqlite"
}

// Open opens a SQLite database connection
func (d *SQLiteDriver) Open(dsn string) (gorm.Dialector, error) {
	return sqlite.Open(dsn), nil
}

// Configure uses a single connection with WAL journaling.
// Concurrent writers from the worker pool serialize on the one connection.
func (d *SQLiteDriver) Configure(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		logger.Warn("Failed to enable WAL mode", zap.Error(err))
	}
	if err := db.Exec("PRAGMA synchronous = NORMAL").Error; err != nil {
		logger.Warn("Failed to set synchronous mode", zap.Error(err))
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		logger.Warn("Failed to set busy timeout", zap.Error(err))
	}
	return nil
}
