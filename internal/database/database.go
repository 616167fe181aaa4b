// Package database provides database initialization and connection management.
// It uses GORM with SQLite for embedded storage behind a Driver abstraction.
package database

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// Open creates the SQLite database at dbPath, applies connection settings and
// migrates all models.
func Open(dbPath string) (*gorm.DB, error) {
	return OpenWithDriver(&SQLiteDriver{}, dbPath)
}

// OpenWithDriver is Open for an explicit driver
func OpenWithDriver(driver Driver, dsn string) (*gorm.DB, error) {
	logger.Info("Initializing database", zap.String("driver", driver.Name()), zap.String("path", dsn))

	if dir := filepath.Dir(dsn); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, "failed to create database directory", err)
		}
	}

	dialector, err := driver.Open(dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, "failed to open database", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, "failed to connect to database", err)
	}

	if err := driver.Configure(db); err != nil {
		Close(db)
		return nil, errors.Wrap(errors.ErrCodeStore, "failed to configure database", err)
	}

	if err := migrate(db); err != nil {
		Close(db)
		return nil, err
	}

	logger.Info("Database initialized successfully", zap.String("driver", driver.Name()))
	return db, nil
}

// migrate runs auto-migration for all models
func migrate(db *gorm.DB) error {
	models := model.AllModels()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run database migrations", zap.Error(err))
		return errors.Wrap(errors.ErrCodeStore, "failed to run database migrations", err)
	}
	logger.Debug("Database migrations completed", zap.Int("models", len(models)))
	return nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, "failed to get database connection", err)
	}
	return sqlDB.Ping()
}
