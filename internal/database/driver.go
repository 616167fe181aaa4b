package database

import "gorm.io/gorm"

// Driver abstracts the relational backend behind GORM
type Driver interface {
	// Name returns the driver name (e.g., "sqlite")
	Name() string

	// Open returns a GORM dialector for dsn
	Open(dsn string) (gorm.Dialector, error)

	// Configure applies connection pool and engine settings before migration
	Configure(db *gorm.DB) error
}
