// Package database wraps GORM access to the legacy SQLite database and
// the PostgreSQL destination behind one URL-driven entry point.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Driver names reported by Database.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver indicates a database URL with an unknown scheme.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Database wraps a GORM connection opened from a database URL.
type Database struct {
	gdb    *gorm.DB
	driver string
}

// parseDialector maps a database URL to a GORM dialector.
// Supported schemes: sqlite:///path (":memory:" for in-memory),
// postgres://… and postgresql://….
func parseDialector(url string) (gorm.Dialector, string, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		path := strings.TrimPrefix(url, "sqlite:///")
		return sqlite.Open(path), DriverSQLite, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), DriverPostgres, nil
	default:
		return nil, "", ErrUnsupportedDriver
	}
}

// NewDatabase opens a database connection from a URL and verifies it with
// a ping.
func NewDatabase(ctx context.Context, url string) (Database, error) {
	dialector, driver, err := parseDialector(url)
	if err != nil {
		return Database{}, fmt.Errorf("parse database url: %w", err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: slogGormLogger{},
	})
	if err != nil {
		return Database{}, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return Database{}, fmt.Errorf("access connection pool: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Database{}, fmt.Errorf("ping database: %w", err)
	}

	return Database{gdb: gdb, driver: driver}, nil
}

// Session returns a context-scoped GORM session.
func (d Database) Session(ctx context.Context) *gorm.DB {
	return d.gdb.WithContext(ctx)
}

// GORM returns the underlying GORM handle.
func (d Database) GORM() *gorm.DB {
	return d.gdb
}

// IsSQLite reports whether the connection uses the SQLite driver.
func (d Database) IsSQLite() bool {
	return d.driver == DriverSQLite
}

// IsPostgres reports whether the connection uses the PostgreSQL driver.
func (d Database) IsPostgres() bool {
	return d.driver == DriverPostgres
}

// ConfigurePool sets connection-pool limits.
func (d Database) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	sqlDB, err := d.gdb.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)
	return nil
}

// Close closes the underlying connection pool.
func (d Database) Close() error {
	sqlDB, err := d.gdb.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	return sqlDB.Close()
}
