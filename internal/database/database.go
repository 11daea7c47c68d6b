package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/config"
)

// DB bundles the gorm handle used by the services with the raw database/sql
// handle used for pooling and health checks.
type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// New opens the Postgres connection and configures the pool.
func New(cfg *config.Config) (*DB, error) {
	log.Printf("[Database] connecting to %s:%s as %s", cfg.DBHost, cfg.DBPort, cfg.DBUser)

	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Printf("[Database] connected")
	return &DB{Gorm: gormDB, SQL: sqlDB}, nil
}

// HealthCheck checks if the database is accessible.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.SQL.Close()
}
