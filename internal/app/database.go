package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"driverqueue/internal/config"
	"driverqueue/internal/repository"
	"driverqueue/internal/repository/memory"
	"driverqueue/internal/repository/sqlstore"
)

// NewDatabase creates a new PostgreSQL connection.
// If nrApp is provided, it uses New Relic instrumented driver for automatic SQL tracing.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	driverName := "postgres"
	// The "nrpostgres" driver is registered by the nrpq import.
	if nrApp != nil {
		driverName = "nrpostgres"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", driverName, err)
	}

	// One restaurant's queue is a handful of rows; writers serialize on an
	// advisory lock anyway, so a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewStore opens the storage backend selected by cfg.Driver.
func NewStore(ctx context.Context, cfg config.StoreConfig, nrApp *newrelic.Application) (repository.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		log.Println("[STORE] using in-memory store; data is lost on restart")
		return memory.NewStore(), nil

	case config.StoreSQLite:
		store, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("[STORE] using sqlite at %s", cfg.SQLitePath)
		return store, nil

	case config.StorePostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		store, err := sqlstore.New(ctx, db, sqlstore.Postgres)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Printf("[STORE] using postgres at %s:%s/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}
