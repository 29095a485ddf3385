package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Registers the "sqlite" driver

	"driverqueue/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier          = (*sql.DB)(nil)
	_ Querier          = (*sql.Tx)(nil)
	_ repository.Store = (*DB)(nil)
)

// DB is a repository.Store backed by a SQL database.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database and creates the schema if needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*DB, error) {
	s := &DB{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dialect.Name(), err)
	}
	return s, nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes every write unit.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Update runs fn inside a transaction, holding the writer lock for its duration.
func (s *DB) Update(ctx context.Context, fn func(repository.DriverStore) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if lock := s.dialect.LockWriters(); lock != "" {
		if _, err = tx.ExecContext(ctx, lock); err != nil {
			return fmt.Errorf("lock drivers: %w", err)
		}
	}

	if err = fn(newDriverStoreWithTx(tx, s.dialect)); err != nil {
		return err
	}

	return tx.Commit()
}

// View runs fn inside a read transaction.
func (s *DB) View(ctx context.Context, fn func(repository.DriverStore) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.ViewOptions())
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(newDriverStoreWithTx(tx, s.dialect)); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
