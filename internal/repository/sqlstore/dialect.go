package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Dialect captures the SQL differences between supported databases.
type Dialect interface {
	Name() string
	Rebind(query string) string
	AutoIncrementPK() string
	TimestampType() string
	// LockWriters returns a statement that serializes write transactions,
	// or "" when the connection setup already does.
	LockWriters() string
	ViewOptions() *sql.TxOptions
}

var (
	// Postgres is the PostgreSQL dialect.
	Postgres Dialect = postgresDialect{}

	// SQLite is the SQLite dialect.
	SQLite Dialect = sqliteDialect{}
)

// queueLockKey identifies the driver queue for pg_advisory_xact_lock.
const queueLockKey = 0x64717565

type postgresDialect struct{}

func (postgresDialect) Name() string                { return "postgres" }
func (postgresDialect) Rebind(query string) string  { return rebind(query) }
func (postgresDialect) AutoIncrementPK() string     { return "BIGSERIAL PRIMARY KEY" }
func (postgresDialect) TimestampType() string       { return "TIMESTAMPTZ" }
func (postgresDialect) LockWriters() string {
	return fmt.Sprintf("SELECT pg_advisory_xact_lock(%d)", queueLockKey)
}
func (postgresDialect) ViewOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                { return "sqlite" }
func (sqliteDialect) Rebind(query string) string  { return query }
func (sqliteDialect) AutoIncrementPK() string     { return "INTEGER PRIMARY KEY AUTOINCREMENT" }
func (sqliteDialect) TimestampType() string       { return "TIMESTAMP" }
func (sqliteDialect) LockWriters() string         { return "" }
func (sqliteDialect) ViewOptions() *sql.TxOptions { return nil }

// rebind rewrites ? placeholders to $1, $2, ...
func rebind(query string) string {
	n := 0
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// parseTimePtr converts a scanned timestamp to *time.Time.
// Postgres returns time.Time; SQLite may return a string.
func parseTimePtr(v any) *time.Time {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case string:
		t = parseTimeString(x)
	case []byte:
		t = parseTimeString(string(x))
	}
	if t.IsZero() {
		return nil
	}
	return &t
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// timeArg converts an optional timestamp to a query argument.
func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
