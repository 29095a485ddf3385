package sqlstore

import "fmt"

func schema(d Dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS drivers (
	id %s,
	name TEXT NOT NULL,
	phone TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'inactive',
	position INTEGER NOT NULL DEFAULT 0,
	active_time %s,
	deliveries_count INTEGER NOT NULL DEFAULT 0
)`, d.AutoIncrementPK(), d.TimestampType()),
		`CREATE INDEX IF NOT EXISTS idx_drivers_status ON drivers (status, position)`,
	}
}
