// Package dialect holds the few SQL differences between SQLite and PostgreSQL.
package dialect

const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
)

// IsPostgres returns true if the driver is PostgreSQL (pgx).
func IsPostgres(driver string) bool {
	return driver == PGX
}

// BoolToInt converts a boolean to an integer for SQL storage.
func BoolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// TimestampType is the column type used for timestamps.
func TimestampType(driver string) string {
	if IsPostgres(driver) {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}
