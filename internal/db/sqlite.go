package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	busyTimeout       = 5 * time.Second
	sqliteReaderConns = 4
)

// OpenSQLite opens the single-connection writer, creating the file if needed.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	path := absPath(dbPath)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("prepare database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Force file creation so the read-only pool can open it.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// OpenSQLiteReader opens a read-only pool that reads WAL snapshots alongside the writer.
// _query_only makes every connection reject writes.
func OpenSQLiteReader(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_query_only=true&_busy_timeout=%d",
		absPath(dbPath), busyTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open read-only database: %w", err)
	}
	db.SetMaxOpenConns(sqliteReaderConns)
	db.SetMaxIdleConns(sqliteReaderConns)
	return db, nil
}

func absPath(dbPath string) string {
	if dbPath == "" {
		return dbPath
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return dbPath
	}
	return abs
}
