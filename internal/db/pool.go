// Package db opens the agent definition database for SQLite or PostgreSQL.
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/config"
	"github.com/TechnicallyShaun/camelot-sub000/internal/db/dialect"
)

// Pool provides separate read and write connections.
//
// For SQLite in WAL mode the writer is a single connection and the reader
// allows concurrent SELECTs. For PostgreSQL both return the same *sqlx.DB.
type Pool struct {
	writer *sqlx.DB
	reader *sqlx.DB
}

// NewPool creates a Pool from separate writer and reader connections.
func NewPool(writer, reader *sqlx.DB) *Pool {
	return &Pool{writer: writer, reader: reader}
}

// Open builds a Pool for the configured driver.
func Open(cfg config.DatabaseConfig) (*Pool, error) {
	switch cfg.Driver {
	case dialect.PGX:
		raw, err := OpenPostgres(cfg.DSN(), cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, err
		}
		conn := sqlx.NewDb(raw, dialect.PGX)
		return NewPool(conn, conn), nil
	case dialect.SQLite3, "":
		w, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		r, err := OpenSQLiteReader(cfg.Path)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		return NewPool(sqlx.NewDb(w, dialect.SQLite3), sqlx.NewDb(r, dialect.SQLite3)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Writer returns the connection used for INSERT, UPDATE, DELETE and transactions.
func (p *Pool) Writer() *sqlx.DB { return p.writer }

// Reader returns the connection used for SELECT queries.
func (p *Pool) Reader() *sqlx.DB { return p.reader }

// Close closes both the writer and reader pools.
func (p *Pool) Close() error {
	wErr := p.writer.Close()
	if p.reader != p.writer {
		if rErr := p.reader.Close(); rErr != nil && wErr == nil {
			return rErr
		}
	}
	return wErr
}
