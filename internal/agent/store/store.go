// Package store persists agent definitions in SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
)

// ErrNotFound is returned when no definition matches the lookup.
var ErrNotFound = errors.New("agent definition not found")

// Lookup is the read side consumed by the terminal broker.
type Lookup interface {
	FindByID(ctx context.Context, id string) (*agent.Definition, error)
	FindPrimary(ctx context.Context) (*agent.Definition, error)
}

// Store manages agent definitions. At most one definition is primary.
type Store interface {
	Lookup
	List(ctx context.Context) ([]*agent.Definition, error)
	// Upsert inserts or replaces def. A primary def demotes every other one.
	Upsert(ctx context.Context, def *agent.Definition) error
	Delete(ctx context.Context, id string) error
	SetPrimary(ctx context.Context, id string) error
}
