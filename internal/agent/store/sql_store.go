package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/TechnicallyShaun/camelot-sub000/internal/agent"
	"github.com/TechnicallyShaun/camelot-sub000/internal/db"
	"github.com/TechnicallyShaun/camelot-sub000/internal/db/dialect"
)

type sqlStore struct {
	db *sqlx.DB // writer
	ro *sqlx.DB // reader
}

var _ Store = (*sqlStore)(nil)

type definitionRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Command     string    `db:"command"`
	DefaultArgs string    `db:"default_args"`
	Model       string    `db:"model"`
	IsPrimary   int       `db:"is_primary"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *definitionRow) toDefinition() (*agent.Definition, error) {
	var args []string
	if r.DefaultArgs != "" {
		if err := json.Unmarshal([]byte(r.DefaultArgs), &args); err != nil {
			return nil, fmt.Errorf("decode default args for %s: %w", r.ID, err)
		}
	}
	if args == nil {
		args = []string{}
	}
	return &agent.Definition{
		ID:          r.ID,
		Name:        r.Name,
		Command:     r.Command,
		DefaultArgs: args,
		Model:       r.Model,
		IsPrimary:   r.IsPrimary != 0,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

const selectColumns = `SELECT id, name, command, default_args, model, is_primary, created_at, updated_at FROM agent_definitions`

// Provide creates the store on pool and applies the schema.
func Provide(pool *db.Pool) (Store, error) {
	s := &sqlStore{db: pool.Writer(), ro: pool.Reader()}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("agent definitions schema init: %w", err)
	}
	return s, nil
}

func (s *sqlStore) initSchema() error {
	ts := dialect.TimestampType(s.db.DriverName())
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS agent_definitions (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		command      TEXT NOT NULL,
		default_args TEXT NOT NULL DEFAULT '[]',
		model        TEXT NOT NULL DEFAULT '',
		is_primary   INTEGER NOT NULL DEFAULT 0,
		created_at   %[1]s NOT NULL,
		updated_at   %[1]s NOT NULL
	)`, ts)
	_, err := s.db.Exec(schema)
	return err
}

func (s *sqlStore) List(ctx context.Context) ([]*agent.Definition, error) {
	var rows []definitionRow
	if err := s.ro.SelectContext(ctx, &rows, selectColumns+` ORDER BY is_primary DESC, name`); err != nil {
		return nil, fmt.Errorf("list agent definitions: %w", err)
	}
	defs := make([]*agent.Definition, 0, len(rows))
	for i := range rows {
		def, err := rows[i].toDefinition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (s *sqlStore) FindByID(ctx context.Context, id string) (*agent.Definition, error) {
	return s.getOne(ctx, s.ro.Rebind(selectColumns+` WHERE id = ?`), id)
}

func (s *sqlStore) FindPrimary(ctx context.Context) (*agent.Definition, error) {
	return s.getOne(ctx, selectColumns+` WHERE is_primary = 1 LIMIT 1`)
}

func (s *sqlStore) getOne(ctx context.Context, query string, args ...any) (*agent.Definition, error) {
	var row definitionRow
	if err := s.ro.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get agent definition: %w", err)
	}
	return row.toDefinition()
}

func (s *sqlStore) Upsert(ctx context.Context, def *agent.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	args := def.DefaultArgs
	if args == nil {
		args = []string{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode default args: %w", err)
	}

	now := time.Now().UTC()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if def.IsPrimary {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE agent_definitions SET is_primary = 0 WHERE id <> ?`), def.ID); err != nil {
				return fmt.Errorf("demote primary: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO agent_definitions (id, name, command, default_args, model, is_primary, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				command = excluded.command,
				default_args = excluded.default_args,
				model = excluded.model,
				is_primary = excluded.is_primary,
				updated_at = excluded.updated_at`),
			def.ID, def.Name, def.Command, string(argsJSON), def.Model,
			dialect.BoolToInt(def.IsPrimary), now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert agent definition: %w", err)
		}
		return nil
	})
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM agent_definitions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete agent definition: %w", err)
	}
	return requireAffected(res)
}

func (s *sqlStore) SetPrimary(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE agent_definitions SET is_primary = 1, updated_at = ? WHERE id = ?`), time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("set primary: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE agent_definitions SET is_primary = 0 WHERE id <> ?`), id); err != nil {
			return fmt.Errorf("demote primary: %w", err)
		}
		return nil
	})
}

func (s *sqlStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
