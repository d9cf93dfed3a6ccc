package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Postgres is a KV backend over a single versioned table. It gives the
// record store durable storage with the same CAS contract as the other
// backends.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the backing table when it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS kv_entries (
        key TEXT PRIMARY KEY,
        value BYTEA NOT NULL,
        version BIGINT NOT NULL DEFAULT 1,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate kv_entries: %w", err)
	}
	return nil
}

// Get returns the value and version stored under key.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	var row struct {
		Value   []byte `db:"value"`
		Version uint64 `db:"version"`
	}
	const query = `SELECT value, version FROM kv_entries WHERE key = $1`
	if err := p.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrKeyNotFound
		}
		return nil, 0, fmt.Errorf("kv get %s: %w", key, err)
	}
	return row.Value, row.Version, nil
}

// Set stores the value unconditionally, bumping the version.
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO kv_entries (key, value, version, updated_at)
        VALUES ($1, $2, 1, NOW())
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value, version = kv_entries.version + 1, updated_at = NOW()`
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap stores the value only when the stored version matches.
func (p *Postgres) CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) error {
	if version == 0 {
		const insert = `INSERT INTO kv_entries (key, value, version, updated_at)
            VALUES ($1, $2, 1, NOW())
            ON CONFLICT (key) DO NOTHING`
		result, err := p.db.ExecContext(ctx, insert, key, value)
		if err != nil {
			return fmt.Errorf("kv create %s: %w", key, err)
		}
		return casOutcome(result)
	}
	const update = `UPDATE kv_entries
        SET value = $2, version = version + 1, updated_at = NOW()
        WHERE key = $1 AND version = $3`
	result, err := p.db.ExecContext(ctx, update, key, value, version)
	if err != nil {
		return fmt.Errorf("kv cas %s: %w", key, err)
	}
	return casOutcome(result)
}

// Delete removes the key if present.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix.
func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	const query = `SELECT key FROM kv_entries WHERE key LIKE $1 ORDER BY key`
	if err := p.db.SelectContext(ctx, &keys, query, prefix+"%"); err != nil {
		return nil, fmt.Errorf("kv keys %s: %w", prefix, err)
	}
	return keys, nil
}

func casOutcome(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("kv cas outcome: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}
