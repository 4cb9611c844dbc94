// Package postgres implements the persistent storage tier on a PostgreSQL
// key-value table, via the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"feedcache/internal/common/errors"
)

const tierName = "persistent"

// Tier is the postgres-backed persistent storage tier. It is wire-compatible
// with the sqlite tier: same contract, same envelope bytes.
type Tier struct {
	db *sql.DB
}

// New connects to postgres using the given DSN and prepares the cache table.
func New(dsn string) (*Tier, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	tier := &Tier{db: db}
	if err := tier.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return tier, nil
}

func (t *Tier) migrate() error {
	_, err := t.db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		expires_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`)
	return err
}

func (t *Tier) Name() string {
	return tierName
}

func (t *Tier) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := t.db.QueryRowContext(ctx, "SELECT value FROM cache_entries WHERE key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.StorageUnavailableError(tierName, err)
	}
	return value, true, nil
}

func (t *Tier) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	expiresAt := now.Add(ttl).Unix()
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value,
		 expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		key, value, expiresAt, now.Unix())
	if err != nil {
		return errors.StorageUnavailableError(tierName, err)
	}
	return nil
}

func (t *Tier) Remove(ctx context.Context, key string) (bool, error) {
	result, err := t.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = $1", key)
	if err != nil {
		return false, errors.StorageUnavailableError(tierName, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.StorageUnavailableError(tierName, err)
	}
	return affected > 0, nil
}

// RemoveExpired deletes every row whose recorded deadline has passed.
func (t *Tier) RemoveExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := t.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at <= $1", now.Unix())
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	return int(affected), nil
}

// RemovePrefix deletes every row whose key starts with prefix.
func (t *Tier) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	result, err := t.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key LIKE $1 || '%'", prefix)
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	return int(affected), nil
}

// Close releases the database handle.
func (t *Tier) Close() error {
	return t.db.Close()
}
