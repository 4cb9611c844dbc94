// Package sqlite implements the persistent storage tier on a SQLite
// key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"feedcache/internal/common/errors"
)

const tierName = "persistent"

// Tier is the sqlite-backed persistent storage tier. Entries survive process
// restarts; reads never consult the recorded deadline (the cache engine
// decides expiry), but RemoveExpired lets the sweep reclaim stale rows in one
// statement.
type Tier struct {
	db *sql.DB
}

// New opens (or creates) the database at path and prepares the cache table.
func New(path string) (*Tier, error) {
	db, err := sql.Open("sqlite3", path)
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

// NewWithDB wraps an existing database handle, used by tests.
func NewWithDB(db *sql.DB) (*Tier, error) {
	tier := &Tier{db: db}
	if err := tier.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return tier, nil
}

func (t *Tier) migrate() error {
	_, err := t.db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

func (t *Tier) Name() string {
	return tierName
}

func (t *Tier) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := t.db.QueryRowContext(ctx, "SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
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
		`INSERT OR REPLACE INTO cache_entries (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)`,
		key, value, expiresAt, now.Unix())
	if err != nil {
		return errors.StorageUnavailableError(tierName, err)
	}
	return nil
}

func (t *Tier) Remove(ctx context.Context, key string) (bool, error) {
	result, err := t.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	if err != nil {
		return false, errors.StorageUnavailableError(tierName, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.StorageUnavailableError(tierName, err)
	}
	return affected > 0, nil
}

// RemoveExpired deletes every row whose recorded deadline has passed,
// reclaiming per-content entries the namespace sweep cannot enumerate.
func (t *Tier) RemoveExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := t.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.StorageUnavailableError(tierName, err)
	}
	return int(affected), nil
}

// RemovePrefix deletes every row whose key starts with prefix. SQL gives us
// real enumeration, so clears on this tier are exhaustive.
func (t *Tier) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	result, err := t.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key LIKE ? || '%'", prefix)
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
