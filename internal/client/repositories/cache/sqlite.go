package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, entry *models.CacheEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cache (key, value, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, fetched_at = excluded.fetched_at
	`, entry.Key, entry.Value, entry.FetchedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to put cache[%s]: %w", entry.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT value, fetched_at FROM cache WHERE key = ?`, key)

	e := &models.CacheEntry{Key: key}
	var fetchedAt int64
	err := row.Scan(&e.Value, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache[%s]: %w", key, err)
	}
	e.FetchedAt = time.Unix(0, fetchedAt)
	return e, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, fetched_at FROM cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to select cache entries: %w", err)
	}
	defer rows.Close()

	var result []*models.CacheEntry
	for rows.Next() {
		e := &models.CacheEntry{}
		var fetchedAt int64
		if err := rows.Scan(&e.Key, &e.Value, &fetchedAt); err != nil {
			return nil, err
		}
		e.FetchedAt = time.Unix(0, fetchedAt)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
