package cache

import (
	"context"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
)

// Repository persists query results so they can be restored after a restart.
type Repository interface {
	// Put stores or replaces the entry for a key.
	Put(ctx context.Context, entry *models.CacheEntry) error

	// Get returns the entry for a key, or nil if not present.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)

	// GetAll returns every persisted entry.
	GetAll(ctx context.Context) ([]*models.CacheEntry, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
