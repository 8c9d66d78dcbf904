package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/client/repositories/cache"
	"github.com/dmitrijs2005/formrelay/internal/logging"
)

// CacheService is the in-memory query cache backed by the persisted cache
// repository. Restoration runs asynchronously at startup so it never blocks
// the first render; live fetches that land first keep precedence over
// restored entries.
type CacheService interface {
	// StartRestore kicks off asynchronous restoration of the persisted
	// cache. The returned channel is closed when restoration finishes.
	StartRestore(ctx context.Context) <-chan struct{}

	// Restore synchronously loads persisted entries into memory, skipping
	// keys for which a fresher entry is already present.
	Restore(ctx context.Context) error

	// Get returns the cached value for key, if any.
	Get(key string) ([]byte, bool)

	// Put stores a live result in memory and in persistent storage.
	Put(ctx context.Context, key string, value []byte) error
}

type cacheService struct {
	repo   cache.Repository
	logger logging.Logger

	mu      sync.RWMutex
	entries map[string]*models.CacheEntry
}

func NewCacheService(repo cache.Repository, logger logging.Logger) CacheService {
	return &cacheService{
		repo:    repo,
		logger:  logger,
		entries: make(map[string]*models.CacheEntry),
	}
}

func (s *cacheService) StartRestore(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Restore(ctx); err != nil {
			s.logger.Error(ctx, "cache restoration failed", "error", err.Error())
		}
	}()
	return done
}

func (s *cacheService) Restore(ctx context.Context) error {
	persisted, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted cache: %w", err)
	}

	restored := 0
	s.mu.Lock()
	for _, e := range persisted {
		// A live fetch that completed before restoration wins.
		if current, ok := s.entries[e.Key]; ok && !current.FetchedAt.Before(e.FetchedAt) {
			continue
		}
		s.entries[e.Key] = e
		restored++
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "cache restored", "entries", restored)
	return nil
}

func (s *cacheService) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

func (s *cacheService) Put(ctx context.Context, key string, value []byte) error {
	e := &models.CacheEntry{Key: key, Value: value, FetchedAt: time.Now()}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()

	if err := s.repo.Put(ctx, e); err != nil {
		return fmt.Errorf("failed to persist cache[%s]: %w", key, err)
	}
	return nil
}
