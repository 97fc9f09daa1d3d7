package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/weatherdash/dashboard-service/internal/models"
)

// InMemoryStore implements EntryStore with a map. Entries are dropped once
// older than maxAge (on access) so abandoned keys do not accumulate; the
// cache's own TTL governs staleness well before that.
type InMemoryStore struct {
	mu     sync.RWMutex
	data   map[string]models.ForecastEntry
	maxAge time.Duration
}

// NewInMemoryStore creates an in-memory entry store. maxAge <= 0 disables
// retention-based eviction.
func NewInMemoryStore(maxAge time.Duration) *InMemoryStore {
	return &InMemoryStore{
		data:   make(map[string]models.ForecastEntry),
		maxAge: maxAge,
	}
}

// Get retrieves the entry for key if present and within retention.
func (s *InMemoryStore) Get(ctx context.Context, key string) (models.ForecastEntry, bool, error) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return models.ForecastEntry{}, false, nil
	}
	if s.maxAge > 0 && time.Since(entry.FetchedAt) > s.maxAge {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return models.ForecastEntry{}, false, nil
	}
	return entry, true, nil
}

// Set stores the entry for key, overwriting any previous one.
func (s *InMemoryStore) Set(ctx context.Context, key string, entry models.ForecastEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry
	return nil
}
