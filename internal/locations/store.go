// Package locations maintains the persisted set of dashboard locations:
// validated, deduplicated, capacity-limited, and backed by a durable
// key-value store.
package locations

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/weatherdash/dashboard-service/internal/models"
	"github.com/weatherdash/dashboard-service/internal/storage"
)

// storageKey is the single durable key holding the JSON-encoded collection.
const storageKey = "locations"

// MaxLocations is the capacity limit for the collection.
const MaxLocations = 3

// ErrDuplicateKey is returned by Add when the candidate key already exists.
var ErrDuplicateKey = errors.New("location already exists")

// ErrCapacityExceeded is returned by Add when the collection is full.
var ErrCapacityExceeded = errors.New("maximum number of locations reached")

// Store is the authoritative, persisted location collection. The store is
// the sole writer: consumers receive snapshot copies and mutate only
// through Add, Rename, and Remove. Every mutation overwrites the full
// persisted sequence.
type Store struct {
	kv     storage.KV
	logger *zap.Logger

	mu      sync.Mutex
	entries []models.Location
}

// NewStore returns a Store backed by kv. Call Load before serving.
func NewStore(kv storage.KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Load reads the persisted collection. Malformed or unreadable data is
// treated as an empty collection; Load never fails the caller.
func (s *Store) Load(ctx context.Context) []models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		s.logger.Warn("load locations failed, starting empty", zap.Error(err))
		s.entries = nil
		return nil
	}
	if !ok {
		s.entries = nil
		return nil
	}

	var entries []models.Location
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("stored locations malformed, starting empty", zap.Error(err))
		s.entries = nil
		return nil
	}
	s.entries = entries
	return s.snapshot()
}

// List returns a snapshot of the current collection.
func (s *Store) List() []models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Add appends candidate to the collection and persists. The duplicate
// check runs before the capacity check so a true duplicate is reported
// even when the collection is full. Returns the updated collection.
func (s *Store) Add(ctx context.Context, candidate models.Location) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, loc := range s.entries {
		if loc.Key == candidate.Key {
			return nil, ErrDuplicateKey
		}
	}
	if len(s.entries) >= MaxLocations {
		return nil, ErrCapacityExceeded
	}

	s.entries = append(s.entries, candidate)
	s.persist(ctx)
	return s.snapshot(), nil
}

// Rename updates the display name for key: trimmed, capped at 100 runes,
// falling back to the key itself when empty after trim. Unknown keys are a
// no-op. Returns the updated collection.
func (s *Store) Rename(ctx context.Context, key, newDisplayName string) []models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(newDisplayName)
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	if name == "" {
		name = key
	}

	changed := false
	for i := range s.entries {
		if s.entries[i].Key == key {
			s.entries[i].DisplayName = name
			changed = true
			break
		}
	}
	if changed {
		s.persist(ctx)
	}
	return s.snapshot()
}

// Remove deletes the entry with key and persists. Unknown keys are a
// no-op. Returns the updated collection.
func (s *Store) Remove(ctx context.Context, key string) []models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := false
	for _, loc := range s.entries {
		if loc.Key == key {
			removed = true
			continue
		}
		kept = append(kept, loc)
	}
	s.entries = kept
	if removed {
		s.persist(ctx)
	}
	return s.snapshot()
}

// persist overwrites the full sequence in durable storage. Write failures
// are logged, not surfaced; the in-memory collection stays authoritative
// for the life of the process. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Error("encode locations", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, storageKey, raw); err != nil {
		s.logger.Error("persist locations", zap.Error(err))
	}
}

// snapshot copies the collection so callers cannot mutate store state.
// Callers hold s.mu.
func (s *Store) snapshot() []models.Location {
	out := make([]models.Location, len(s.entries))
	copy(out, s.entries)
	return out
}
