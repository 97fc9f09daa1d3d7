package forecast

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/weatherdash/dashboard-service/internal/models"
)

const memcachedKeyPrefix = "forecast:"

// MemcachedStore implements EntryStore on memcached, letting several
// dashboard instances share one forecast cache. The memcached expiration
// is a retention bound, not the freshness TTL; the cache decides staleness
// from FetchedAt.
type MemcachedStore struct {
	client *memcache.Client
	maxAge time.Duration
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated
// list (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns configure the client; both use package defaults if zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int, maxAge time.Duration) (*MemcachedStore, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &MemcachedStore{client: client, maxAge: maxAge}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemcachedStore) key(k string) string {
	return memcachedKeyPrefix + k
}

// Get implements EntryStore.Get. Returns false, nil on cache miss.
func (s *MemcachedStore) Get(ctx context.Context, key string) (models.ForecastEntry, bool, error) {
	if ctx.Err() != nil {
		return models.ForecastEntry{}, false, ctx.Err()
	}
	item, err := s.client.Get(s.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return models.ForecastEntry{}, false, nil
		}
		return models.ForecastEntry{}, false, err
	}
	var entry models.ForecastEntry
	if err := json.Unmarshal(item.Value, &entry); err != nil {
		return models.ForecastEntry{}, false, err
	}
	return entry, true, nil
}

// Set implements EntryStore.Set.
func (s *MemcachedStore) Set(ctx context.Context, key string, entry models.ForecastEntry) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	expSec := int32(s.maxAge.Seconds())
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 3600
	}
	return s.client.Set(&memcache.Item{
		Key:        s.key(key),
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
