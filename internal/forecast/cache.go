// Package forecast caches hourly forecast data per coordinate key with
// bounded staleness: entries past TTL are still served immediately while a
// single background refresh runs, so a card never blocks on revalidation.
package forecast

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weatherdash/dashboard-service/internal/models"
	"github.com/weatherdash/dashboard-service/internal/observability"
)

// DefaultTTL is how long an entry is considered fresh.
const DefaultTTL = 2 * time.Minute

// MaxIntervals caps the number of hourly intervals kept per entry.
const MaxIntervals = 24

const defaultFetchTimeout = 10 * time.Second

// ErrNoData is returned when the upstream answers with no hourly intervals.
var ErrNoData = errors.New("no hourly data returned")

// State describes one update emitted by Get.
type State int

const (
	// StateLoading means no cached data exists and a fetch is under way.
	StateLoading State = iota
	// StateReady carries an entry; Entry.Stale marks entries served past TTL.
	StateReady
	// StateFailed means the fetch failed and no cached data could cover it.
	StateFailed
)

// Update is one element of the state sequence produced by Get.
type Update struct {
	State State
	Entry models.ForecastEntry
	Err   error
}

// Client fetches hourly intervals for a "<lat>,<lon>" key.
type Client interface {
	Hourly(ctx context.Context, key string) ([]models.HourlyInterval, error)
}

// EntryStore holds forecast entries between requests. Staleness is decided
// by the cache, not the store; a store may additionally evict on its own
// retention policy (memcached does).
type EntryStore interface {
	Get(ctx context.Context, key string) (models.ForecastEntry, bool, error)
	Set(ctx context.Context, key string, entry models.ForecastEntry) error
}

// flight is a single in-flight fetch that any number of consumers wait on.
// entry and err are written once before done is closed.
type flight struct {
	done  chan struct{}
	entry models.ForecastEntry
	err   error
}

// Cache serves hourly forecasts with stale-while-revalidate semantics and
// at most one in-flight fetch per key.
type Cache struct {
	client       Client
	store        EntryStore
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger

	now func() time.Time // test hook

	mu      sync.Mutex
	flights map[string]*flight
}

// New returns a Cache over client and store. Zero ttl and fetchTimeout
// select the defaults.
func New(client Client, store EntryStore, ttl, fetchTimeout time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		client:       client,
		store:        store,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		now:          time.Now,
		flights:      make(map[string]*flight),
	}
}

// Key formats a coordinate pair as the raw cache key. Unlike the location
// store's canonical key this is not rounded.
func Key(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// Get returns the state sequence for a coordinate pair. See GetKey.
func (c *Cache) Get(ctx context.Context, lat, lon float64) <-chan Update {
	return c.GetKey(ctx, Key(lat, lon))
}

// GetKey emits, in order: the cached entry immediately when one exists
// (marked stale past TTL, with one background refresh started), or a
// Loading marker followed by the fetch result. The channel is closed when
// no further updates will come. Once ctx is cancelled nothing more is
// emitted; fetch results arriving later still land in the store but are
// discarded for this consumer. A refresh failure while a cached entry was
// already served is logged and swallowed.
func (c *Cache) GetKey(ctx context.Context, key string) <-chan Update {
	out := make(chan Update, 2)

	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("forecast store read failed", zap.String("key", key), zap.Error(err))
		ok = false
	}

	if ok && c.now().Sub(entry.FetchedAt) < c.ttl {
		observability.ForecastCacheHitsTotal.WithLabelValues("fresh").Inc()
		out <- Update{State: StateReady, Entry: entry}
		close(out)
		return out
	}

	if ok {
		observability.ForecastCacheHitsTotal.WithLabelValues("stale").Inc()
		stale := entry
		stale.Stale = true
		out <- Update{State: StateReady, Entry: stale}

		f := c.startFlight(key, "background")
		go func() {
			defer close(out)
			select {
			case <-f.done:
				if f.err == nil && ctx.Err() == nil {
					out <- Update{State: StateReady, Entry: f.entry}
				}
			case <-ctx.Done():
			}
		}()
		return out
	}

	observability.ForecastCacheMissesTotal.Inc()
	out <- Update{State: StateLoading}

	f := c.startFlight(key, "blocking")
	go func() {
		defer close(out)
		select {
		case <-f.done:
			if ctx.Err() != nil {
				return
			}
			if f.err != nil {
				out <- Update{State: StateFailed, Err: f.err}
				return
			}
			out <- Update{State: StateReady, Entry: f.entry}
		case <-ctx.Done():
		}
	}()
	return out
}

// Refresh forces a fetch for key and waits for it, sharing any fetch
// already in flight. Used by the warm-keeping scheduler.
func (c *Cache) Refresh(ctx context.Context, key string) error {
	f := c.startFlight(key, "background")
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startFlight returns the in-flight fetch for key, creating one when none
// exists. Concurrent callers for the same key share a single upstream
// request.
func (c *Cache) startFlight(key, trigger string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key]; ok {
		return f
	}
	f := &flight{done: make(chan struct{})}
	c.flights[key] = f
	go c.run(key, f, trigger)
	return f
}

// run performs the upstream fetch for a flight. The fetch is detached from
// any consumer context; its result updates the store so the next Get
// benefits even when every consumer has gone away.
func (c *Cache) run(key string, f *flight, trigger string) {
	observability.ForecastRefreshesTotal.WithLabelValues(trigger).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	intervals, err := c.client.Hourly(ctx, key)
	if err == nil && len(intervals) == 0 {
		err = ErrNoData
	}
	if err != nil {
		observability.ForecastFetchErrorsTotal.Inc()
		c.logger.Warn("hourly forecast fetch failed", zap.String("key", key), zap.Error(err))
		f.err = err
	} else {
		if len(intervals) > MaxIntervals {
			intervals = intervals[:MaxIntervals]
		}
		entry := models.ForecastEntry{Key: key, FetchedAt: c.now(), Intervals: intervals}
		if serr := c.store.Set(ctx, key, entry); serr != nil {
			c.logger.Warn("forecast store write failed", zap.String("key", key), zap.Error(serr))
		}
		f.entry = entry
	}

	c.mu.Lock()
	delete(c.flights, key)
	c.mu.Unlock()
	close(f.done)
}
