// Package scheduler keeps forecast cards warm: a periodic job refreshes
// the forecast cache for every saved coordinate location so card expansion
// hits a fresh entry instead of a blocking fetch.
package scheduler

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/weatherdash/dashboard-service/internal/models"
)

// coordKey matches "<lat>,<lon>" location keys. Name-keyed locations have
// no coordinates to refresh against.
var coordKey = regexp.MustCompile(`^-?\d+(\.\d+)?,-?\d+(\.\d+)?$`)

// Refresher forces a forecast fetch for a coordinate key. Implemented by
// the forecast cache.
type Refresher interface {
	Refresh(ctx context.Context, key string) error
}

// LocationLister supplies the saved locations. Implemented by the
// location store.
type LocationLister interface {
	List() []models.Location
}

// Scheduler periodically refreshes forecasts for all saved coordinate
// locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	locations LocationLister
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler. interval <= 0 disables scheduling (Start is a
// no-op).
func New(refresher Refresher, locations LocationLister, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		locations: locations,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the scheduler in the
// background.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("forecast refresh disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.runOnce); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("forecast refresh scheduled", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// runOnce refreshes all coordinate-keyed locations concurrently. Failures
// are logged per key; the stale-while-revalidate path still covers users
// until the next run.
func (s *Scheduler) runOnce() {
	keys := s.coordinateKeys()
	if len(keys) == 0 {
		return
	}
	s.logger.Debug("refreshing forecasts", zap.Int("locations", len(keys)))

	var wg sync.WaitGroup
	for _, key := range keys {
		key := key
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.refresher.Refresh(ctx, key); err != nil {
				s.logger.Warn("forecast refresh failed", zap.String("key", key), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

func (s *Scheduler) coordinateKeys() []string {
	var keys []string
	for _, loc := range s.locations.List() {
		if coordKey.MatchString(loc.Key) {
			keys = append(keys, loc.Key)
		}
	}
	return keys
}
