// Package geolocate wraps a platform position capability with a hard
// timeout, error mapping, and 4-decimal coordinate rounding.
package geolocate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weatherdash/dashboard-service/internal/locations"
)

// DefaultTimeout bounds a position request. Earlier dashboard builds used
// 10s; 12s is the consolidated default.
const DefaultTimeout = 12 * time.Second

var (
	// ErrUnsupported means no position capability is available.
	ErrUnsupported = errors.New("geolocation is not supported")
	// ErrTimeout means the capability did not answer in time.
	ErrTimeout = errors.New("location request timed out")
	// ErrPermissionDenied means the user refused the position request.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable means the platform could not determine a position.
	ErrUnavailable = errors.New("position unavailable")
	// ErrBusy means a position request is already outstanding.
	ErrBusy = errors.New("location request already in progress")
)

// Position is a coordinate fix. Accuracy is in meters when the platform
// reports one.
type Position struct {
	Lat      float64
	Lon      float64
	Accuracy float64
}

// Platform error codes, mirroring the browser geolocation API.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// SourceError is a coded failure from the position capability.
type SourceError struct {
	Code    int
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("position source error %d: %s", e.Code, e.Message)
}

// PositionSource is the platform capability. Implementations may block
// indefinitely; the accessor enforces the timeout.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Accessor obtains the device position with a bounded wait. Only one
// request is meaningful at a time; concurrent calls fail with ErrBusy and
// Loading lets consumers disable repeat submission.
type Accessor struct {
	source  PositionSource
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	loading bool
}

// New returns an Accessor over source. timeout <= 0 selects DefaultTimeout.
func New(source PositionSource, timeout time.Duration, logger *zap.Logger) *Accessor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accessor{source: source, timeout: timeout, logger: logger}
}

// Loading reports whether a position request is outstanding.
func (a *Accessor) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// CurrentPosition requests the device position, waiting at most the
// configured timeout even when the source never calls back. Coordinates
// are rounded to 4 decimal places on success.
func (a *Accessor) CurrentPosition(ctx context.Context) (Position, error) {
	if a.source == nil {
		return Position{}, ErrUnsupported
	}

	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return Position{}, ErrBusy
	}
	a.loading = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.loading = false
		a.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		pos Position
		err error
	}
	// Buffered so a source answering after the deadline does not leak the
	// goroutine.
	ch := make(chan result, 1)
	go func() {
		pos, err := a.source.CurrentPosition(ctx)
		ch <- result{pos: pos, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return Position{}, a.mapError(res.err)
		}
		return Position{
			Lat:      locations.Round4(res.pos.Lat),
			Lon:      locations.Round4(res.pos.Lon),
			Accuracy: res.pos.Accuracy,
		}, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			a.logger.Debug("position request timed out", zap.Duration("timeout", a.timeout))
			return Position{}, ErrTimeout
		}
		return Position{}, ctx.Err()
	}
}

// mapError translates coded source failures to the package sentinels.
func (a *Accessor) mapError(err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		switch se.Code {
		case CodePermissionDenied:
			return ErrPermissionDenied
		case CodePositionUnavailable:
			return ErrUnavailable
		case CodeTimeout:
			return ErrTimeout
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
