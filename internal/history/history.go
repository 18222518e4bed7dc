// Package history provides read access to the historical execution records
// behind the statistical estimator: a time-boxed read-through cache over an
// injected record source, plus the JSON-file store the service runner writes.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/autoservice/svctimer/internal/models"
)

// DefaultTTL bounds how stale the cached record snapshot may get before the
// next read refetches from the source.
const DefaultTTL = 5 * time.Minute

// RecordSource supplies the full historical record set. Implementations
// should not be relied on to never fail; the accessor degrades to an empty
// snapshot on error.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]models.HistoricalRecord, error)
}

// Accessor memoizes one snapshot of the historical records with time-boxed
// invalidation. It owns its cache exclusively; nothing else mutates it.
type Accessor struct {
	source RecordSource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	cached    []models.HistoricalRecord
	fetchedAt time.Time
	valid     bool
}

// AccessorOption configures an Accessor.
type AccessorOption func(*Accessor)

// WithTTL overrides the cache time-to-live.
func WithTTL(ttl time.Duration) AccessorOption {
	return func(a *Accessor) {
		a.ttl = ttl
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) AccessorOption {
	return func(a *Accessor) {
		a.now = now
	}
}

// NewAccessor creates an accessor over source with the default TTL.
func NewAccessor(source RecordSource, opts ...AccessorOption) *Accessor {
	a := &Accessor{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Records returns the historical record snapshot, refetching from the source
// when the cache is empty, expired, or forceRefresh is set. A failing source
// yields an empty snapshot, never an error; the failure also drops any prior
// snapshot so a later read retries instead of serving the data the refresh
// was meant to replace.
func (a *Accessor) Records(ctx context.Context, forceRefresh bool) []models.HistoricalRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.valid && !forceRefresh && a.now().Sub(a.fetchedAt) < a.ttl {
		return a.cached
	}

	records, err := a.source.FetchRecords(ctx)
	if err != nil {
		slog.Warn("fetching historical records failed", "error", err)
		a.cached = nil
		a.valid = false
		return nil
	}

	a.cached = records
	a.fetchedAt = a.now()
	a.valid = true
	return a.cached
}

// ClearCache drops the snapshot immediately; the next Records call refetches
// even inside the TTL window.
func (a *Accessor) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cached = nil
	a.valid = false
}
