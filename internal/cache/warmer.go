package cache

import (
	"context"

	apperrors "link-router/internal/common/errors"
	"link-router/internal/common/logging"
)

// FetchFunc produces warm-up entries from the persistent store, typically
// the most-used records ordered by usage count.
type FetchFunc[T any] func(ctx context.Context, limit int) ([]Entry[T], error)

// Warmer bulk-populates a cache instance from the persistent store. It is
// run once at startup and then on a schedule.
type Warmer[T any] struct {
	cache  *Service[T]
	fetch  FetchFunc[T]
	limit  int
	logger logging.Logger
}

// NewWarmer creates a warmer for the given cache instance. limit caps how
// many entries each pass loads.
func NewWarmer[T any](cache *Service[T], fetch FetchFunc[T], limit int) *Warmer[T] {
	return &Warmer[T]{
		cache:  cache,
		fetch:  fetch,
		limit:  limit,
		logger: logging.WithFields(logging.String("cache", cache.cfg.Name)),
	}
}

// Run performs one warm-up pass and returns how many entries were written.
// A fetch failure is reported as a source lookup error; it aborts only this
// pass, never the schedule.
func (w *Warmer[T]) Run(ctx context.Context) (int, error) {
	if w.limit == 0 {
		return 0, nil
	}

	entries, err := w.fetch(ctx, w.limit)
	if err != nil {
		lookupErr := apperrors.SourceLookupError(w.cache.cfg.Name, err)
		w.logger.Error("Cache warm-up fetch failed", lookupErr)
		return 0, lookupErr
	}

	w.cache.WarmUp(ctx, entries)
	return len(entries), nil
}
