// Package tracker observes per-key request traffic through the cache layer
// and adaptively pre-warms and prioritizes hot keys.
//
// Keys whose request count crosses the hot threshold trigger background
// pre-caching of related links (shared destination domain) fetched from the
// persistent store. Keys whose observed latency exceeds the slow threshold
// are re-cached with an extended TTL. Both side effects are fire-and-forget:
// they never block the request path and log their own failures.
package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"link-router/internal/cache"
	apperrors "link-router/internal/common/errors"
	"link-router/internal/common/logging"
)

// Source is the persistent-store collaborator consulted for adaptive
// pre-caching and prioritization.
type Source interface {
	// Lookup returns the destination URL for a short code.
	Lookup(ctx context.Context, code string) (string, error)
	// Related returns code-to-destination pairs for links related to the
	// given code, heuristically matched by shared destination domain.
	Related(ctx context.Context, code string, limit int) (map[string]string, error)
}

// Pattern is the observed request pattern for a single key. Created on the
// first observed request, pruned by the periodic sweep.
type Pattern struct {
	Key             string    `json:"key"`
	RequestCount    int64     `json:"request_count"`
	LastAccessed    time.Time `json:"last_accessed"`
	AvgResponseTime float64   `json:"avg_response_time_ms"`
}

const (
	// DefaultHotThreshold is the request count a key must exceed to be
	// considered hot.
	DefaultHotThreshold = 3
	// DefaultSlowThreshold is the average latency above which a key is
	// prioritized with an extended TTL.
	DefaultSlowThreshold = 500 * time.Millisecond
	// DefaultSweepInterval is how often stale patterns are pruned.
	DefaultSweepInterval = 10 * time.Minute
	// DefaultIdleWindow is how long a pattern may go unseen before the
	// sweep considers it stale.
	DefaultIdleWindow = 30 * time.Minute
	// DefaultRelatedLimit caps how many related links one hot key pre-caches.
	DefaultRelatedLimit = 10
	// DefaultPriorityTTL is the extended TTL applied to slow keys.
	DefaultPriorityTTL = 30 * time.Minute
)

// Config holds tracker tuning knobs. Zero values fall back to defaults.
type Config struct {
	HotThreshold  int64
	SlowThreshold time.Duration
	SweepInterval time.Duration
	IdleWindow    time.Duration
	RelatedLimit  int
	PriorityTTL   time.Duration
}

func (c *Config) applyDefaults() {
	if c.HotThreshold <= 0 {
		c.HotThreshold = DefaultHotThreshold
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = DefaultSlowThreshold
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.IdleWindow <= 0 {
		c.IdleWindow = DefaultIdleWindow
	}
	if c.RelatedLimit <= 0 {
		c.RelatedLimit = DefaultRelatedLimit
	}
	if c.PriorityTTL <= 0 {
		c.PriorityTTL = DefaultPriorityTTL
	}
}

// Tracker maintains the request pattern map and drives adaptive pre-caching
// through the destinations cache.
type Tracker struct {
	cfg    Config
	cache  *cache.Service[string]
	source Source
	logger logging.Logger

	mu       sync.Mutex
	patterns map[string]*Pattern

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a tracker and starts its periodic sweep.
func New(cfg Config, destinations *cache.Service[string], source Source) *Tracker {
	cfg.applyDefaults()

	t := &Tracker{
		cfg:      cfg,
		cache:    destinations,
		source:   source,
		logger:   logging.WithFields(logging.String("component", "tracker")),
		patterns: make(map[string]*Pattern),
		done:     make(chan struct{}),
	}

	go t.sweepLoop()
	return t
}

// Observe records one request for key. Crossing the hot threshold triggers
// background pre-caching of related links exactly once per crossing; a slow
// response triggers background prioritization. Neither blocks the caller.
func (t *Tracker) Observe(key string, responseTime time.Duration) {
	ms := float64(responseTime.Microseconds()) / 1000.0

	t.mu.Lock()
	p, ok := t.patterns[key]
	if !ok {
		p = &Pattern{Key: key}
		t.patterns[key] = p
	}
	p.RequestCount++
	p.LastAccessed = time.Now()
	p.AvgResponseTime += (ms - p.AvgResponseTime) / float64(p.RequestCount)
	crossedHot := p.RequestCount == t.cfg.HotThreshold+1
	t.mu.Unlock()

	if crossedHot {
		go t.precacheRelated(key)
	}
	if responseTime > t.cfg.SlowThreshold {
		go t.prioritize(key)
	}
}

// precacheRelated loads links related to a hot key from the persistent
// store and writes them into the destinations cache.
func (t *Tracker) precacheRelated(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	related, err := t.source.Related(ctx, key, t.cfg.RelatedLimit)
	if err != nil {
		t.logger.Warn("Related link pre-cache skipped",
			logging.String("key", key),
			logging.Err(apperrors.SourceLookupError(key, err)))
		return
	}

	for code, destination := range related {
		t.cache.Set(ctx, code, destination)
	}

	t.logger.Debug("Pre-cached related links",
		logging.String("key", key),
		logging.Int("count", len(related)))
}

// prioritize re-caches a slow key with an extended TTL.
func (t *Tracker) prioritize(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	destination, err := t.source.Lookup(ctx, key)
	if err != nil {
		t.logger.Warn("Slow key prioritization skipped",
			logging.String("key", key),
			logging.Err(apperrors.SourceLookupError(key, err)))
		return
	}

	t.cache.SetWithTTL(ctx, key, destination, t.cfg.PriorityTTL)
	t.logger.Debug("Prioritized slow key", logging.String("key", key))
}

// Sweep removes patterns that are both stale (unseen within the idle
// window) and low-frequency (below the hot threshold), returning how many
// were removed. Bounds unbounded growth of the pattern map.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, p := range t.patterns {
		if now.Sub(p.LastAccessed) > t.cfg.IdleWindow && p.RequestCount < t.cfg.HotThreshold {
			delete(t.patterns, key)
			removed++
		}
	}
	return removed
}

func (t *Tracker) sweepLoop() {
	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if removed := t.Sweep(); removed > 0 {
				t.logger.Debug("Stale patterns removed",
					logging.Int("count", removed))
			}
		}
	}
}

// Stats is the tracker's aggregate report.
type Stats struct {
	TotalPatterns int       `json:"total_patterns"`
	HotKeys       int       `json:"hot_keys"`
	SlowKeys      int       `json:"slow_keys"`
	TopKeys       []Pattern `json:"top_keys"`
}

// GetStats returns aggregate pattern statistics with the top n keys by
// request count.
func (t *Tracker) GetStats(topN int) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	slowMs := float64(t.cfg.SlowThreshold.Microseconds()) / 1000.0

	stats := Stats{TotalPatterns: len(t.patterns)}
	all := make([]Pattern, 0, len(t.patterns))
	for _, p := range t.patterns {
		if p.RequestCount > t.cfg.HotThreshold {
			stats.HotKeys++
		}
		if p.AvgResponseTime > slowMs {
			stats.SlowKeys++
		}
		all = append(all, *p)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].RequestCount != all[j].RequestCount {
			return all[i].RequestCount > all[j].RequestCount
		}
		return all[i].Key < all[j].Key
	})

	if topN > 0 && len(all) > topN {
		all = all[:topN]
	}
	stats.TopKeys = all
	return stats
}

// Close stops the periodic sweep. In-flight pre-cache goroutines run to
// completion.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}
