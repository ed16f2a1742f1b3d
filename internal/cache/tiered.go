package cache

import (
	"context"
	"sync"
	"time"

	apperrors "link-router/internal/common/errors"
	"link-router/internal/common/logging"
)

// ConnState is the remote tier connectivity state.
type ConnState int

const (
	// StateDisconnected means the remote tier is unreachable (or absent)
	// and all operations are served by the local tier.
	StateDisconnected ConnState = iota
	// StateConnecting means a liveness probe is in flight.
	StateConnecting
	// StateConnected means remote operations are attempted first.
	StateConnected
)

// String returns the state name for logs and metrics.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// RemoteClient is the key-value surface the Service requires from the
// remote tier. *redis.Client implements it; tests may substitute fakes.
type RemoteClient interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetEx(ctx context.Context, key string, ttl time.Duration, value string) error
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	FlushAll(ctx context.Context) error
}

const (
	// DefaultReconnectBackoff is the fixed delay before re-probing a
	// disconnected remote tier.
	DefaultReconnectBackoff = 30 * time.Second
	// DefaultCallTimeout bounds each remote operation.
	DefaultCallTimeout = 5 * time.Second
	// DefaultCleanupInterval is how often the local tier's expiry sweep runs.
	DefaultCleanupInterval = 10 * time.Minute
)

// Config holds per-instance cache configuration. Name doubles as the key
// namespace prefix on the remote tier.
type Config struct {
	Name             string
	MaxSize          int
	TTL              time.Duration
	CleanupInterval  time.Duration
	ReconnectBackoff time.Duration
	CallTimeout      time.Duration
}

func (c *Config) applyDefaults() {
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = DefaultReconnectBackoff
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
}

// Entry is a key/value pair for bulk warm-up writes.
type Entry[T any] struct {
	Key   string
	Value T
}

// Service composes the optional remote tier and the always-available local
// tier behind one API. Remote failures are absorbed here: they are logged,
// flip the connectivity state machine to Disconnected, arm the reconnect
// timer, and the operation falls back to the local tier. Callers only ever
// observe "not cached", never a remote error.
type Service[T any] struct {
	cfg    Config
	codec  Codec[T]
	local  *LocalStore[T]
	remote RemoteClient
	logger logging.Logger

	mu            sync.Mutex
	hits          int64
	misses        int64
	evictions     int64
	totalRequests int64
	state         ConnState
	reconnect     *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache instance. remote may be nil, in which case the
// instance runs local-only. When a remote client is supplied, a liveness
// probe is started immediately and the instance serves from the local tier
// until the probe succeeds.
func New[T any](cfg Config, codec Codec[T], remote RemoteClient) *Service[T] {
	cfg.applyDefaults()

	s := &Service[T]{
		cfg:    cfg,
		codec:  codec,
		local:  NewLocalStore[T](cfg.MaxSize, cfg.TTL),
		remote: remote,
		logger: logging.WithFields(logging.String("cache", cfg.Name)),
		state:  StateDisconnected,
		done:   make(chan struct{}),
	}

	if remote != nil {
		go s.probe()
	}

	go s.cleanupLoop()

	return s
}

// Get returns the cached value for key. The remote tier is queried first
// when connected; a remote miss or failure falls through to the local tier.
func (s *Service[T]) Get(ctx context.Context, key string) (T, bool) {
	if s.connectedNow() {
		rctx, cancel := s.callCtx(ctx)
		payload, found, err := s.remote.Get(rctx, s.remoteKey(key))
		cancel()

		switch {
		case err != nil:
			s.remoteFailed("get", err)
		case found:
			value, derr := s.codec.Decode(payload)
			if derr == nil {
				s.recordHit()
				return value, true
			}
			s.logger.Warn("Purging malformed cached value",
				logging.Err(apperrors.MalformedValueError(key, derr)))
			s.purgeRemote(ctx, key)
		}
	}

	if value, ok := s.local.Get(key); ok {
		s.recordHit()
		return value, true
	}

	s.recordMiss()
	var zero T
	return zero, false
}

// Set stores a value in both tiers using the instance TTL.
func (s *Service[T]) Set(ctx context.Context, key string, value T) {
	s.SetWithTTL(ctx, key, value, s.cfg.TTL)
}

// SetWithTTL stores a value with an explicit remote TTL. The write is
// always mirrored into the local tier regardless of the remote outcome, so
// the local tier remains the fallback of record if the remote becomes
// unreachable moments later.
func (s *Service[T]) SetWithTTL(ctx context.Context, key string, value T, ttl time.Duration) {
	if s.connectedNow() {
		payload, err := s.codec.Encode(value)
		if err != nil {
			s.logger.Error("Failed to encode value for remote tier", err,
				logging.String("key", key))
		} else {
			rctx, cancel := s.callCtx(ctx)
			err = s.remote.SetEx(rctx, s.remoteKey(key), ttl, payload)
			cancel()
			if err != nil {
				s.remoteFailed("set", err)
			}
		}
	}

	if s.local.Set(key, value) {
		s.recordEviction()
	}
}

// Delete removes a key from both tiers, reporting whether it was removed
// from either.
func (s *Service[T]) Delete(ctx context.Context, key string) bool {
	removed := false

	if s.connectedNow() {
		rctx, cancel := s.callCtx(ctx)
		ok, err := s.remote.Delete(rctx, s.remoteKey(key))
		cancel()
		if err != nil {
			s.remoteFailed("delete", err)
		} else if ok {
			removed = true
		}
	}

	if s.local.Delete(key) {
		removed = true
	}
	return removed
}

// Has reports whether a key is cached, checking the remote tier first and
// the local tier (honoring expiry) otherwise.
func (s *Service[T]) Has(ctx context.Context, key string) bool {
	if s.connectedNow() {
		rctx, cancel := s.callCtx(ctx)
		ok, err := s.remote.Exists(rctx, s.remoteKey(key))
		cancel()
		if err != nil {
			s.remoteFailed("has", err)
		} else if ok {
			return true
		}
	}

	return s.local.Has(key)
}

// Clear flushes both tiers and resets statistics.
func (s *Service[T]) Clear(ctx context.Context) {
	if s.connectedNow() {
		rctx, cancel := s.callCtx(ctx)
		err := s.remote.FlushAll(rctx)
		cancel()
		if err != nil {
			s.remoteFailed("clear", err)
		}
	}

	s.local.Clear()

	s.mu.Lock()
	s.hits = 0
	s.misses = 0
	s.evictions = 0
	s.totalRequests = 0
	s.mu.Unlock()
}

// WarmUp sequentially writes a batch of key/value pairs.
func (s *Service[T]) WarmUp(ctx context.Context, entries []Entry[T]) {
	for _, e := range entries {
		s.Set(ctx, e.Key, e.Value)
	}
	s.logger.Info("Cache warmed up", logging.Int("entries", len(entries)))
}

// Cleanup purges expired entries from the local tier and returns how many
// were removed. Remote entries rely on the server's native TTL.
func (s *Service[T]) Cleanup() int {
	return s.local.Cleanup()
}

// Size returns the local tier entry count. The remote tier's size is not
// introspected.
func (s *Service[T]) Size() int {
	return s.local.Len()
}

// TopAccessed returns up to limit local entries by descending access count.
func (s *Service[T]) TopAccessed(limit int) []KeyAccess {
	return s.local.TopAccessed(limit)
}

// GetStats returns a snapshot of the instance counters and connectivity.
func (s *Service[T]) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	connected := s.state == StateConnected
	return Stats{
		Hits:            s.hits,
		Misses:          s.misses,
		Evictions:       s.evictions,
		TotalRequests:   s.totalRequests,
		HitRate:         hitRate(s.hits, s.totalRequests),
		RemoteConnected: connected,
		FallbackActive:  s.remote == nil || !connected,
	}
}

// State returns the current connectivity state.
func (s *Service[T]) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the background cleanup sweep and any pending reconnect timer.
// It does not close the remote client, which the caller owns.
func (s *Service[T]) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.reconnect != nil {
			s.reconnect.Stop()
		}
		s.mu.Unlock()
	})
}

func (s *Service[T]) remoteKey(key string) string {
	return s.cfg.Name + ":" + key
}

func (s *Service[T]) callCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.cfg.CallTimeout)
}

func (s *Service[T]) connectedNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected
}

// remoteFailed transitions Connected (or Connecting) to Disconnected and
// arms the reconnect timer. Subsequent operations serve local-only until a
// probe succeeds.
func (s *Service[T]) remoteFailed(op string, err error) {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	s.armReconnectLocked()
	s.mu.Unlock()

	s.logger.Warn("Remote tier unavailable, serving from local tier",
		logging.String("operation", op),
		logging.Err(apperrors.RemoteUnavailableError(op, err)),
		logging.Duration("retry_in", s.cfg.ReconnectBackoff))
}

// armReconnectLocked schedules the next liveness probe. Callers must hold s.mu.
func (s *Service[T]) armReconnectLocked() {
	if s.reconnect == nil {
		s.reconnect = time.AfterFunc(s.cfg.ReconnectBackoff, s.probe)
	} else {
		s.reconnect.Reset(s.cfg.ReconnectBackoff)
	}
}

// probe runs a liveness check against the remote tier. On success the state
// machine moves to Connected; on failure it returns to Disconnected and the
// timer is re-armed. The machine has no terminal state.
func (s *Service[T]) probe() {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	if s.remote == nil {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	if err := s.remote.Ping(ctx); err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.armReconnectLocked()
		s.mu.Unlock()

		s.logger.Warn("Remote tier probe failed",
			logging.Err(err),
			logging.Duration("retry_in", s.cfg.ReconnectBackoff))
		return
	}

	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()
	s.logger.Info("Remote tier connected")
}

// purgeRemote removes a malformed entry so the next read can repopulate it
// from the source of truth.
func (s *Service[T]) purgeRemote(ctx context.Context, key string) {
	rctx, cancel := s.callCtx(ctx)
	defer cancel()
	if _, err := s.remote.Delete(rctx, s.remoteKey(key)); err != nil {
		s.remoteFailed("purge", err)
	}
}

func (s *Service[T]) cleanupLoop() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if removed := s.Cleanup(); removed > 0 {
				s.logger.Debug("Expired entries removed",
					logging.Int("count", removed))
			}
		}
	}
}

func (s *Service[T]) recordHit() {
	s.mu.Lock()
	s.hits++
	s.totalRequests++
	s.mu.Unlock()
}

func (s *Service[T]) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.totalRequests++
	s.mu.Unlock()
}

func (s *Service[T]) recordEviction() {
	s.mu.Lock()
	s.evictions++
	s.mu.Unlock()
}
