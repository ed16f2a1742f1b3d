package cache

import (
	"sort"
	"sync"
	"time"
)

// entry is a single cached value. Owned exclusively by the LocalStore:
// created on write, touched on every read, removed on evict/expire/delete.
type entry[T any] struct {
	value        T
	lastAccessed time.Time
	accessCount  int64
}

// LocalStore is the bounded in-process cache tier. It enforces a hard entry
// cap with least-recently-used eviction and a sliding TTL measured from the
// last access, so frequently read entries never age out while idle ones do.
//
// Eviction and cleanup scan all entries, which is fine at the intended scale
// of hundreds to low thousands of entries per namespace.
type LocalStore[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	maxSize int
	ttl     time.Duration
}

// KeyAccess pairs a key with its access count, used for the top-accessed
// observability report.
type KeyAccess struct {
	Key         string `json:"key"`
	AccessCount int64  `json:"access_count"`
}

// NewLocalStore creates a bounded local store. maxSize must be positive;
// ttl is the sliding expiration window.
func NewLocalStore[T any](maxSize int, ttl time.Duration) *LocalStore[T] {
	return &LocalStore[T]{
		entries: make(map[string]*entry[T]),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the value for key. An absent or expired key is a miss; a
// stale entry found during the lookup is removed. A hit refreshes the
// entry's last-access time and increments its access count.
func (s *LocalStore[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}

	now := time.Now()
	if now.Sub(e.lastAccessed) > s.ttl {
		delete(s.entries, key)
		return zero, false
	}

	e.lastAccessed = now
	e.accessCount++
	return e.value, true
}

// Set stores a value. Writing an existing key updates it in place and never
// triggers eviction. Inserting a new key at capacity first evicts the entry
// with the globally smallest last-access time. Returns whether an eviction
// occurred.
func (s *LocalStore[T]) Set(key string, value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, ok := s.entries[key]; ok {
		e.value = value
		e.lastAccessed = now
		return false
	}

	evicted := false
	if len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
		evicted = true
	}

	s.entries[key] = &entry[T]{
		value:        value,
		lastAccessed: now,
	}
	return evicted
}

// evictOldestLocked removes the entry with the smallest lastAccessed.
// Callers must hold s.mu.
func (s *LocalStore[T]) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, e := range s.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessed
			first = false
		}
	}

	if !first {
		delete(s.entries, oldestKey)
	}
}

// Delete removes a key, reporting whether it was present.
func (s *LocalStore[T]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return ok
}

// Has reports whether a live entry exists for key. Expiry is honored and a
// stale entry is removed, but unlike Get the last-access time is not
// refreshed.
func (s *LocalStore[T]) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if time.Since(e.lastAccessed) > s.ttl {
		delete(s.entries, key)
		return false
	}
	return true
}

// Len returns the current number of entries, including any not yet swept
// expired ones.
func (s *LocalStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *LocalStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[T])
}

// Cleanup removes every expired entry and returns how many were removed.
func (s *LocalStore[T]) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.lastAccessed) > s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// TopAccessed returns up to limit entries ordered by descending access
// count. This is an observability aid and does not touch access times.
func (s *LocalStore[T]) TopAccessed(limit int) []KeyAccess {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]KeyAccess, 0, len(s.entries))
	for key, e := range s.entries {
		result = append(result, KeyAccess{Key: key, AccessCount: e.accessCount})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AccessCount != result[j].AccessCount {
			return result[i].AccessCount > result[j].AccessCount
		}
		return result[i].Key < result[j].Key
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
