// Package cache provides the tiered caching layer that fronts the
// persistent link store.
//
// Two tiers are composed behind one generic API:
//
// 1. Local tier - bounded in-process store
//   - True LRU eviction by least-recently-accessed entry
//   - Sliding TTL expiration measured from the last access
//   - Always available regardless of network conditions
//
// 2. Remote tier - optional Redis-backed key-value store
//   - Shared across instances, larger capacity
//   - Values cross the boundary as text through a per-namespace Codec
//   - Unreachability degrades the service to local-only mode
//
// The Service queries the remote tier first and falls back to the local
// tier on a remote miss or failure. Writes always mirror into the local
// tier so a remote outage moments later cannot lose the entry. Remote
// errors never propagate to callers; they flip the connectivity state
// machine to Disconnected and arm a fixed 30 second reconnect timer.
//
// Usage:
//
//	svc := cache.New[string](cache.Config{
//		Name:    "destinations",
//		MaxSize: 1000,
//		TTL:     5 * time.Minute,
//	}, cache.StringCodec{}, redisClient)
//	defer svc.Close()
//
//	svc.Set(ctx, "promo", "https://example.com/landing")
//	dest, ok := svc.Get(ctx, "promo")
package cache
