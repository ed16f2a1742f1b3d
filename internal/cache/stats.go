package cache

import "math"

// Stats is a point-in-time snapshot of a cache instance's counters.
// Counters are process-wide per instance and reset on Clear.
type Stats struct {
	Hits            int64   `json:"hits"`
	Misses          int64   `json:"misses"`
	Evictions       int64   `json:"evictions"`
	TotalRequests   int64   `json:"total_requests"`
	HitRate         float64 `json:"hit_rate"`
	RemoteConnected bool    `json:"remote_connected"`
	FallbackActive  bool    `json:"fallback_active"`
}

// hitRate computes hits/total as a percentage rounded to two decimals,
// defined as 0 when no requests have been recorded.
func hitRate(hits, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(hits) / float64(total) * 100
	return math.Round(rate*100) / 100
}
