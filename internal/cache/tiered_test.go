package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"link-router/internal/redis"
)

type testRecord struct {
	Code        string `json:"code"`
	Destination string `json:"destination"`
}

func newRemoteClient(t *testing.T, addr string) *redis.Client {
	t.Helper()
	client, err := redis.NewClient(&redis.Config{Address: addr})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// newConnectedService starts miniredis and returns a service whose probe
// has already succeeded.
func newConnectedService(t *testing.T) (*miniredis.Miniredis, *Service[string]) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc := New[string](Config{
		Name:             "dest",
		MaxSize:          100,
		TTL:              time.Minute,
		ReconnectBackoff: 50 * time.Millisecond,
	}, StringCodec{}, newRemoteClient(t, mr.Addr()))
	t.Cleanup(svc.Close)

	require.Eventually(t, func() bool {
		return svc.GetStats().RemoteConnected
	}, 2*time.Second, 10*time.Millisecond, "probe should connect")
	return mr, svc
}

func TestTieredRoundTrip(t *testing.T) {
	_, svc := newConnectedService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", "v")
	value, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestTieredRemoteQueriedFirst(t *testing.T) {
	_, svc := newConnectedService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", "v")

	// Dropping the local copy proves the hit is served by the remote tier.
	svc.local.Clear()

	value, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
	assert.Equal(t, int64(1), svc.GetStats().Hits)
}

func TestTieredSetMirrorsIntoLocalTier(t *testing.T) {
	mr, svc := newConnectedService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", "v")

	// The remote becomes unreachable right after the write; the mirrored
	// local copy must still serve the read.
	mr.SetError("connection lost")

	value, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)

	stats := svc.GetStats()
	assert.False(t, stats.RemoteConnected)
	assert.True(t, stats.FallbackActive)
}

func TestTieredWarmUpThenHits(t *testing.T) {
	_, svc := newConnectedService(t)
	ctx := context.Background()

	svc.WarmUp(ctx, []Entry[string]{
		{Key: "k1", Value: "https://example.com"},
		{Key: "k2", Value: "https://example.org"},
	})

	value, ok := svc.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", value)

	value, ok = svc.Get(ctx, "k2")
	require.True(t, ok)
	assert.Equal(t, "https://example.org", value)

	assert.Equal(t, int64(2), svc.GetStats().Hits)
}

func TestTieredDeadRemoteNeverSurfacesErrors(t *testing.T) {
	// Nothing listens on this address; every remote attempt fails.
	svc := New[string](Config{
		Name:             "dest",
		MaxSize:          100,
		TTL:              time.Minute,
		ReconnectBackoff: time.Hour,
		CallTimeout:      200 * time.Millisecond,
	}, StringCodec{}, newRemoteClient(t, "127.0.0.1:1"))
	defer svc.Close()

	ctx := context.Background()

	svc.Set(ctx, "k", "v")
	value, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)

	assert.True(t, svc.Has(ctx, "k"))
	assert.True(t, svc.Delete(ctx, "k"))

	stats := svc.GetStats()
	assert.False(t, stats.RemoteConnected)
	assert.True(t, stats.FallbackActive)
}

func TestTieredLocalOnlyMode(t *testing.T) {
	svc := New[string](Config{
		Name:    "dest",
		MaxSize: 100,
		TTL:     time.Minute,
	}, StringCodec{}, nil)
	defer svc.Close()

	ctx := context.Background()

	svc.Set(ctx, "k", "v")
	value, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)

	stats := svc.GetStats()
	assert.False(t, stats.RemoteConnected)
	assert.True(t, stats.FallbackActive)
	assert.Equal(t, StateDisconnected, svc.State())
}

func TestTieredDeleteAcrossTiers(t *testing.T) {
	mr, svc := newConnectedService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", "v")
	assert.True(t, svc.Delete(ctx, "k"))
	assert.False(t, mr.Exists("dest:k"))

	// Deleting an absent key is idempotent.
	assert.False(t, svc.Delete(ctx, "k"))
	assert.Equal(t, 0, svc.Size())
}

func TestTieredHasChecksBothTiers(t *testing.T) {
	mr, svc := newConnectedService(t)
	ctx := context.Background()

	assert.False(t, svc.Has(ctx, "k"))

	// Present only on the remote tier.
	require.NoError(t, mr.Set("dest:remote-only", "v"))
	assert.True(t, svc.Has(ctx, "remote-only"))

	// Present only on the local tier.
	svc.local.Set("local-only", "v")
	assert.True(t, svc.Has(ctx, "local-only"))
}

func TestTieredClearFlushesAndResetsStats(t *testing.T) {
	mr, svc := newConnectedService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", "v")
	svc.Get(ctx, "k")
	svc.Get(ctx, "missing")

	svc.Clear(ctx)

	assert.False(t, mr.Exists("dest:k"))
	assert.Equal(t, 0, svc.Size())

	stats := svc.GetStats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.Zero(t, stats.TotalRequests)
	assert.Zero(t, stats.HitRate)
}

func TestTieredHitRate(t *testing.T) {
	_, svc := newConnectedService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", "v")
	svc.Get(ctx, "k") // hit
	svc.Get(ctx, "x") // miss
	svc.Get(ctx, "y") // miss

	stats := svc.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.InDelta(t, 33.33, stats.HitRate, 0.01)
}

func TestTieredHitRateZeroWhenNoRequests(t *testing.T) {
	_, svc := newConnectedService(t)
	assert.Zero(t, svc.GetStats().HitRate)
}

func TestTieredMalformedStringPayloadPurged(t *testing.T) {
	mr, svc := newConnectedService(t)
	ctx := context.Background()

	// A structured payload where the namespace contract says plain string.
	require.NoError(t, mr.Set("dest:poisoned", `{"unexpected":"object"}`))

	_, ok := svc.Get(ctx, "poisoned")
	assert.False(t, ok, "malformed payload must read as a miss")
	assert.False(t, mr.Exists("dest:poisoned"), "offending entry must be purged")
	assert.Equal(t, int64(1), svc.GetStats().Misses)
}

func TestTieredMalformedJSONPayloadPurged(t *testing.T) {
	mr := miniredis.RunT(t)
	svc := New[testRecord](Config{
		Name:             "links",
		MaxSize:          100,
		TTL:              time.Minute,
		ReconnectBackoff: 50 * time.Millisecond,
	}, JSONCodec[testRecord]{}, newRemoteClient(t, mr.Addr()))
	defer svc.Close()

	require.Eventually(t, func() bool {
		return svc.GetStats().RemoteConnected
	}, 2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, mr.Set("links:bad", "not json at all"))

	_, ok := svc.Get(ctx, "bad")
	assert.False(t, ok)
	assert.False(t, mr.Exists("links:bad"))

	// A well-formed record still round-trips.
	svc.Set(ctx, "good", testRecord{Code: "good", Destination: "https://example.com"})
	svc.local.Clear()
	record, ok := svc.Get(ctx, "good")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", record.Destination)
}

func TestTieredReconnectAfterOutage(t *testing.T) {
	mr, svc := newConnectedService(t)
	ctx := context.Background()

	// Force an operational error; the state machine must disconnect and
	// arm the reconnect timer.
	mr.SetError("forced outage")
	svc.Set(ctx, "k", "v")
	assert.False(t, svc.GetStats().RemoteConnected)

	// Once the server recovers, the next probe restores the connection.
	mr.SetError("")
	require.Eventually(t, func() bool {
		return svc.GetStats().RemoteConnected
	}, 2*time.Second, 10*time.Millisecond, "reconnect probe should succeed")
}

func TestTieredEvictionCounted(t *testing.T) {
	svc := New[string](Config{
		Name:    "dest",
		MaxSize: 2,
		TTL:     time.Minute,
	}, StringCodec{}, nil)
	defer svc.Close()

	ctx := context.Background()
	svc.Set(ctx, "a", "1")
	svc.Set(ctx, "b", "2")
	svc.Set(ctx, "c", "3")

	assert.Equal(t, int64(1), svc.GetStats().Evictions)
	assert.Equal(t, 2, svc.Size())
}

func TestTieredTopAccessed(t *testing.T) {
	svc := New[string](Config{
		Name:    "dest",
		MaxSize: 10,
		TTL:     time.Minute,
	}, StringCodec{}, nil)
	defer svc.Close()

	ctx := context.Background()
	svc.Set(ctx, "a", "1")
	svc.Set(ctx, "b", "2")
	svc.Get(ctx, "b")
	svc.Get(ctx, "b")

	top := svc.TopAccessed(1)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Key)
}
