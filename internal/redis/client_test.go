package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
}

func TestNewClientDoesNotRequireServer(t *testing.T) {
	// Construction must succeed even when nothing is listening; the cache
	// layer probes connectivity separately.
	client, err := NewClient(&Config{Address: "127.0.0.1:1"})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, client.Ping(ctx))
}

func TestGetSetEx(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	_, found, err := client.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, client.SetEx(ctx, "k", time.Minute, "v"))

	value, found, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)

	// TTL must be applied server-side.
	mr.FastForward(2 * time.Minute)
	_, found, err = client.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetEx(ctx, "k", time.Minute, "v"))

	removed, err := client.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = client.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestExists(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	exists, err := client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.SetEx(ctx, "k", time.Minute, "v"))

	exists, err = client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFlushAll(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetEx(ctx, "a", time.Minute, "1"))
	require.NoError(t, client.SetEx(ctx, "b", time.Minute, "2"))

	require.NoError(t, client.FlushAll(ctx))

	_, found, err := client.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPingAndHealth(t *testing.T) {
	mr, client := newTestClient(t)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Health())

	mr.Close()
	assert.Error(t, client.Health())
}
