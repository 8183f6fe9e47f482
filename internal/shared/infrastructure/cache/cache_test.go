package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "stats:u1:week")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "stats:u1:week", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "stats:u1:all", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "stats:u2:week", []byte("c"), time.Minute))

	got, ok, err := c.Get(ctx, "stats:u1:week")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), got)

	require.NoError(t, c.DeletePrefix(ctx, "stats:u1:"))

	_, ok, _ = c.Get(ctx, "stats:u1:all")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "stats:u2:week")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "stats:u2:week"))
	_, ok, _ = c.Get(ctx, "stats:u2:week")
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory())
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(time.Minute)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	got[1] = 'y'

	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

// Runs against a real server when TEMPO_TEST_REDIS_URL is set.
func TestRedis(t *testing.T) {
	url := os.Getenv("TEMPO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEMPO_TEST_REDIS_URL not set")
	}
	client, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	exerciseCache(t, NewRedis(client, "tempo-test:"+uuid.NewString()+":"))
}
