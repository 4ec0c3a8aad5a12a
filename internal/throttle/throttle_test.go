package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for MemoryStore.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestGate_EleventhRequestDenied(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	gate := NewGate(NewMemoryStoreWithClock(clock.Now), 10, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		ok, err := gate.Allow(ctx, UserKey("alice"))
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i)
		clock.Advance(time.Second)
	}

	ok, err := gate.Allow(ctx, UserKey("alice"))
	require.NoError(t, err)
	assert.False(t, ok, "11th request should be denied")

	// Once the window has elapsed the counter starts over.
	clock.Advance(time.Minute)
	ok, err = gate.Allow(ctx, UserKey("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_WindowIsFixedFromFirstRequest(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	gate := NewGate(NewMemoryStoreWithClock(clock.Now), 2, time.Minute)
	ctx := context.Background()

	ok, _ := gate.Allow(ctx, "k")
	assert.True(t, ok)
	clock.Advance(59 * time.Second)
	ok, _ = gate.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = gate.Allow(ctx, "k")
	assert.False(t, ok)

	// Activity inside the window did not extend it.
	clock.Advance(time.Second)
	ok, _ = gate.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestGate_KeysAreIndependent(t *testing.T) {
	gate := NewGate(NewMemoryStore(), 1, time.Minute)
	ctx := context.Background()

	ok, _ := gate.Allow(ctx, UserKey("alice"))
	assert.True(t, ok)
	ok, _ = gate.Allow(ctx, UserKey("bob"))
	assert.True(t, ok)
	ok, _ = gate.Allow(ctx, AnonymousKey("10.0.0.1"))
	assert.True(t, ok)
	ok, _ = gate.Allow(ctx, AnonymousKey("10.0.0.2"))
	assert.True(t, ok)

	ok, _ = gate.Allow(ctx, UserKey("alice"))
	assert.False(t, ok)
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestGate_StoreErrorIsReturned(t *testing.T) {
	gate := NewGate(failingStore{}, 10, time.Minute)
	ok, err := gate.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gate := NewGate(NewRedisStore(client), 10, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		ok, err := gate.Allow(ctx, UserKey("alice"))
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i)
	}
	ok, err := gate.Allow(ctx, UserKey("alice"))
	require.NoError(t, err)
	assert.False(t, ok)

	ttl := mr.TTL(keyPrefix + UserKey("alice"))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected ttl %v", ttl)

	mr.FastForward(time.Minute)
	ok, err = gate.Allow(ctx, UserKey("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
}
