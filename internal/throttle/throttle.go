// Package throttle implements the fixed-window request throttle. A Gate
// counts requests per key in a CounterStore; the first request of a window
// starts the key's TTL and the window ends when the key expires.
//
// Stores are injected so tests can run against MemoryStore while production
// shares counters across processes through RedisStore.
package throttle

import (
	"context"
	"fmt"
	"time"
)

// keyPrefix namespaces throttle counters in a shared store.
const keyPrefix = "throttle:"

// CounterStore is a keyed counter with expiry.
type CounterStore interface {
	// Incr adds one to the counter at key and returns the new value. When
	// the key did not exist it is created with the given ttl; an existing
	// key keeps its original expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Gate allows up to limit requests per key per window.
type Gate struct {
	store  CounterStore
	limit  int64
	window time.Duration
}

// NewGate creates a gate. limit and window must be positive.
func NewGate(store CounterStore, limit int64, window time.Duration) *Gate {
	return &Gate{store: store, limit: limit, window: window}
}

// Allow records one request for key and reports whether it is within the
// limit. The request that pushes the counter past limit and every later one
// in the same window are denied.
func (g *Gate) Allow(ctx context.Context, key string) (bool, error) {
	n, err := g.store.Incr(ctx, keyPrefix+key, g.window)
	if err != nil {
		return false, fmt.Errorf("incrementing throttle counter: %w", err)
	}
	return n <= g.limit, nil
}

// Limit returns the configured request limit per window.
func (g *Gate) Limit() int64 {
	return g.limit
}

// Window returns the configured window length.
func (g *Gate) Window() time.Duration {
	return g.window
}

// UserKey is the counter key for an authenticated identity.
func UserKey(username string) string {
	return "user:" + username
}

// AnonymousKey is the counter key for an anonymous caller, scoped to the
// client address so anonymous callers do not share one bucket.
func AnonymousKey(remoteIP string) string {
	return "anon:" + remoteIP
}
