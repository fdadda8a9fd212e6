package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementBelowLimit increments KEYS[1] unless it already reached ARGV[1]
// and sets a PEXPIRE of ARGV[2] on the first increment.
var incrementBelowLimit = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return {0, current}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current}
`)

// RedisCounter keeps counters in Redis so every instance shares the budget.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter wraps a go-redis client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

// Increment runs the check-and-increment script atomically.
func (r *RedisCounter) Increment(ctx context.Context, key string, limit int, ttl time.Duration) (bool, int, error) {
	res, err := incrementBelowLimit.Run(ctx, r.client, []string{key}, limit, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("increment %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("increment %s: unexpected reply %v", key, res)
	}
	return res[0] == 1, int(res[1]), nil
}

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryCounter is a single-process Counter for tests and local development.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryCounter creates an empty in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]*memoryEntry), now: time.Now}
}

// Increment implements Counter.
func (m *MemoryCounter) Increment(_ context.Context, key string, limit int, ttl time.Duration) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		m.evictExpired(now)
		e = &memoryEntry{expiresAt: now.Add(ttl)}
		m.entries[key] = e
	}
	if e.count >= limit {
		return false, e.count, nil
	}
	e.count++
	return true, e.count, nil
}

func (m *MemoryCounter) evictExpired(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
