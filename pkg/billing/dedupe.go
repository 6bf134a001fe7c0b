package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper short-circuits redelivered webhook events by ID.
// Deduplication is best effort: the merge function is idempotent, so a
// deduper failure or eviction only costs a harmless re-run.
type EventDeduper interface {
	// Seen marks the event as processed and reports whether it had been
	// seen before.
	Seen(ctx context.Context, eventID string) (bool, error)
}

const dedupeKeyPrefix = "billing:webhook:"

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates an EventDeduper backed by Redis SET NX with the
// given retention window. Panics on a nil client to fail fast.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) EventDeduper {
	if client == nil {
		panic("billing: redis client is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisDeduper{client: client, ttl: ttl}
}

func (d *redisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event ID is required")
	}
	set, err := d.client.SetNX(ctx, dedupeKeyPrefix+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemDeduper returns an in-process EventDeduper for tests and
// single-instance deployments. Entries are never evicted.
func NewMemDeduper() EventDeduper {
	return &memDeduper{seen: make(map[string]struct{})}
}

func (d *memDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[eventID]; ok {
		return true, nil
	}
	d.seen[eventID] = struct{}{}
	return false, nil
}
