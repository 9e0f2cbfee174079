package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it still holds the caller's token,
// so an update that outlived its TTL cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// InFlight is a per-order update lock shared by every API instance.
// It satisfies orders.Guard.
type InFlight struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewInFlight(rdb redis.Cmdable, ttl time.Duration) *InFlight {
	if ttl <= 0 {
		ttl = DefaultUpdateLockTTL
	}
	return &InFlight{rdb: rdb, ttl: ttl}
}

func (f *InFlight) Acquire(ctx context.Context, orderID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := f.rdb.SetNX(ctx, fmt.Sprintf(KeyOrderUpdating, orderID), token, f.ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (f *InFlight) Release(ctx context.Context, orderID, token string) error {
	if token == "" {
		return nil
	}
	return releaseScript.Run(ctx, f.rdb, []string{fmt.Sprintf(KeyOrderUpdating, orderID)}, token).Err()
}

func (f *InFlight) Updating(ctx context.Context, orderID string) (bool, error) {
	return Exists(ctx, f.rdb, fmt.Sprintf(KeyOrderUpdating, orderID))
}
