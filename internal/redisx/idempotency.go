package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CheckoutKeys is the fast path for replayed checkouts. The database stays the
// source of truth; a miss here just means the repo does the lookup.
type CheckoutKeys struct{ rdb redis.Cmdable }

func NewCheckoutKeys(rdb redis.Cmdable) *CheckoutKeys { return &CheckoutKeys{rdb: rdb} }

// Lookup returns the order id stored for externalID, if any.
func (k *CheckoutKeys) Lookup(ctx context.Context, externalID string) (string, bool) {
	id, err := k.rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, externalID)).Result()
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (k *CheckoutKeys) Remember(ctx context.Context, externalID, orderID string) error {
	return k.rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, externalID), orderID, TTLIdempotency).Err()
}
