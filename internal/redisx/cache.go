package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/storefront-orders/internal/orders"
)

// setOrderScript writes the row unless the version key already holds a newer
// updated_at. KEYS: row, version. ARGV: body, version, row ttl ms, version ttl ms.
var setOrderScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[2])
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[4])
return 1`)

// invalidateScript drops the row and raises the version key to ARGV[1].
var invalidateScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
local cur = redis.call("GET", KEYS[2])
if (not cur) or tonumber(cur) < tonumber(ARGV[1]) then
	redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
end
return 1`)

// OrderCache keeps raw order rows in redis, versioned by updated_at. It
// satisfies orders.Cache. Cache failures only cost a DB round trip, so they
// are logged and swallowed.
type OrderCache struct {
	rdb redis.Cmdable
	log *zap.Logger
}

func NewOrderCache(rdb redis.Cmdable, log *zap.Logger) *OrderCache {
	return &OrderCache{rdb: rdb, log: log}
}

func (c *OrderCache) keys(orderID string) []string {
	return []string{fmt.Sprintf(KeyOrder, orderID), fmt.Sprintf(KeyOrderVersion, orderID)}
}

func (c *OrderCache) GetOrder(ctx context.Context, orderID string) (orders.Order, bool) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrder, orderID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("order cache get", zap.String("order_id", orderID), zap.Error(err))
		}
		return orders.Order{}, false
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		c.log.Warn("order cache decode", zap.String("order_id", orderID), zap.Error(err))
		return orders.Order{}, false
	}
	return o, true
}

// SetOrder stores o unless an invalidation or a newer row already moved the
// order's version past o.UpdatedAt.
func (c *OrderCache) SetOrder(ctx context.Context, o orders.Order) {
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	err = setOrderScript.Run(ctx, c.rdb, c.keys(o.ID),
		b, o.UpdatedAt.UnixMicro(), TTLOrderCache.Milliseconds(), TTLOrderVersion.Milliseconds()).Err()
	if err != nil {
		c.log.Warn("order cache set", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (c *OrderCache) Invalidate(ctx context.Context, orderID string, version time.Time) {
	err := invalidateScript.Run(ctx, c.rdb, c.keys(orderID), version.UnixMicro(), TTLOrderVersion.Milliseconds()).Err()
	if err != nil {
		c.log.Warn("order cache invalidate", zap.String("order_id", orderID), zap.Error(err))
	}
}
