package redisx

import "time"

const (
	// Idempotency checkout: idem:order:create:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Raw order row cache: order:{order_id} -> JSON of orders.Order.
	// Only stored columns live here; views are derived on read.
	KeyOrder = "order:%s"

	// Newest updated_at seen for an order, in unix microseconds:
	// order:ver:{order_id}. A cached row older than this is never written.
	KeyOrderVersion = "order:ver:%s"

	// Admin update in flight: order:updating:{order_id} -> owner token
	KeyOrderUpdating = "order:updating:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderCache  = 5 * time.Minute
	// TTLOrderVersion outlives the row so a slow reader cannot resurrect it.
	TTLOrderVersion = 2 * TTLOrderCache
	TTLDedup        = 48 * time.Hour

	// DefaultUpdateLockTTL bounds how long a crashed update can block an order.
	DefaultUpdateLockTTL = 30 * time.Second
)
