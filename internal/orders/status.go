package orders

import (
	"time"

	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// StatusPending is the raw status checkout writes.
const StatusPending = "pending"

// StatusCancelled is the raw status a customer cancel writes.
const StatusCancelled = "cancelled"

// State is the effective state of o. It is never stored.
func (o Order) State() orderstatus.State {
	return orderstatus.Normalize(o.Status, o.PaymentStatus)
}

// View derives the full lifecycle view of o at now.
func (o Order) View(now time.Time, updating bool) orderstatus.View {
	return orderstatus.Derive(o.Status, o.PaymentStatus, o.CreatedAt, now, updating)
}
