package orderstatus

import "time"

// CancelWindow is how long after checkout a customer may cancel.
const CancelWindow = 24 * time.Hour

// Cancellable reports whether a customer may still cancel an order in state.
func (s State) Cancellable() bool {
	switch s {
	case StateDelivered, StateCancelled, StateRejected, StateRTO, StatePaymentFailed:
		return false
	}
	return true
}

// CanCancel reports whether the customer cancel action is offered at now.
func CanCancel(status, paymentStatus string, createdAt, now time.Time) bool {
	if now.Sub(createdAt) >= CancelWindow {
		return false
	}
	return Normalize(status, paymentStatus).Cancellable()
}
