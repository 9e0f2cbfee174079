package orders

import (
	"errors"
	"fmt"

	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

var (
	ErrUpdateInFlight = errors.New("an update for this order is already in progress")
	ErrStaleStatus    = errors.New("order status changed, reload and try again")
	ErrNotOwner       = errors.New("order belongs to another customer")
	// ErrExternalIDTaken means the checkout idempotency key already names
	// another customer's order.
	ErrExternalIDTaken = errors.New("external_id is already used by another order")
)

// NotFoundError is returned when a row does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// TransitionError is returned when an admin action is not offered for the
// order's effective state.
type TransitionError struct {
	OrderID string
	From    orderstatus.State
	Action  orderstatus.Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot %s from %s", e.OrderID, e.Action, e.From)
}

// CancelError is returned when a customer cancel is no longer allowed.
type CancelError struct {
	OrderID string
	Reason  string
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("order %s cannot be cancelled: %s", e.OrderID, e.Reason)
}

// ValidationError carries a client-facing message for bad input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// OutOfStockError is returned by checkout when a product cannot cover the
// requested quantity.
type OutOfStockError struct {
	ProductID string
	Required  int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: required %d, available %d", e.ProductID, e.Required, e.Available)
}
