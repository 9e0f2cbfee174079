package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/client"
	"github.com/ariefcatur/storefront-orders/internal/httpx"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// CustomerAPI is the slice of *client.Client the tracker uses.
type CustomerAPI interface {
	MyOrders(ctx context.Context) ([]httpx.OrderResp, error)
	Cancel(ctx context.Context, id string) (httpx.OrderResp, error)
}

// Tracker is the customer's "my orders" screen.
type Tracker struct {
	api    CustomerAPI
	flight *inFlight

	mu     sync.Mutex
	orders []Order
	err    string

	Now func() time.Time
}

func NewTracker(api CustomerAPI) *Tracker {
	return &Tracker{api: api, flight: newInFlight(), Now: time.Now}
}

// Refresh reloads the customer's orders. No orders is an empty list.
func (t *Tracker) Refresh(ctx context.Context) error {
	list, err := t.api.MyOrders(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.err = client.UserMessage(err)
		return err
	}
	t.err = ""
	t.orders = t.orders[:0]
	for _, r := range list {
		t.orders = append(t.orders, fromResp(r))
	}
	return nil
}

// CanCancel reports whether the cancel button is shown for id right now.
func (t *Tracker) CanCancel(id string) bool {
	o, ok := t.find(id)
	if !ok || t.flight.has(id) {
		return false
	}
	return orderstatus.CanCancel(o.Status, o.PaymentStatus, o.CreatedAt, t.Now())
}

// Cancel asks the server to cancel id and adopts its status on success.
func (t *Tracker) Cancel(ctx context.Context, id string) error {
	o, ok := t.find(id)
	if !ok {
		return fmt.Errorf("order %s is not in the list", id)
	}
	if !orderstatus.CanCancel(o.Status, o.PaymentStatus, o.CreatedAt, t.Now()) {
		return fmt.Errorf("order %s can no longer be cancelled", id)
	}
	if !t.flight.begin(id) {
		return ErrUpdateInFlight
	}
	defer t.flight.end(id)

	resp, err := t.api.Cancel(ctx, id)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.err = client.UserMessage(err)
		return err
	}
	t.err = ""
	for i := range t.orders {
		if t.orders[i].ID == id {
			t.orders[i].Status = resp.Status
		}
	}
	return nil
}

// Rows returns the orders with views derived now.
func (t *Tracker) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.Now()
	out := make([]Row, 0, len(t.orders))
	for _, o := range t.orders {
		out = append(out, Row{Order: o, View: orderstatus.Derive(o.Status, o.PaymentStatus, o.CreatedAt, now, false)})
	}
	return out
}

func (t *Tracker) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Tracker) find(id string) (Order, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range t.orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}
