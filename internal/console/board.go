// Package console holds the client-side action surfaces: the admin order board
// and the customer order tracker. Both keep raw order fields and derive every
// label, button and progress bar from them on read.
package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/client"
	"github.com/ariefcatur/storefront-orders/internal/httpx"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// AdminAPI is the slice of *client.Client the board uses.
type AdminAPI interface {
	AdminOrders(ctx context.Context, opts client.ListOptions) ([]httpx.OrderResp, error)
	UpdateStatus(ctx context.Context, id string, action orderstatus.Action) (httpx.OrderResp, error)
}

// Order is the local copy of an order: raw fields only.
type Order struct {
	ID            string
	UserID        string
	Status        string
	PaymentStatus string
	Total         string
	CreatedAt     time.Time
}

func fromResp(r httpx.OrderResp) Order {
	o := Order{ID: r.OrderID, UserID: r.UserID, Status: r.Status, Total: r.Total, CreatedAt: r.CreatedAt}
	if r.PaymentStatus != nil {
		o.PaymentStatus = *r.PaymentStatus
	}
	return o
}

// Row is an order with its view derived at render time.
type Row struct {
	Order
	View orderstatus.View
}

// Board is the admin order list.
type Board struct {
	api    AdminAPI
	opts   client.ListOptions
	flight *inFlight

	mu     sync.Mutex
	orders map[string]Order
	order  []string
	err    string

	Now func() time.Time
}

func NewBoard(api AdminAPI, opts client.ListOptions) *Board {
	return &Board{
		api:    api,
		opts:   opts,
		flight: newInFlight(),
		orders: make(map[string]Order),
		Now:    time.Now,
	}
}

// Refresh reloads the list. On failure the previous list stays and Err is set.
func (b *Board) Refresh(ctx context.Context) error {
	list, err := b.api.AdminOrders(ctx, b.opts)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.err = client.UserMessage(err)
		return err
	}
	b.err = ""
	b.orders = make(map[string]Order, len(list))
	b.order = b.order[:0]
	for _, r := range list {
		b.orders[r.OrderID] = fromResp(r)
		b.order = append(b.order, r.OrderID)
	}
	return nil
}

// Apply runs an admin action. The local status changes only after the server
// accepts it; a second Apply for the same order while one is outstanding
// fails with ErrUpdateInFlight and sends nothing.
func (b *Board) Apply(ctx context.Context, id string, action orderstatus.Action) error {
	b.mu.Lock()
	o, ok := b.orders[id]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("order %s is not on the board", id)
	}
	if !orderstatus.CanApply(orderstatus.Normalize(o.Status, o.PaymentStatus), action) {
		return fmt.Errorf("action %s is not available for order %s", action, id)
	}
	if !b.flight.begin(id) {
		return ErrUpdateInFlight
	}
	defer b.flight.end(id)

	resp, err := b.api.UpdateStatus(ctx, id, action)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.err = client.UserMessage(err)
		return err
	}
	b.err = ""
	if cur, ok := b.orders[id]; ok {
		cur.Status = resp.Status
		if resp.PaymentStatus != nil {
			cur.PaymentStatus = *resp.PaymentStatus
		}
		b.orders[id] = cur
	}
	return nil
}

// Updating reports whether an action for id is outstanding.
func (b *Board) Updating(id string) bool { return b.flight.has(id) }

// Buttons lists the admin actions for id, all disabled while it is updating.
func (b *Board) Buttons(id string) []orderstatus.ActionState {
	b.mu.Lock()
	o, ok := b.orders[id]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return orderstatus.Actions(orderstatus.Normalize(o.Status, o.PaymentStatus), b.flight.has(id))
}

// Rows returns the board in server order with views derived now.
func (b *Board) Rows() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.Now()
	out := make([]Row, 0, len(b.order))
	for _, id := range b.order {
		o := b.orders[id]
		out = append(out, Row{Order: o, View: orderstatus.Derive(o.Status, o.PaymentStatus, o.CreatedAt, now, b.flight.has(id))})
	}
	return out
}

// Counts tallies the board by effective state.
func (b *Board) Counts() map[orderstatus.State]int {
	out := map[orderstatus.State]int{}
	for _, r := range b.Rows() {
		out[r.View.State]++
	}
	return out
}

// States returns the effective states present on the board, sorted.
func (b *Board) States() []orderstatus.State {
	counts := b.Counts()
	out := make([]orderstatus.State, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Err is the message from the last failed action, or "".
func (b *Board) Err() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// IsInFlight reports whether err is the local in-flight refusal.
func IsInFlight(err error) bool { return errors.Is(err, ErrUpdateInFlight) }
