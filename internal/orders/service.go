package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// Store is the persistence the service needs. *Repo satisfies it.
type Store interface {
	CreateOrderTx(ctx context.Context, externalID, userID string, items []ItemInput) (string, int, bool, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]Order, error)
	// TransitionStatus and SetPaymentStatus return the row's new updated_at.
	TransitionStatus(ctx context.Context, orderID, from, to string, restock bool) (time.Time, error)
	SetPaymentStatus(ctx context.Context, orderID, paymentStatus string) (time.Time, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// Publisher sends an event envelope to a topic.
type Publisher interface {
	Publish(topic string, key []byte, v any, eventType string) error
}

// Cache holds raw order rows. Derived views are never cached.
type Cache interface {
	GetOrder(ctx context.Context, orderID string) (Order, bool)
	// SetOrder stores o unless the cache has seen a newer version of it.
	SetOrder(ctx context.Context, o Order)
	// Invalidate drops the cached row and records version as the newest
	// updated_at, so a reader holding an older row cannot put it back.
	Invalidate(ctx context.Context, orderID string, version time.Time)
}

type noCache struct{}

func (noCache) GetOrder(context.Context, string) (Order, bool) { return Order{}, false }
func (noCache) SetOrder(context.Context, Order)                {}
func (noCache) Invalidate(context.Context, string, time.Time)  {}

// Service owns every mutation of an order's status.
type Service struct {
	store  Store
	guard  Guard
	events Publisher
	cache  Cache
	log    *zap.Logger
	name   string

	// Now is the clock used for the cancel window.
	Now func() time.Time
}

// NewService wires a Service. events and cache may be nil.
func NewService(store Store, guard Guard, events Publisher, cache Cache, log *zap.Logger, name string) *Service {
	if cache == nil {
		cache = noCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		guard:  guard,
		events: events,
		cache:  cache,
		log:    log,
		name:   name,
		Now:    time.Now,
	}
}

// Checkout places a pending order for userID.
func (s *Service) Checkout(ctx context.Context, externalID, userID string, items []ItemInput, traceID string) (orderID string, total int, existed bool, err error) {
	if strings.TrimSpace(externalID) == "" || strings.TrimSpace(userID) == "" || len(items) == 0 {
		return "", 0, false, &ValidationError{Message: "missing fields"}
	}
	orderID, total, existed, err = s.store.CreateOrderTx(ctx, externalID, userID, items)
	if err != nil {
		return "", 0, false, fmt.Errorf("create order: %w", err)
	}
	if existed {
		o, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return "", 0, false, fmt.Errorf("load replayed order: %w", err)
		}
		if o.UserID != userID {
			return "", 0, false, ErrExternalIDTaken
		}
		s.log.Info("checkout replayed", zap.String("order_id", orderID), zap.String("external_id", externalID))
		return orderID, total, true, nil
	}

	payload := OrderPlacedPayload{OrderID: orderID, ExternalID: externalID, UserID: userID, TotalCents: total}
	if o, err := s.store.GetOrder(ctx, orderID); err == nil {
		for _, it := range o.Items {
			payload.Items = append(payload.Items, ItemPrice{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
		}
	} else {
		s.log.Warn("reload placed order", zap.String("order_id", orderID), zap.Error(err))
	}
	s.publish(TopicOrderPlaced, orderID, EventOrderPlaced, payload, traceID)
	s.log.Info("order placed", zap.String("order_id", orderID), zap.Int("total_cents", total))
	return orderID, total, false, nil
}

// Order loads an order, preferring the raw-row cache.
func (s *Service) Order(ctx context.Context, orderID string) (Order, error) {
	if o, ok := s.cache.GetOrder(ctx, orderID); ok {
		return o, nil
	}
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	s.cache.SetOrder(ctx, o)
	return o, nil
}

// OrderFor loads an order that must belong to userID.
func (s *Service) OrderFor(ctx context.Context, orderID, userID string) (Order, error) {
	o, err := s.Order(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotOwner
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, error) {
	return s.store.ListOrders(ctx, f)
}

func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.store.ListProducts(ctx)
}

// Updating reports whether an admin update for orderID is in flight.
func (s *Service) Updating(ctx context.Context, orderID string) bool {
	busy, err := s.guard.Updating(ctx, orderID)
	if err != nil {
		s.log.Warn("check update lock", zap.String("order_id", orderID), zap.Error(err))
		return false
	}
	return busy
}

func (s *Service) withLock(ctx context.Context, orderID string, fn func() error) error {
	token, ok, err := s.guard.Acquire(ctx, orderID)
	if err != nil {
		return fmt.Errorf("acquire update lock: %w", err)
	}
	if !ok {
		return ErrUpdateInFlight
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), orderID, token); err != nil {
			s.log.Warn("release update lock", zap.String("order_id", orderID), zap.Error(err))
		}
	}()
	return fn()
}

// UpdateStatus applies an admin action. The stored status becomes the
// action token; rejecting or returning an order puts its items back in stock.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, action orderstatus.Action, traceID string) (Order, error) {
	var updated Order
	err := s.withLock(ctx, orderID, func() error {
		o, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		state := o.State()
		if !orderstatus.CanApply(state, action) {
			return &TransitionError{OrderID: orderID, From: state, Action: action}
		}
		restock := action == orderstatus.ActionReject || action == orderstatus.ActionRTO
		version, err := s.store.TransitionStatus(ctx, orderID, o.Status, string(action), restock)
		if err != nil {
			return err
		}
		prev := o.Status
		o.Status = string(action)
		o.UpdatedAt = version
		updated = o

		s.cache.Invalidate(ctx, orderID, version)
		s.publishStatus(o, prev, EventOrderStatusChanged, "admin", traceID)
		s.log.Info("order status updated",
			zap.String("order_id", orderID),
			zap.String("from", prev),
			zap.String("to", o.Status),
			zap.String("state", string(o.State())),
		)
		return nil
	})
	return updated, err
}

// Cancel is the customer cancel: only the owner, only inside the cancel
// window, only from a non-terminal state.
func (s *Service) Cancel(ctx context.Context, orderID, userID, traceID string) (Order, error) {
	var updated Order
	err := s.withLock(ctx, orderID, func() error {
		o, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrNotOwner
		}
		now := s.Now()
		if now.Sub(o.CreatedAt) >= orderstatus.CancelWindow {
			return &CancelError{OrderID: orderID, Reason: "the cancellation window has passed"}
		}
		if state := o.State(); !state.Cancellable() {
			return &CancelError{OrderID: orderID, Reason: "order is " + orderstatus.Present(state).Label}
		}
		version, err := s.store.TransitionStatus(ctx, orderID, o.Status, StatusCancelled, true)
		if err != nil {
			return err
		}
		prev := o.Status
		o.Status = StatusCancelled
		o.UpdatedAt = version
		updated = o

		s.cache.Invalidate(ctx, orderID, version)
		s.publishStatus(o, prev, EventOrderCancelled, "customer", traceID)
		s.log.Info("order cancelled", zap.String("order_id", orderID), zap.String("from", prev))
		return nil
	})
	return updated, err
}

// RecordPayment stores the payment gateway verdict for an order.
func (s *Service) RecordPayment(ctx context.Context, orderID, paymentStatus, traceID string) (Order, error) {
	ps := strings.ToLower(strings.TrimSpace(paymentStatus))
	if !orderstatus.IsPaid(ps) && !orderstatus.IsPaymentFailed(ps) {
		return Order{}, &ValidationError{Message: fmt.Sprintf("invalid payment status %q", paymentStatus)}
	}
	version, err := s.store.SetPaymentStatus(ctx, orderID, ps)
	if err != nil {
		return Order{}, err
	}
	s.cache.Invalidate(ctx, orderID, version)

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	s.publishStatus(o, o.Status, EventPaymentRecorded, "payment", traceID)
	s.log.Info("payment recorded", zap.String("order_id", orderID), zap.String("payment_status", ps))
	return o, nil
}

func (s *Service) publishStatus(o Order, prev, eventType, actor, traceID string) {
	s.publish(TopicOrderStatus, o.ID, eventType, StatusChangedPayload{
		OrderID:        o.ID,
		UserID:         o.UserID,
		PreviousStatus: prev,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		Actor:          actor,
	}, traceID)
}

func (s *Service) publish(topic, orderID, eventType string, payload any, traceID string) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("encode event payload", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.Now().UTC(),
		Producer:      s.name,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       body,
	}
	if err := s.events.Publish(topic, PartitionKey(orderID), ev, eventType); err != nil {
		s.log.Error("publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}
