// Package notify turns order status events into customer notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// Notification is what the customer receives.
type Notification struct {
	UserID  string
	OrderID string
	State   orderstatus.State
	Badge   orderstatus.Presentation
	Title   string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Deduper tracks which events were already delivered.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Dedup  Deduper
	Sender Sender
	Log    *zap.Logger
}

// HandleStatusEvent is the consumer handler for the order status topic. An
// event is marked only after its notification was sent. A returned error makes
// the consumer retry this message before its partition moves on.
func (s *Service) HandleStatusEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message; skip it
		s.Log.Error("decode envelope", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	switch env.EventType {
	case orders.EventOrderStatusChanged, orders.EventOrderCancelled, orders.EventPaymentRecorded:
	default:
		return nil
	}

	seen, err := s.Dedup.Seen(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
	if err != nil {
		s.Log.Error("decode status payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	if n, ok := Render(env.EventType, p); ok {
		if err := s.Sender.Send(ctx, n); err != nil {
			return fmt.Errorf("send notification for order %s: %w", p.OrderID, err)
		}
	}
	if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
		s.Log.Warn("dedup mark", zap.String("event_id", env.EventID), zap.Error(err))
	}
	return nil
}

// Render builds the customer notification for a status event. It reports
// false when the customer-visible state did not change.
func Render(eventType string, p orders.StatusChangedPayload) (Notification, bool) {
	state := orderstatus.Normalize(p.Status, p.PaymentStatus)
	if eventType == orders.EventOrderStatusChanged && orderstatus.Normalize(p.PreviousStatus, p.PaymentStatus) == state {
		return Notification{}, false
	}
	badge := orderstatus.Present(state)
	progress := orderstatus.Project(p.Status, p.PaymentStatus)

	n := Notification{
		UserID:  p.UserID,
		OrderID: p.OrderID,
		State:   state,
		Badge:   badge,
		Title:   fmt.Sprintf("Order %s: %s", shortID(p.OrderID), badge.Label),
	}
	switch state {
	case orderstatus.StateCancelled:
		n.Body = "Your order was cancelled. Any reserved items have been released."
	case orderstatus.StateRejected:
		n.Body = "We could not fulfil your order."
	case orderstatus.StatePaymentFailed:
		n.Body = "Your payment did not go through."
	case orderstatus.StateRTO:
		n.Body = "Your parcel is being returned to us."
	default:
		n.Body = fmt.Sprintf("Step %d of %d: %s.", progress.Current+1, len(progress.Steps), progress.CurrentStep().Label)
	}
	return n, true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// LogSender writes notifications to the log instead of a delivery channel.
type LogSender struct{ Log *zap.Logger }

func (s LogSender) Send(_ context.Context, n Notification) error {
	s.Log.Info("customer notification",
		zap.String("user_id", n.UserID),
		zap.String("order_id", n.OrderID),
		zap.String("state", string(n.State)),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}
