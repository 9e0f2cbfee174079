package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventPaymentRecorded    = "PaymentRecorded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	ExternalID string      `json:"external_id"`
	UserID     string      `json:"user_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int         `json:"total_cents"`
}

// StatusChangedPayload is shared by status, cancel and payment events. It
// carries raw column values only; consumers derive the effective state.
type StatusChangedPayload struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	PreviousStatus string `json:"previous_status,omitempty"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status,omitempty"`
	Actor          string `json:"actor"` // admin | customer | payment
}
