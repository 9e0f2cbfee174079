package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// OrderService is what the handlers need from *orders.Service.
type OrderService interface {
	Checkout(ctx context.Context, externalID, userID string, items []orders.ItemInput, traceID string) (string, int, bool, error)
	Order(ctx context.Context, orderID string) (orders.Order, error)
	OrderFor(ctx context.Context, orderID, userID string) (orders.Order, error)
	List(ctx context.Context, f orders.ListFilter) ([]orders.Order, error)
	Products(ctx context.Context) ([]orders.Product, error)
	Updating(ctx context.Context, orderID string) bool
	UpdateStatus(ctx context.Context, orderID string, action orderstatus.Action, traceID string) (orders.Order, error)
	Cancel(ctx context.Context, orderID, userID, traceID string) (orders.Order, error)
	RecordPayment(ctx context.Context, orderID, paymentStatus, traceID string) (orders.Order, error)
}

// CheckoutKeys is the redis shortcut for replayed checkouts.
type CheckoutKeys interface {
	Lookup(ctx context.Context, externalID string) (string, bool)
	Remember(ctx context.Context, externalID, orderID string) error
}

type OrdersHandler struct {
	Orders OrderService
	Keys   CheckoutKeys // optional
	Log    *zap.Logger
	Now    func() time.Time
}

type CreateOrderReq struct {
	ExternalID string             `json:"external_id"`
	Items      []orders.ItemInput `json:"items"`
}

type CreateOrderResp struct {
	OrderID    string `json:"order_id"`
	TotalCents int    `json:"total_cents"`
	Total      string `json:"total"`
	Idempotent bool   `json:"idempotent"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Group(func(r chi.Router) {
		r.Use(RequireCustomer)
		r.Post("/orders", h.createOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
		r.Get("/me/orders", h.myOrders)
	})
}

func (h *OrdersHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// orderID reads and validates the {id} URL param. Malformed ids cannot exist,
// so they answer 404 like any other unknown order.
func orderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "order not found"})
		return "", false
	}
	return id, true
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Orders.Products(ctx)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]ProductResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, productResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing fields"})
		return
	}
	for _, it := range req.Items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product_id " + it.ProductID})
			return
		}
	}
	uid := userID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast path; the database stays the source of truth.
	if h.Keys != nil {
		if id, ok := h.Keys.Lookup(ctx, req.ExternalID); ok {
			if o, err := h.Orders.OrderFor(ctx, id, uid); err == nil {
				writeJSON(w, http.StatusOK, CreateOrderResp{
					OrderID: o.ID, TotalCents: o.TotalCents, Total: orders.FormatCents(o.TotalCents), Idempotent: true,
				})
				return
			}
		}
	}

	id, total, existed, err := h.Orders.Checkout(ctx, req.ExternalID, uid, req.Items, middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if h.Keys != nil {
		if err := h.Keys.Remember(ctx, req.ExternalID, id); err != nil {
			h.Log.Warn("remember checkout key", zap.String("external_id", req.ExternalID), zap.Error(err))
		}
	}

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, CreateOrderResp{OrderID: id, TotalCents: total, Total: orders.FormatCents(total), Idempotent: existed})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.OrderFor(ctx, id, userID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp(o, h.now(), false))
}

// myOrders answers 404 when the customer has no orders at all.
func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	f, ok := listFilter(w, r)
	if !ok {
		return
	}
	f.UserID = userID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.List(ctx, f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if len(list) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no orders found"})
		return
	}
	now := h.now()
	out := make([]OrderResp, 0, len(list))
	for _, o := range list {
		out = append(out, orderResp(o, now, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Cancel(ctx, id, userID(r.Context()), middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp(o, h.now(), false))
}
