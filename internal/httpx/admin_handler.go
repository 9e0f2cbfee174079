package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// AdminHandler serves the order management screens.
type AdminHandler struct {
	Orders  OrderService
	KeyHash string
	Log     *zap.Logger
	Now     func() time.Time
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

type RecordPaymentReq struct {
	PaymentStatus string `json:"payment_status"`
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminOnly(h.KeyHash))
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Patch("/orders/{id}/status", h.updateStatus)
		r.Post("/orders/{id}/payment", h.recordPayment)
	})
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// listFilter parses ?status=a,b&limit=&offset=.
func listFilter(w http.ResponseWriter, r *http.Request) (orders.ListFilter, bool) {
	q := r.URL.Query()
	var f orders.ListFilter
	for _, s := range strings.Split(q.Get("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.States = append(f.States, s)
		}
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
			return orders.ListFilter{}, false
		}
		*dst = n
	}
	return f.Normalized(), true
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	f, ok := listFilter(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Orders.List(ctx, f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	now := h.now()
	out := make([]OrderResp, 0, len(list))
	for _, o := range list {
		out = append(out, orderResp(o, now, h.Orders.Updating(ctx, o.ID)))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Order(ctx, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp(o, h.now(), h.Orders.Updating(ctx, id)))
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}
	action, err := orderstatus.ParseAction(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, id, action, middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp(o, h.now(), false))
}

func (h *AdminHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req RecordPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.RecordPayment(ctx, id, req.PaymentStatus, middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp(o, h.now(), h.Orders.Updating(ctx, id)))
}
