package httpx

import (
	"time"

	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

type ProductResp struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Stock      int    `json:"stock"`
	PriceCents int    `json:"price_cents"`
	Price      string `json:"price"`
}

type ItemResp struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name,omitempty"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
	Price      string `json:"price"`
}

// OrderResp is the raw order plus its derived view. The view is rebuilt on
// every response.
type OrderResp struct {
	OrderID       string           `json:"order_id"`
	ExternalID    string           `json:"external_id"`
	UserID        string           `json:"user_id"`
	Status        string           `json:"status"`
	PaymentStatus *string          `json:"payment_status"`
	TotalCents    int              `json:"total_cents"`
	Total         string           `json:"total"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Items         []ItemResp       `json:"items"`
	View          orderstatus.View `json:"view"`
}

func productResp(p orders.Product) ProductResp {
	return ProductResp{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		Stock:      p.Stock,
		PriceCents: p.PriceCents,
		Price:      orders.FormatCents(p.PriceCents),
	}
}

func orderResp(o orders.Order, now time.Time, updating bool) OrderResp {
	out := OrderResp{
		OrderID:    o.ID,
		ExternalID: o.ExternalID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalCents: o.TotalCents,
		Total:      orders.FormatCents(o.TotalCents),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		Items:      make([]ItemResp, 0, len(o.Items)),
		View:       o.View(now, updating),
	}
	if o.PaymentStatus != "" {
		ps := o.PaymentStatus
		out.PaymentStatus = &ps
	}
	for _, it := range o.Items {
		ir := ItemResp{
			ProductID:  it.ProductID,
			Qty:        it.Qty,
			PriceCents: it.PriceCents,
			Price:      orders.FormatCents(it.PriceCents),
		}
		if it.Product != nil {
			ir.SKU = it.Product.SKU
			ir.Name = it.Product.Name
		}
		out.Items = append(out.Items, ir)
	}
	return out
}
