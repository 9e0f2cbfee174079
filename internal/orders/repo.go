package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB DB }

const uniqueViolation = "23505"

// selectPage expands a CTE named page into order rows joined with their items.
const selectPage = `
	SELECT p.id::text, p.external_id, p.user_id, p.status, p.payment_status, p.total_cents,
	       p.created_at, p.updated_at,
	       oi.id::text, oi.product_id::text, oi.qty, oi.price_cents, pr.sku, pr.name
	FROM page p
	LEFT JOIN order_items oi ON oi.order_id = p.id
	LEFT JOIN products pr ON pr.id = oi.product_id
	ORDER BY p.created_at DESC, p.id, oi.id`

func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

// CreateOrderTx places a pending order. Idempotent via external_id: when the
// key already exists for userID the stored order_id and total are returned
// with existed=true; a key owned by another user fails with
// ErrExternalIDTaken. Prices come from the products table, never from the client.
func (r *Repo) CreateOrderTx(ctx context.Context, externalID, userID string, items []ItemInput) (orderID string, total int, existed bool, err error) {
	orderID, total, err = r.findByExternalID(ctx, externalID, userID)
	if err == nil {
		return orderID, total, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	if len(items) == 0 {
		return "", 0, false, &ValidationError{Message: "order has no items"}
	}
	for _, it := range items {
		if it.Qty <= 0 {
			return "", 0, false, &ValidationError{Message: fmt.Sprintf("invalid qty for product %s", it.ProductID)}
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	productIDs := make([]any, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	rows, err := tx.Query(ctx, `SELECT id::text, price_cents FROM products WHERE id IN (`+placeholders(1, len(productIDs))+`)`, productIDs...)
	if err != nil {
		return "", 0, false, err
	}
	prices := map[string]int{}
	for rows.Next() {
		var id string
		var price int
		if err := rows.Scan(&id, &price); err != nil {
			rows.Close()
			return "", 0, false, err
		}
		prices[id] = price
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}

	total = 0
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			return "", 0, false, &NotFoundError{Resource: "product", ID: it.ProductID}
		}
		total += price * it.Qty
	}

	if err := reserveStock(ctx, tx, items); err != nil {
		return "", 0, false, err
	}

	orderID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, user_id, status, total_cents)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, externalID, userID, StatusPending, total)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			_ = tx.Rollback(ctx)
			orderID, total, err = r.findByExternalID(ctx, externalID, userID)
			return orderID, total, err == nil, err
		}
		return "", 0, false, err
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price_cents)
			VALUES ($1, $2, $3, $4)`,
			orderID, it.ProductID, it.Qty, prices[it.ProductID],
		)
		if err != nil {
			return "", 0, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, false, err
	}
	return orderID, total, false, nil
}

func (r *Repo) findByExternalID(ctx context.Context, externalID, userID string) (string, int, error) {
	var id, owner string
	var total int
	err := r.DB.QueryRow(ctx, `SELECT id::text, user_id, total_cents FROM orders WHERE external_id=$1`, externalID).Scan(&id, &owner, &total)
	if err != nil {
		return "", 0, err
	}
	if owner != userID {
		return "", 0, ErrExternalIDTaken
	}
	return id, total, nil
}

// GetOrder loads one order with its items.
func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	q := `WITH page AS (
		SELECT id, external_id, user_id, status, payment_status, total_cents, created_at, updated_at
		FROM orders WHERE id = $1
	)` + selectPage
	out, err := r.queryOrders(ctx, q, orderID)
	if err != nil {
		return Order{}, err
	}
	if len(out) == 0 {
		return Order{}, &NotFoundError{Resource: "order", ID: orderID}
	}
	return out[0], nil
}

// ListOrders returns a page of orders, newest first.
func (r *Repo) ListOrders(ctx context.Context, f ListFilter) ([]Order, error) {
	f = f.Normalized()

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != "" {
		where = append(where, "user_id = "+arg(f.UserID))
	}
	if len(f.States) > 0 {
		where = append(where, statesClause(f.States, arg))
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)

	q := fmt.Sprintf(`WITH page AS (
		SELECT id, external_id, user_id, status, payment_status, total_cents, created_at, updated_at
		FROM orders %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	)`, clause, len(args)-1, len(args)) + selectPage
	return r.queryOrders(ctx, q, args...)
}

func (r *Repo) queryOrders(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	index := map[string]int{}
	for rows.Next() {
		var o Order
		var payment *string
		var itemID, productID, sku, name *string
		var qty, price *int
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.UserID, &o.Status, &payment, &o.TotalCents,
			&o.CreatedAt, &o.UpdatedAt, &itemID, &productID, &qty, &price, &sku, &name); err != nil {
			return nil, err
		}
		i, ok := index[o.ID]
		if !ok {
			if payment != nil {
				o.PaymentStatus = *payment
			}
			out = append(out, o)
			i = len(out) - 1
			index[o.ID] = i
		}
		if itemID == nil {
			continue
		}
		it := OrderItem{ID: *itemID, OrderID: o.ID, ProductID: *productID, Qty: *qty, PriceCents: *price}
		if sku != nil && name != nil {
			it.Product = &Product{ID: *productID, SKU: *sku, Name: *name}
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out, rows.Err()
}

// TransitionStatus moves an order from one raw status to another with a
// compare-and-set on the current value and returns the new updated_at. It
// returns ErrStaleStatus when the stored status no longer equals from.
// restock returns the order's items to stock in the same transaction.
func (r *Repo) TransitionStatus(ctx context.Context, orderID, from, to string, restock bool) (time.Time, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var updatedAt time.Time
	err = tx.QueryRow(ctx, `UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2 RETURNING updated_at`,
		orderID, from, to).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
			return time.Time{}, err
		}
		if !exists {
			return time.Time{}, &NotFoundError{Resource: "order", ID: orderID}
		}
		return time.Time{}, ErrStaleStatus
	}
	if err != nil {
		return time.Time{}, err
	}
	if restock {
		if err := restockOrder(ctx, tx, orderID); err != nil {
			return time.Time{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, err
	}
	return updatedAt, nil
}

// SetPaymentStatus records the payment gateway's verdict.
func (r *Repo) SetPaymentStatus(ctx context.Context, orderID, paymentStatus string) (time.Time, error) {
	var updatedAt time.Time
	err := r.DB.QueryRow(ctx, `UPDATE orders SET payment_status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		orderID, paymentStatus).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, &NotFoundError{Resource: "order", ID: orderID}
	}
	return updatedAt, err
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id::text, sku, name, stock, price_cents, created_at, updated_at
                                FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
