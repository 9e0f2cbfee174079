package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
)

// reserveStock locks each product row (FOR UPDATE) and takes the requested
// quantity. Rows are locked in product id order so concurrent checkouts cannot
// deadlock. Any shortage aborts with OutOfStockError and the caller's
// transaction rolls back.
func reserveStock(ctx context.Context, tx pgx.Tx, items []ItemInput) error {
	sorted := make([]ItemInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, it := range sorted {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Resource: "product", ID: it.ProductID}
		}
		if err != nil {
			return err
		}
		if stock < it.Qty {
			return &OutOfStockError{ProductID: it.ProductID, Required: it.Qty, Available: stock}
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`, it.ProductID, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

// restockOrder returns every item of an order to stock.
func restockOrder(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE products p
		SET stock = p.stock + s.qty, updated_at = now()
		FROM (
			SELECT product_id, SUM(qty) AS qty
			FROM order_items WHERE order_id = $1
			GROUP BY product_id
		) s
		WHERE p.id = s.product_id`, orderID)
	return err
}
