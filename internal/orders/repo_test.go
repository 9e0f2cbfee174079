package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &Repo{DB: mock}, mock
}

func sqlLike(s string) string { return regexp.QuoteMeta(s) }

func ptr[T any](v T) *T { return &v }

const (
	qByExternalID = "SELECT id::text, user_id, total_cents FROM orders WHERE external_id=$1"
	qCAS          = "UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2 RETURNING updated_at"
	qExists       = "SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)"
	qRestock      = "UPDATE products p"
	qPrices       = "SELECT id::text, price_cents FROM products WHERE id IN"
	qLockStock    = "SELECT stock FROM products WHERE id=$1 FOR UPDATE"
	qTakeStock    = "UPDATE products SET stock = stock - $2"
)

func TestRepoTransitionStatus(t *testing.T) {
	at := time.Date(2026, 4, 2, 15, 0, 1, 0, time.UTC)

	t.Run("status matches", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(qCAS)).WithArgs("o1", "pending", "reject").
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(at))
		mock.ExpectExec(sqlLike(qRestock)).WithArgs("o1").WillReturnResult(pgxmock.NewResult("UPDATE", 2))
		mock.ExpectCommit()

		got, err := repo.TransitionStatus(context.Background(), "o1", "pending", "reject", true)
		require.NoError(t, err)
		assert.Equal(t, at, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no restock", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(qCAS)).WithArgs("o1", "confirm", "ongoing").
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(at))
		mock.ExpectCommit()

		_, err := repo.TransitionStatus(context.Background(), "o1", "confirm", "ongoing", false)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored status moved on", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(qCAS)).WithArgs("o1", "pending", "reject").WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(sqlLike(qExists)).WithArgs("o1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.TransitionStatus(context.Background(), "o1", "pending", "reject", true)
		require.ErrorIs(t, err, ErrStaleStatus)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(qCAS)).WithArgs("nope", "pending", "reject").WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(sqlLike(qExists)).WithArgs("nope").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.TransitionStatus(context.Background(), "nope", "pending", "reject", true)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "nope", nf.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepoSetPaymentStatus(t *testing.T) {
	at := time.Date(2026, 4, 2, 15, 0, 2, 0, time.UTC)
	repo, mock := newMockRepo(t)
	q := sqlLike("UPDATE orders SET payment_status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at")
	mock.ExpectQuery(q).WithArgs("o1", "paid").WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(at))
	mock.ExpectQuery(q).WithArgs("nope", "paid").WillReturnError(pgx.ErrNoRows)

	got, err := repo.SetPaymentStatus(context.Background(), "o1", "paid")
	require.NoError(t, err)
	assert.Equal(t, at, got)

	_, err = repo.SetPaymentStatus(context.Background(), "nope", "paid")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoCreateOrderOutOfStockRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	items := []ItemInput{{ProductID: "pb", Qty: 3}, {ProductID: "pa", Qty: 1}}

	mock.ExpectQuery(sqlLike(qByExternalID)).WithArgs("ext-1").WillReturnError(pgx.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike(qPrices)).WithArgs("pb", "pa").
		WillReturnRows(pgxmock.NewRows([]string{"id", "price_cents"}).AddRow("pa", 1000).AddRow("pb", 250))
	// rows are locked in product id order
	mock.ExpectQuery(sqlLike(qLockStock)).WithArgs("pa").WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(5))
	mock.ExpectExec(sqlLike(qTakeStock)).WithArgs("pa", 1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(sqlLike(qLockStock)).WithArgs("pb").WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(1))
	mock.ExpectRollback()

	_, _, _, err := repo.CreateOrderTx(context.Background(), "ext-1", "u1", items)
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, OutOfStockError{ProductID: "pb", Required: 3, Available: 1}, *oos)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoCreateOrder(t *testing.T) {
	repo, mock := newMockRepo(t)
	items := []ItemInput{{ProductID: "pa", Qty: 2}}

	mock.ExpectQuery(sqlLike(qByExternalID)).WithArgs("ext-1").WillReturnError(pgx.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike(qPrices)).WithArgs("pa").
		WillReturnRows(pgxmock.NewRows([]string{"id", "price_cents"}).AddRow("pa", 1250))
	mock.ExpectQuery(sqlLike(qLockStock)).WithArgs("pa").WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectExec(sqlLike(qTakeStock)).WithArgs("pa", 2).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(sqlLike("INSERT INTO orders")).
		WithArgs(pgxmock.AnyArg(), "ext-1", "u1", StatusPending, 2500).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(sqlLike("INSERT INTO order_items")).
		WithArgs(pgxmock.AnyArg(), "pa", 2, 1250).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	id, total, existed, err := repo.CreateOrderTx(context.Background(), "ext-1", "u1", items)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 2500, total)
	assert.False(t, existed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoCreateOrderReplay(t *testing.T) {
	t.Run("same customer", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(sqlLike(qByExternalID)).WithArgs("ext-1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "total_cents"}).AddRow("ord-1", "alice", 500))

		id, total, existed, err := repo.CreateOrderTx(context.Background(), "ext-1", "alice", []ItemInput{{ProductID: "pa", Qty: 1}})
		require.NoError(t, err)
		assert.Equal(t, "ord-1", id)
		assert.Equal(t, 500, total)
		assert.True(t, existed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another customer", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(sqlLike(qByExternalID)).WithArgs("ext-1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "total_cents"}).AddRow("ord-1", "alice", 500))

		id, _, existed, err := repo.CreateOrderTx(context.Background(), "ext-1", "bob", []ItemInput{{ProductID: "pa", Qty: 1}})
		require.ErrorIs(t, err, ErrExternalIDTaken)
		assert.Empty(t, id)
		assert.False(t, existed)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepoGetOrderGroupsItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)
	cols := []string{"id", "external_id", "user_id", "status", "payment_status", "total_cents", "created_at", "updated_at",
		"item_id", "product_id", "qty", "price_cents", "sku", "name"}
	mock.ExpectQuery(sqlLike("FROM orders WHERE id = $1")).WithArgs("o1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("o1", "ext-1", "u1", "pending", ptr("paid"), 3500, created, created,
				ptr("i1"), ptr("pa"), ptr(1), ptr(1000), ptr("SKU-A"), ptr("Mug")).
			AddRow("o1", "ext-1", "u1", "pending", ptr("paid"), 3500, created, created,
				ptr("i2"), ptr("pb"), ptr(1), ptr(2500), (*string)(nil), (*string)(nil)))
	mock.ExpectQuery(sqlLike("FROM orders WHERE id = $1")).WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(cols))

	o, err := repo.GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "paid", o.PaymentStatus)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Mug", o.Items[0].Product.Name)
	assert.Nil(t, o.Items[1].Product)
	assert.Equal(t, 2500, o.Items[1].PriceCents)

	_, err = repo.GetOrder(context.Background(), "nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoListOrdersFiltersByDerivedState(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"id", "external_id", "user_id", "status", "payment_status", "total_cents", "created_at", "updated_at",
		"item_id", "product_id", "qty", "price_cents", "sku", "name"}
	mock.ExpectQuery(sqlLike("WHERE user_id = $1 AND ("+colPayment+" <> $2")).
		WithArgs("u1", "failed", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), MaxListLimit, 0).
		WillReturnRows(pgxmock.NewRows(cols))

	out, err := repo.ListOrders(context.Background(), ListFilter{UserID: "u1", States: []string{"confirmed"}, Limit: 1000})
	require.NoError(t, err)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
