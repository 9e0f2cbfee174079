package orders

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

func collect() (func(any) string, *[]any) {
	var args []any
	return func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}, &args
}

func TestStateMatchAgreesWithNormalize(t *testing.T) {
	statuses := []string{"pending", " Pending ", "confirm", "CONFIRMED", "ongoing", "out_for_delivery",
		"delivered", "rto", "reject", "rejected", "cancelled", "canceled", "payment failed", "on_hold"}
	payments := []string{"", "paid", "SUCCESS", "failed", "refunded"}
	states := []string{"pending", "confirmed", "ongoing", "delivered", "rto", "rejected",
		"cancelled", "payment_failed", "on_hold"}

	for _, filter := range states {
		m := matchState(filter)
		for _, st := range statuses {
			for _, ps := range payments {
				want := orderstatus.Normalize(st, ps) == orderstatus.Canonical(filter)
				assert.Equal(t, want, m.matches(st, ps), "filter=%s status=%q payment=%q", filter, st, ps)
			}
		}
	}
}

func TestStateMatchSQL(t *testing.T) {
	cases := []struct {
		state string
		sql   string
		args  []any
	}{
		{
			state: "confirmed",
			sql:   "(" + colPayment + " <> $1 AND (" + colStatus + " = ANY($2) OR (" + colStatus + " = ANY($3) AND " + colPayment + " = ANY($4))))",
			args:  []any{"failed", []string{"confirm", "confirmed"}, []string{"pending"}, []string{"paid", "success"}},
		},
		{
			state: "payment_failed",
			sql:   "(" + colPayment + " = $1 OR " + colStatus + " = ANY($2) OR (" + colStatus + " = ANY($3) AND NOT " + colPayment + " = ANY($4)))",
			args:  []any{"failed", []string{"payment failed", "payment-failed", "payment_failed"}, []string{"pending"}, []string{"paid", "success"}},
		},
		{
			state: "Rejected",
			sql:   "(" + colPayment + " <> $1 AND " + colStatus + " = ANY($2))",
			args:  []any{"failed", []string{"reject", "rejected"}},
		},
		{state: "pending", sql: "FALSE"},
	}
	for _, tc := range cases {
		t.Run(tc.state, func(t *testing.T) {
			arg, args := collect()
			assert.Equal(t, tc.sql, matchState(tc.state).sql(arg))
			assert.Equal(t, tc.args, *args)
		})
	}
}

func TestStatesClauseOrsStates(t *testing.T) {
	arg, args := collect()
	got := statesClause([]string{"rto", "delivered"}, arg)
	assert.Equal(t, "(("+colPayment+" <> $1 AND "+colStatus+" = ANY($2)) OR ("+colPayment+" <> $3 AND "+colStatus+" = ANY($4)))", got)
	assert.Len(t, *args, 4)
}
