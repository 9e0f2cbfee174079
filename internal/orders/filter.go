package orders

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

const (
	colStatus  = "lower(trim(status))"
	colPayment = "lower(trim(coalesce(payment_status, '')))"
)

var (
	paidValues    = []string{orderstatus.PaymentPaid, orderstatus.PaymentSuccess}
	pendingTokens = orderstatus.RawStatuses(orderstatus.StatePending)
)

// stateMatch selects rows by effective state, which depends on both status
// and payment_status. It mirrors orderstatus.Normalize: a failed payment wins,
// and a pending row is confirmed when paid and payment_failed otherwise.
type stateMatch struct {
	state    orderstatus.State
	statuses []string
}

func matchState(s string) stateMatch {
	st := orderstatus.Canonical(s)
	return stateMatch{state: st, statuses: orderstatus.RawStatuses(st)}
}

// matches evaluates the predicate in Go. It must agree with sql.
func (m stateMatch) matches(status, paymentStatus string) bool {
	st := strings.ToLower(strings.TrimSpace(status))
	ps := strings.ToLower(strings.TrimSpace(paymentStatus))
	failed := ps == orderstatus.PaymentFailed
	paid := slices.Contains(paidValues, ps)
	pending := slices.Contains(pendingTokens, st)
	listed := slices.Contains(m.statuses, st)

	switch m.state {
	case orderstatus.StatePending:
		return false
	case orderstatus.StatePaymentFailed:
		return failed || listed || (pending && !paid)
	case orderstatus.StateConfirmed:
		return !failed && (listed || (pending && paid))
	default:
		return !failed && listed
	}
}

// sql renders the predicate; arg appends a bind value and returns its
// placeholder.
func (m stateMatch) sql(arg func(any) string) string {
	switch m.state {
	case orderstatus.StatePending:
		return "FALSE"
	case orderstatus.StatePaymentFailed:
		return fmt.Sprintf("(%s = %s OR %s = ANY(%s) OR (%s = ANY(%s) AND NOT %s = ANY(%s)))",
			colPayment, arg(orderstatus.PaymentFailed),
			colStatus, arg(m.statuses),
			colStatus, arg(pendingTokens),
			colPayment, arg(paidValues))
	case orderstatus.StateConfirmed:
		return fmt.Sprintf("(%s <> %s AND (%s = ANY(%s) OR (%s = ANY(%s) AND %s = ANY(%s))))",
			colPayment, arg(orderstatus.PaymentFailed),
			colStatus, arg(m.statuses),
			colStatus, arg(pendingTokens),
			colPayment, arg(paidValues))
	default:
		return fmt.Sprintf("(%s <> %s AND %s = ANY(%s))",
			colPayment, arg(orderstatus.PaymentFailed),
			colStatus, arg(m.statuses))
	}
}

// statesClause ORs the predicates for states together.
func statesClause(states []string, arg func(any) string) string {
	parts := make([]string, 0, len(states))
	for _, s := range states {
		parts = append(parts, matchState(s).sql(arg))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
