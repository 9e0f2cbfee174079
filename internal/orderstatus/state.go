// Package orderstatus derives everything the storefront shows about an order's
// lifecycle from the two raw columns the backend stores: status and
// payment_status. Nothing here holds state; every function is recomputed from
// the raw values on each call.
package orderstatus

import (
	"sort"
	"strings"
)

// State is the canonical effective state of an order.
type State string

const (
	StatePending       State = "pending"
	StateConfirmed     State = "confirmed"
	StateOngoing       State = "ongoing"
	StateDelivered     State = "delivered"
	StateRTO           State = "rto"
	StateRejected      State = "rejected"
	StateCancelled     State = "cancelled"
	StatePaymentFailed State = "payment_failed"
)

// Payment status values as written by the payment callback.
const (
	PaymentSuccess = "success"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

var synonyms = map[string]State{
	"pending":          StatePending,
	"confirm":          StateConfirmed,
	"confirmed":        StateConfirmed,
	"ongoing":          StateOngoing,
	"out_for_delivery": StateOngoing,
	"out for delivery": StateOngoing,
	"delivered":        StateDelivered,
	"rto":              StateRTO,
	"reject":           StateRejected,
	"rejected":         StateRejected,
	"cancelled":        StateCancelled,
	"canceled":         StateCancelled,
	"payment failed":   StatePaymentFailed,
	"payment_failed":   StatePaymentFailed,
	"payment-failed":   StatePaymentFailed,
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Canonical case-folds a raw status and collapses its synonyms. Unknown values
// are returned folded so that newer backend statuses still render.
func Canonical(status string) State {
	f := fold(status)
	if s, ok := synonyms[f]; ok {
		return s
	}
	return State(f)
}

// IsPaid reports whether a raw payment_status marks a captured payment.
func IsPaid(paymentStatus string) bool {
	switch fold(paymentStatus) {
	case PaymentSuccess, PaymentPaid:
		return true
	}
	return false
}

// IsPaymentFailed reports whether a raw payment_status marks a failed payment.
func IsPaymentFailed(paymentStatus string) bool {
	return fold(paymentStatus) == PaymentFailed
}

// Normalize returns the effective state for a raw (status, payment_status)
// pair. A failed payment wins over any status; a pending order is confirmed by
// a captured payment and otherwise reads as payment_failed.
func Normalize(status, paymentStatus string) State {
	if IsPaymentFailed(paymentStatus) {
		return StatePaymentFailed
	}
	s := Canonical(status)
	if s == StatePending {
		if IsPaid(paymentStatus) {
			return StateConfirmed
		}
		return StatePaymentFailed
	}
	return s
}

// Known reports whether s is one of the canonical states.
func (s State) Known() bool {
	switch s {
	case StatePending, StateConfirmed, StateOngoing, StateDelivered,
		StateRTO, StateRejected, StateCancelled, StatePaymentFailed:
		return true
	}
	return false
}

// Terminal reports whether no admin transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateDelivered, StateRTO, StateRejected, StateCancelled:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// RawStatuses lists the folded raw status values that canonicalize to s,
// sorted. Unknown states list only themselves.
func RawStatuses(s State) []string {
	var out []string
	for raw, st := range synonyms {
		if st == s {
			out = append(out, raw)
		}
	}
	if len(out) == 0 {
		out = append(out, string(s))
	}
	sort.Strings(out)
	return out
}
