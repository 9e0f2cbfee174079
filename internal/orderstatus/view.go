package orderstatus

import "time"

// View is everything a screen needs to render an order's lifecycle.
type View struct {
	State       State         `json:"state"`
	Badge       Presentation  `json:"badge"`
	Actions     []ActionState `json:"actions"`
	Progress    Progress      `json:"progress"`
	Cancellable bool          `json:"cancellable"`
}

// Derive builds the View for the raw order fields. updating marks an admin
// update for this order as in flight.
func Derive(status, paymentStatus string, createdAt, now time.Time, updating bool) View {
	state := Normalize(status, paymentStatus)
	return View{
		State:       state,
		Badge:       Present(state),
		Actions:     Actions(state, updating),
		Progress:    Project(status, paymentStatus),
		Cancellable: CanCancel(status, paymentStatus, createdAt, now),
	}
}
