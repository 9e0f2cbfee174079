package orderstatus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(p Progress) []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Label
	}
	return out
}

func TestProject_Paths(t *testing.T) {
	normal := []string{"Pending", "Confirmed", "On the Way", "Delivered"}
	cases := []struct {
		status, payment string
		labels          []string
		current         int
	}{
		{"pending", "", []string{"Pending", "Payment Failed"}, 1},
		{"delivered", "failed", []string{"Pending", "Payment Failed"}, 1},
		{"pending", "paid", normal, 1},
		{"pending", "success", normal, 1},
		{"cancelled", "", []string{"Pending", "Cancelled"}, 1},
		{"reject", "paid", []string{"Pending", "Rejected"}, 1},
		{"rto", "", []string{"Pending", "Confirmed", "On the Way", "Delivered", "RTO"}, 4},
		{"confirm", "paid", normal, 1},
		{"ongoing", "paid", normal, 2},
		{"out_for_delivery", "paid", normal, 2},
		{"delivered", "paid", normal, 3},
		{"unknownstatus", "", normal, 0},
	}
	for _, c := range cases {
		p := Project(c.status, c.payment)
		assert.Equal(t, c.labels, labels(p), "%s/%s", c.status, c.payment)
		assert.Equal(t, c.current, p.Current, "%s/%s", c.status, c.payment)
	}
}

func TestProject_RTOIsFiveStepsAtEnd(t *testing.T) {
	p := Project("rto", "")
	require.Len(t, p.Steps, 5)
	assert.Equal(t, 4, p.Current)
	assert.Equal(t, "RTO", p.CurrentStep().Label)
	assert.InDelta(t, 1.0, p.Fraction(), 1e-9)
}

func TestProject_UnknownDefaultsToStart(t *testing.T) {
	p := Project("unknownstatus", "")
	require.Len(t, p.Steps, 4)
	assert.Equal(t, 0, p.Current)
	assert.Zero(t, p.Fraction())
}

func TestProgress_Fraction(t *testing.T) {
	assert.InDelta(t, 2.0/3.0, Project("ongoing", "").Fraction(), 1e-9)
	assert.InDelta(t, 1.0, Project("cancelled", "").Fraction(), 1e-9)
	assert.Zero(t, Progress{}.Fraction())
	assert.Equal(t, Step{}, Progress{Current: 3}.CurrentStep())
}

func TestPresent_Table(t *testing.T) {
	cases := map[State]Presentation{
		StateConfirmed:     {"Confirmed", ColorBlue, IconCheckCircle},
		StatePending:       {"Ongoing", ColorYellow, IconClock},
		StateOngoing:       {"Ongoing", ColorYellow, IconClock},
		StateDelivered:     {"Delivered", ColorGreen, IconTruck},
		StateRTO:           {"RTO", ColorOrange, IconXCircle},
		StateRejected:      {"Reject", ColorRed, IconXCircle},
		StatePaymentFailed: {"Payment Failed", ColorRed, IconXCircle},
		StateCancelled:     {"Cancelled", ColorRed, IconXCircle},
		State("on_hold"):   {"on_hold", ColorGray, IconNone},
	}
	for s, want := range cases {
		assert.Equal(t, want, Present(s), s)
	}
}

func TestPresent_Idempotent(t *testing.T) {
	for _, s := range []State{StateConfirmed, StateRTO, State("x")} {
		assert.Equal(t, Present(s), Present(s))
	}
}

func TestCanCancel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, CanCancel("confirmed", "paid", now.Add(-time.Hour), now))
	assert.True(t, CanCancel("pending", "paid", now.Add(-23*time.Hour), now))
	assert.True(t, CanCancel("ongoing", "paid", now.Add(-time.Minute), now))

	assert.False(t, CanCancel("confirmed", "paid", now.Add(-25*time.Hour), now))
	assert.False(t, CanCancel("confirmed", "paid", now.Add(-CancelWindow), now))
	assert.False(t, CanCancel("rto", "", now, now))
	for _, s := range []string{"delivered", "cancelled", "reject", "rto"} {
		assert.False(t, CanCancel(s, "paid", now, now), s)
	}
	assert.False(t, CanCancel("pending", "", now, now))
	assert.False(t, CanCancel("confirmed", "failed", now, now))
}

func TestDerive_PaidPendingOrder(t *testing.T) {
	now := time.Now()
	v := Derive("pending", "paid", now, now, false)

	assert.Equal(t, StateConfirmed, v.State)
	assert.Equal(t, Presentation{Label: "Confirmed", Color: ColorBlue, Icon: IconCheckCircle}, v.Badge)
	assert.Equal(t, map[Action]bool{
		ActionOngoing:   true,
		ActionDelivered: true,
		ActionRTO:       true,
		ActionReject:    true,
	}, actionSet(v.Actions))
	_, hasConfirm := actionSet(v.Actions)[ActionConfirm]
	assert.False(t, hasConfirm)
	assert.Equal(t, 1, v.Progress.Current)
	assert.True(t, v.Cancellable)
}
