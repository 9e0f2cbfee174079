package orderstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionSet(as []ActionState) map[Action]bool {
	m := make(map[Action]bool, len(as))
	for _, a := range as {
		m[a.Action] = a.Enabled
	}
	return m
}

func TestActions_Pending(t *testing.T) {
	got := Actions(StatePending, false)
	assert.Equal(t, []ActionState{
		{Action: ActionConfirm, Enabled: true},
		{Action: ActionReject, Enabled: true},
	}, got)
}

func TestActions_Confirmed(t *testing.T) {
	got := actionSet(Actions(StateConfirmed, false))
	assert.Equal(t, map[Action]bool{
		ActionOngoing:   true,
		ActionDelivered: true,
		ActionRTO:       true,
		ActionReject:    true,
	}, got)
}

func TestActions_Ongoing(t *testing.T) {
	got := actionSet(Actions(StateOngoing, false))
	assert.Equal(t, map[Action]bool{
		ActionDelivered: true,
		ActionRTO:       true,
		ActionReject:    true,
	}, got)
}

func TestActions_TerminalAndUnknownOfferNothing(t *testing.T) {
	for _, s := range []State{StateDelivered, StateRejected, StateRTO, StateCancelled, State("mystery")} {
		assert.Empty(t, Actions(s, false), s)
	}
}

func TestActions_PaymentFailedCanOnlyBeRejected(t *testing.T) {
	assert.Equal(t, []ActionState{{Action: ActionReject, Enabled: true}}, Actions(StatePaymentFailed, false))
}

func TestActions_CurrentStateNeverOffered(t *testing.T) {
	for _, s := range []State{StatePending, StateConfirmed, StateOngoing, StatePaymentFailed} {
		for _, a := range Actions(s, false) {
			assert.NotEqual(t, s, a.Action.Target(), "state %s offers its own action", s)
		}
	}
}

func TestActions_UpdatingDisablesEverything(t *testing.T) {
	got := Actions(StateConfirmed, true)
	require.Len(t, got, 4)
	for _, a := range got {
		assert.False(t, a.Enabled, a.Action)
	}
}

func TestCanApply(t *testing.T) {
	assert.True(t, CanApply(StatePending, ActionConfirm))
	assert.False(t, CanApply(StatePending, ActionOngoing))
	assert.False(t, CanApply(StateConfirmed, ActionConfirm))
	assert.False(t, CanApply(StateOngoing, ActionConfirm))
	assert.False(t, CanApply(StateOngoing, ActionOngoing))
	assert.True(t, CanApply(StateOngoing, ActionRTO))
	assert.False(t, CanApply(StateDelivered, ActionRTO))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Confirm ")
	require.NoError(t, err)
	assert.Equal(t, ActionConfirm, a)

	a, err = ParseAction("rejected")
	require.NoError(t, err)
	assert.Equal(t, ActionReject, a)

	a, err = ParseAction("RTO")
	require.NoError(t, err)
	assert.Equal(t, StateRTO, a.Target())

	_, err = ParseAction("ship")
	assert.Error(t, err)
	_, err = ParseAction("")
	assert.Error(t, err)
}
