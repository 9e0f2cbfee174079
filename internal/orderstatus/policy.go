package orderstatus

import (
	"fmt"
	"strings"
)

// Action is an admin status update. Its string form is what the backend
// stores as the new raw status.
type Action string

const (
	ActionConfirm   Action = "confirm"
	ActionOngoing   Action = "ongoing"
	ActionDelivered Action = "delivered"
	ActionRTO       Action = "rto"
	ActionReject    Action = "reject"
)

// Actions in button order.
var allActions = []Action{ActionConfirm, ActionOngoing, ActionDelivered, ActionRTO, ActionReject}

var actionTargets = map[Action]State{
	ActionConfirm:   StateConfirmed,
	ActionOngoing:   StateOngoing,
	ActionDelivered: StateDelivered,
	ActionRTO:       StateRTO,
	ActionReject:    StateRejected,
}

var validNext = map[State]map[Action]bool{
	StatePending:       {ActionConfirm: true, ActionReject: true},
	StateConfirmed:     {ActionOngoing: true, ActionDelivered: true, ActionRTO: true, ActionReject: true},
	StateOngoing:       {ActionDelivered: true, ActionRTO: true, ActionReject: true},
	StatePaymentFailed: {ActionReject: true},
	StateDelivered:     {},
	StateRTO:           {},
	StateRejected:      {},
	StateCancelled:     {},
}

// ParseAction accepts an action token in any case. The stored synonyms
// "confirmed" and "rejected" are accepted as well.
func ParseAction(s string) (Action, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	switch f {
	case "confirmed":
		return ActionConfirm, nil
	case "rejected":
		return ActionReject, nil
	}
	a := Action(f)
	if _, ok := actionTargets[a]; !ok {
		return "", fmt.Errorf("unknown order action %q", s)
	}
	return a, nil
}

// Target is the effective state an order reaches after a.
func (a Action) Target() State { return actionTargets[a] }

func (a Action) String() string { return string(a) }

// CanApply reports whether a is a valid move out of state. The action whose
// target is the current state is never valid.
func CanApply(state State, a Action) bool {
	if a.Target() == state {
		return false
	}
	return validNext[state][a]
}

// ActionState is one admin button.
type ActionState struct {
	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
}

// Actions lists the admin moves offered for an order in state. While an
// update for the order is in flight every action is returned disabled.
func Actions(state State, updating bool) []ActionState {
	out := make([]ActionState, 0, len(allActions))
	for _, a := range allActions {
		if !CanApply(state, a) {
			continue
		}
		out = append(out, ActionState{Action: a, Enabled: !updating})
	}
	return out
}
