package orderstatus

// Step is one stop on the customer order tracker.
type Step struct {
	Label string `json:"label"`
	Icon  Icon   `json:"icon"`
	Color Color  `json:"color"`
}

var (
	stepPending       = Step{Label: "Pending", Icon: IconClock, Color: ColorYellow}
	stepConfirmed     = Step{Label: "Confirmed", Icon: IconCheckCircle, Color: ColorBlue}
	stepOnTheWay      = Step{Label: "On the Way", Icon: IconTruck, Color: ColorIndigo}
	stepDelivered     = Step{Label: "Delivered", Icon: IconPackageCheck, Color: ColorGreen}
	stepPaymentFailed = Step{Label: "Payment Failed", Icon: IconXCircle, Color: ColorRed}
	stepCancelled     = Step{Label: "Cancelled", Icon: IconXCircle, Color: ColorRed}
	stepRejected      = Step{Label: "Rejected", Icon: IconXCircle, Color: ColorRed}
	stepRTO           = Step{Label: "RTO", Icon: IconXCircle, Color: ColorOrange}
)

// Progress is a tracker sequence and the index of the step reached.
type Progress struct {
	Steps   []Step `json:"steps"`
	Current int    `json:"current"`
}

// Fraction is how far the progress bar is filled, in [0, 1].
func (p Progress) Fraction() float64 {
	if len(p.Steps) < 2 {
		return 0
	}
	return float64(p.Current) / float64(len(p.Steps)-1)
}

// CurrentStep returns the step reached.
func (p Progress) CurrentStep() Step {
	if p.Current < 0 || p.Current >= len(p.Steps) {
		return Step{}
	}
	return p.Steps[p.Current]
}

func steps(s ...Step) []Step { return s }

// Project picks the tracker sequence for a raw (status, payment_status) pair.
// Unrecognized statuses land on the first step of the normal sequence.
func Project(status, paymentStatus string) Progress {
	raw := Canonical(status)
	switch state := Normalize(status, paymentStatus); {
	case state == StatePaymentFailed:
		return Progress{Steps: steps(stepPending, stepPaymentFailed), Current: 1}
	case raw == StatePending && IsPaid(paymentStatus):
		return Progress{Steps: steps(stepPending, stepConfirmed, stepOnTheWay, stepDelivered), Current: 1}
	case state == StateCancelled:
		return Progress{Steps: steps(stepPending, stepCancelled), Current: 1}
	case state == StateRejected:
		return Progress{Steps: steps(stepPending, stepRejected), Current: 1}
	case state == StateRTO:
		return Progress{Steps: steps(stepPending, stepConfirmed, stepOnTheWay, stepDelivered, stepRTO), Current: 4}
	default:
		p := Progress{Steps: steps(stepPending, stepConfirmed, stepOnTheWay, stepDelivered)}
		switch state {
		case StateConfirmed:
			p.Current = 1
		case StateOngoing:
			p.Current = 2
		case StateDelivered:
			p.Current = 3
		}
		return p
	}
}
