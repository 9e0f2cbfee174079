package orderstatus

// Color is a style token understood by the storefront frontend.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
	ColorIndigo Color = "indigo"
	ColorGray   Color = "gray"
)

// Icon is an icon token understood by the storefront frontend.
type Icon string

const (
	IconNone         Icon = ""
	IconCheckCircle  Icon = "check-circle"
	IconClock        Icon = "clock"
	IconTruck        Icon = "truck"
	IconXCircle      Icon = "x-circle"
	IconPackageCheck Icon = "package-check"
)

// Presentation is how a single effective state is rendered as a badge.
type Presentation struct {
	Label string `json:"label"`
	Color Color  `json:"color"`
	Icon  Icon   `json:"icon"`
}

var presentations = map[State]Presentation{
	StateConfirmed:     {Label: "Confirmed", Color: ColorBlue, Icon: IconCheckCircle},
	StatePending:       {Label: "Ongoing", Color: ColorYellow, Icon: IconClock},
	StateOngoing:       {Label: "Ongoing", Color: ColorYellow, Icon: IconClock},
	StateDelivered:     {Label: "Delivered", Color: ColorGreen, Icon: IconTruck},
	StateRTO:           {Label: "RTO", Color: ColorOrange, Icon: IconXCircle},
	StateRejected:      {Label: "Reject", Color: ColorRed, Icon: IconXCircle},
	StatePaymentFailed: {Label: "Payment Failed", Color: ColorRed, Icon: IconXCircle},
	StateCancelled:     {Label: "Cancelled", Color: ColorRed, Icon: IconXCircle},
}

// Present maps an effective state to its badge. Unknown states keep their raw
// text with a neutral style.
func Present(s State) Presentation {
	if p, ok := presentations[s]; ok {
		return p
	}
	return Presentation{Label: string(s), Color: ColorGray, Icon: IconNone}
}
