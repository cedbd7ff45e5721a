package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
)

func (t ControllerType) String() string {
	if t == ControllerLaunchpad {
		return "launchpad"
	}
	return "unknown"
}

// PadEvent is sent when a pad/button changes on a grid controller.
// Velocity 0 is a release.
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// Pressed reports whether the event is a press rather than a release.
func (e PadEvent) Pressed() bool {
	return e.Velocity > 0
}

// LEDUpdate sets one pad light.
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8
}

// Controller is the interface for grid controllers
type Controller interface {
	ID() string
	Type() ControllerType

	PadEvents() <-chan PadEvent

	SetLEDBatch(updates []LEDUpdate) error

	Close() error
}

// Channel modes for LEDUpdate.Channel
const (
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)

// Launchpad X geometry: an 8x8 grid, a scene column at Col 8 and a top row
// at Row 8.
const (
	GridSize = 8
	SideCol  = 8
	TopRow   = 8
)
