package sequencer

import "go-step/theme"

// Control identifies a function button outside the grid and selector column.
type Control int

const (
	ControlPlay Control = iota
	ControlPanic
	ControlClock
	ControlReset
	ControlPatternDown
	ControlPatternUp
	ControlDisplay  // mirrors the selected marker
	ControlPosition // transport position flash

	NumControls = int(ControlPosition) + 1
)

var controlNames = [NumControls]string{"play", "panic", "clock", "reset", "pattern-down", "pattern-up", "display", "position"}

func (c Control) String() string {
	if c < 0 || int(c) >= NumControls {
		return "control(?)"
	}
	return controlNames[c]
}

// Output receives everything the engine emits: notes for the synth and
// logical colors for the hardware lights.
type Output interface {
	NoteOn(channel, pitch, velocity uint8)
	NoteOff(channel, pitch uint8)
	ControlChange(channel, controller, value uint8)

	Highlight(row, col int, c theme.ColorID)
	HighlightSelector(button int, c theme.ColorID)
	HighlightControl(ctl Control, c theme.ColorID)
}

// Storage persists the pattern table as one opaque block.
type Storage interface {
	SavePatterns(blob []byte) error
	LoadPatterns() ([]byte, error)
}

// MIDI controller numbers sent by the panic button
const (
	ccAllSoundOff         = 120
	ccResetAllControllers = 121
)
