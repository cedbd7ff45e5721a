package midi

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-step/debug"
)

var ledSendCount uint64

// Launchpad X SysEx bodies (without F0/F7)
var (
	sysexProgrammerMode = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}
	sysexLiveMode       = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x00}
	sysexBrightness     = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}
	sysexLEDFeedback    = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}
)

// LaunchpadController handles a Novation Launchpad X
type LaunchpadController struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	send     func(msg gomidi.Message) error
	stopFunc func()

	padMu   sync.Mutex
	closed  bool
	padChan chan PadEvent
}

// NewLaunchpadController opens the ports and switches the device to
// Programmer mode.
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		padChan: make(chan PadEvent, 64),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, errors.Wrap(err, "open output")
		}
		lp.send = send

		for _, body := range [][]byte{sysexProgrammerMode, sysexBrightness, sysexLEDFeedback} {
			if err := lp.send(gomidi.SysEx(body)); err != nil {
				debug.Log("launchpad", "sysex failed: %v", err)
			}
		}
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, lp.handle)
		if err != nil {
			return nil, errors.Wrap(err, "open input")
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

// handle turns pad notes and round-button CCs (top row and side column)
// into pad events, releases included.
func (lp *LaunchpadController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	var cc, value uint8

	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		if row, col := noteToRowCol(note); row >= 0 {
			lp.push(PadEvent{Row: row, Col: col, Velocity: velocity})
		}
	case msg.GetNoteOff(&channel, &note, &velocity):
		if row, col := noteToRowCol(note); row >= 0 {
			lp.push(PadEvent{Row: row, Col: col})
		}
	case msg.GetControlChange(&channel, &cc, &value):
		if row, col := ccToRowCol(cc); row >= 0 {
			lp.push(PadEvent{Row: row, Col: col, Velocity: value})
		}
	}
}

func (lp *LaunchpadController) push(ev PadEvent) {
	lp.padMu.Lock()
	defer lp.padMu.Unlock()
	if lp.closed {
		return
	}
	select {
	case lp.padChan <- ev:
	default:
		debug.Log("launchpad", "pad buffer full, dropped %+v", ev)
	}
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

// SetLEDBatch sends multiple LED updates using individual NoteOn messages
// (SysEx batching had color issues - this is simpler and still benefits from
// the caller batching logic which reduces redundant updates)
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	var firstErr error
	for _, u := range updates {
		note := rowColToNote(u.Row, u.Col)
		color := mapRGBToLaunchpad(u.Color)
		if err := lp.send(gomidi.NoteOn(u.Channel, note, color)); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "led %d,%d", u.Row, u.Col)
		}
	}

	count := atomic.AddUint64(&ledSendCount, uint64(len(updates)))
	if count%100 < uint64(len(updates)) {
		debug.Log("lp-send", "batch count=%d (this batch=%d)", count, len(updates))
	}

	return firstErr
}

// launchpadPalette holds approximate RGB values for a subset of the
// Launchpad X velocity palette: {velocity, R, G, B}.
var launchpadPalette = [][4]uint8{
	{0, 0, 0, 0},         // off
	{1, 30, 30, 30},      // dark gray
	{2, 110, 110, 110},   // gray
	{5, 255, 0, 0},       // red
	{6, 255, 80, 80},     // bright red
	{7, 60, 0, 0},        // dim red
	{9, 255, 100, 0},     // orange
	{11, 70, 30, 0},      // dim orange
	{13, 255, 200, 0},    // yellow
	{15, 60, 50, 0},      // dim yellow
	{21, 0, 255, 0},      // green
	{23, 0, 60, 0},       // dim green
	{37, 0, 200, 200},    // cyan
	{39, 0, 50, 50},      // dim cyan
	{41, 0, 150, 255},    // sky blue
	{45, 0, 0, 255},      // blue
	{47, 0, 0, 60},       // dim blue
	{49, 150, 0, 200},    // purple
	{51, 40, 0, 60},      // dim purple
	{53, 255, 0, 255},    // magenta
	{55, 60, 0, 60},      // dim magenta
	{56, 255, 80, 180},   // pink
	{59, 60, 20, 40},     // dim pink
	{119, 255, 255, 255}, // white
}

// mapRGBToLaunchpad finds the nearest Launchpad X palette color for an RGB value
func mapRGBToLaunchpad(rgb [3]uint8) uint8 {
	bestMatch := uint8(0)
	bestDist := 1 << 30

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range launchpadPalette {
		pr, pg, pb := int(p[1]), int(p[2]), int(p[3])
		dist := (r-pr)*(r-pr) + (g-pg)*(g-pg) + (b-pb)*(b-pb)
		if dist < bestDist {
			bestDist = dist
			bestMatch = p[0]
		}
	}
	return bestMatch
}

// Close blanks every light, hands the device back to Live mode and closes
// the pad channel.
func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		var updates []LEDUpdate
		for row := 0; row <= TopRow; row++ {
			for col := 0; col <= SideCol; col++ {
				if row == TopRow && col == SideCol {
					continue // logo, not a pad
				}
				updates = append(updates, LEDUpdate{Row: row, Col: col})
			}
		}
		lp.SetLEDBatch(updates)
		lp.send(gomidi.SysEx(sysexLiveMode))
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	lp.padMu.Lock()
	if !lp.closed {
		lp.closed = true
		close(lp.padChan)
	}
	lp.padMu.Unlock()
	return nil
}

// Launchpad X note mapping
// 8x8 Grid:  Row 0 (bottom) = notes 11-18, Row 7 = notes 81-88
// Side col:  Col 8 (right side scene buttons) = CC 19, 29, ... 89 in
//            Programmer mode, notes with the same numbers on older firmware
// Top row:   Row 8 (top control row) = CC 91-98

func rowColToNote(row, col int) uint8 {
	// Top row uses CC, but for LED control we use notes 91-98
	if row == TopRow {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return TopRow, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row >= GridSize || col < 0 || col > SideCol {
		return -1, -1
	}
	return row, col
}

// ccToRowCol converts round-button CCs to row/col
func ccToRowCol(cc uint8) (row, col int) {
	switch {
	case cc >= 91 && cc <= 98:
		return TopRow, int(cc - 91)
	case cc >= 19 && cc <= 89 && cc%10 == 9:
		return int(cc/10) - 1, SideCol
	}
	return -1, -1
}
