package sequencer

import (
	"math/rand"
	"time"

	"go-step/debug"
	"go-step/theme"
)

// Settings configures a new Engine.
type Settings struct {
	Channel     uint8 // MIDI channel, 0-15
	Source      ClockSource
	ResetPolicy ResetPolicy
	Mapper      NoteMapper
	Rand        *rand.Rand // for the random marker; seeded from time if nil
}

func DefaultSettings() Settings {
	return Settings{
		Mapper: DefaultNoteMapper(),
	}
}

// Engine owns the pattern table, the live stage model and the playback
// clock. It is not safe for concurrent use: the host delivers one event
// at a time.
type Engine struct {
	patterns PatternStore
	stages   StageModel
	clock    PlaybackClock

	current  Marker // applied by the next grid press
	selector int    // lit selector button

	source  ClockSource
	channel uint8
	mapper  NoteMapper
	rand    *rand.Rand

	out Output
}

// NewEngine creates an engine with empty patterns and the note marker
// selected.
func NewEngine(out Output, s Settings) *Engine {
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.Mapper == (NoteMapper{}) {
		s.Mapper = DefaultNoteMapper()
	}
	e := &Engine{
		current:  MarkerNote,
		selector: 1,
		source:   s.Source,
		channel:  s.Channel & 0x0f,
		mapper:   s.Mapper,
		rand:     s.Rand,
		out:      out,
	}
	e.clock.Policy = s.ResetPolicy
	e.stages.Reset()
	return e
}

// GridPress toggles the selected marker on a cell of the active pattern.
// Pressing a cell that already carries the selected marker clears it.
func (e *Engine) GridPress(row, col int, pressed bool) {
	if !inGrid(row, col) {
		debug.Log("input", "grid press out of range row=%d col=%d", row, col)
		return
	}
	if !pressed {
		return
	}

	prev := e.patterns.Cell(e.patterns.Active(), row, col)
	e.apply(row, col, prev, false)

	if prev != e.current {
		e.setCell(row, col, e.current)
		e.apply(row, col, e.current, true)
	} else {
		e.setCell(row, col, MarkerOff)
	}
}

// apply adds (on) or removes a marker's effect on its column's stage.
func (e *Engine) apply(row, col int, m Marker, on bool) {
	if !m.Valid() || m == MarkerOff {
		return
	}
	if m == MarkerNote {
		e.applyNote(row, col, on)
		return
	}

	info := markers[m]
	if info.field == nil {
		return
	}
	inc := int8(1)
	if !on {
		inc = -1
	}
	*info.field(&e.stages[col]) += info.sign * inc
}

// applyNote keeps at most one pitch marker per column: setting a new one
// clears the old cell.
func (e *Engine) applyNote(row, col int, on bool) {
	st := &e.stages[col]
	if !on {
		st.NoteCount--
		st.Note = NoNote
		return
	}

	if st.NoteCount > 0 && st.Note != NoNote && int(st.Note) != row {
		old := int(st.Note)
		st.NoteCount--
		st.Note = NoNote
		e.setCell(old, col, MarkerOff)
	}
	st.Note = int8(row)
	st.NoteCount++
}

func (e *Engine) setCell(row, col int, m Marker) {
	if e.patterns.SetCell(e.patterns.Active(), row, col, m) {
		e.out.Highlight(row, col, m.Color())
	}
}

func (e *Engine) restoreCell(row, col int) {
	e.out.Highlight(row, col, e.patterns.Cell(e.patterns.Active(), row, col).Color())
}

// SelectorPress picks the marker for subsequent grid presses. Pressing the
// button of the already selected marker switches to its alternate.
func (e *Engine) SelectorPress(button int, pressed bool) {
	m, ok := Primary(button)
	if !ok {
		debug.Log("input", "selector out of range %d", button)
		return
	}
	if !pressed {
		return
	}

	next := m
	if e.current == m {
		next = m.Alternate()
	}
	e.selectMarker(button, next)
}

func (e *Engine) selectMarker(button int, m Marker) {
	prev := e.selector
	e.current = m
	e.selector = button

	e.out.HighlightSelector(prev, primaries[prev].Color())
	e.out.HighlightSelector(button, theme.White)
	e.drawControl(ControlDisplay)
}

// ControlPress handles the function buttons.
func (e *Engine) ControlPress(ctl Control, pressed bool) {
	if ctl < 0 || int(ctl) >= NumControls {
		debug.Log("input", "control out of range %d", ctl)
		return
	}
	if !pressed {
		return
	}

	switch ctl {
	case ControlPlay:
		if e.clock.Running {
			e.Transport(TransportStop)
		} else {
			e.Transport(TransportStart)
		}
	case ControlPanic:
		e.Panic()
	case ControlClock:
		if e.source == ClockInternal {
			e.SetClockSource(ClockExternal)
		} else {
			e.SetClockSource(ClockInternal)
		}
	case ControlReset:
		e.SetResetPolicy(e.clock.Policy.Next())
	case ControlPatternDown:
		e.SelectPattern((e.patterns.Active() + NumPatterns - 1) % NumPatterns)
	case ControlPatternUp:
		e.SelectPattern((e.patterns.Active() + 1) % NumPatterns)
	}
}

// Panic silences the output.
func (e *Engine) Panic() {
	e.noteOff()
	e.out.ControlChange(e.channel, ccAllSoundOff, 0)
	e.out.ControlChange(e.channel, ccResetAllControllers, 0)
	debug.Log("transport", "panic")
}

func (e *Engine) SetClockSource(s ClockSource) {
	e.source = s
	e.drawControl(ControlClock)
}

func (e *Engine) SetResetPolicy(p ResetPolicy) {
	if p < 0 || p >= numResetPolicies {
		return
	}
	e.clock.Policy = p
	e.drawControl(ControlReset)
}

// SelectPattern makes pattern i active, rewinds the stage cursors and
// rebuilds the stage model from the new grid.
func (e *Engine) SelectPattern(i int) {
	if !e.patterns.setActive(i) {
		debug.Log("input", "pattern out of range %d", i)
		return
	}
	c := &e.clock
	c.resetCursors()
	e.rebuild()
	e.drawGrid()
	e.drawControl(ControlPatternDown)
	e.drawControl(ControlPatternUp)
	debug.Log("pattern", "select %d", i)
}

// rebuild replays every cell of the active grid onto an empty stage model.
func (e *Engine) rebuild() {
	e.stages.Reset()
	active := e.patterns.Active()
	for col := 0; col < Columns; col++ {
		for row := 0; row < Rows; row++ {
			if m := e.patterns.Cell(active, row, col); m != MarkerOff {
				e.apply(row, col, m, true)
			}
		}
	}
}

// Clear empties every pattern, not just the active one.
func (e *Engine) Clear() {
	e.patterns.clear()
	e.stages.Reset()
	e.drawGrid()
}

// EncodePatterns serializes the pattern table for storage.
func (e *Engine) EncodePatterns() ([]byte, error) {
	return e.patterns.Encode()
}

// LoadPatterns replaces the pattern table from a stored blob and selects
// its active pattern. On error nothing changes.
func (e *Engine) LoadPatterns(blob []byte) error {
	patterns, active, err := decodePatterns(blob)
	if err != nil {
		return err
	}
	e.patterns.patterns = patterns
	e.SelectPattern(active)
	return nil
}

// Cell returns the marker at a cell of the active pattern.
func (e *Engine) Cell(row, col int) Marker {
	return e.patterns.Cell(e.patterns.Active(), row, col)
}

// Redraw emits every light the engine owns.
func (e *Engine) Redraw() {
	e.drawGrid()
	for b := 0; b < NumSelectors; b++ {
		color := primaries[b].Color()
		if b == e.selector {
			color = theme.White
		}
		e.out.HighlightSelector(b, color)
	}
	for ctl := Control(0); int(ctl) < NumControls; ctl++ {
		e.drawControl(ctl)
	}
}

func (e *Engine) drawGrid() {
	s := e.clock.sounding
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			color := e.Cell(row, col).Color()
			if s.on && s.row == row && s.col == col && e.Cell(row, col) == MarkerNote {
				color = theme.White
			}
			e.out.Highlight(row, col, color)
		}
	}
}

func (e *Engine) drawControl(ctl Control) {
	var color theme.ColorID
	switch ctl {
	case ControlPlay:
		color = theme.DarkGray
		if e.clock.Running {
			color = theme.White
		}
	case ControlPanic:
		color = theme.DimRed
	case ControlClock:
		color = theme.DarkGray
		if e.source == ClockExternal {
			color = theme.White
		}
	case ControlReset:
		color = [numResetPolicies]theme.ColorID{theme.DarkGray, theme.DimRed, theme.Red}[e.clock.Policy]
	case ControlPatternDown, ControlPatternUp:
		color = theme.Rainbow[e.patterns.Active()%len(theme.Rainbow)]
	case ControlDisplay:
		color = e.current.Color()
	case ControlPosition:
		color = theme.Black
	}
	e.out.HighlightControl(ctl, color)
}
