package sequencer

import (
	"math/rand"

	"go-step/theme"
)

type noteEvent struct {
	on       bool
	channel  uint8
	pitch    uint8
	velocity uint8
}

// recorder is an Output that keeps everything the engine emits.
type recorder struct {
	notes     []noteEvent
	ccs       [][3]uint8
	cells     map[[2]int]theme.ColorID
	selectors map[int]theme.ColorID
	controls  map[Control]theme.ColorID
	positions []theme.ColorID
}

func newRecorder() *recorder {
	return &recorder{
		cells:     make(map[[2]int]theme.ColorID),
		selectors: make(map[int]theme.ColorID),
		controls:  make(map[Control]theme.ColorID),
	}
}

func (r *recorder) NoteOn(channel, pitch, velocity uint8) {
	r.notes = append(r.notes, noteEvent{on: true, channel: channel, pitch: pitch, velocity: velocity})
}

func (r *recorder) NoteOff(channel, pitch uint8) {
	r.notes = append(r.notes, noteEvent{channel: channel, pitch: pitch})
}

func (r *recorder) ControlChange(channel, controller, value uint8) {
	r.ccs = append(r.ccs, [3]uint8{channel, controller, value})
}

func (r *recorder) Highlight(row, col int, c theme.ColorID) {
	r.cells[[2]int{row, col}] = c
}

func (r *recorder) HighlightSelector(button int, c theme.ColorID) {
	r.selectors[button] = c
}

func (r *recorder) HighlightControl(ctl Control, c theme.ColorID) {
	r.controls[ctl] = c
	if ctl == ControlPosition {
		r.positions = append(r.positions, c)
	}
}

func (r *recorder) noteOns() []noteEvent {
	var out []noteEvent
	for _, n := range r.notes {
		if n.on {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.notes = nil
	r.ccs = nil
	r.positions = nil
}

func newTestEngine() (*Engine, *recorder) {
	rec := newRecorder()
	s := DefaultSettings()
	s.Rand = rand.New(rand.NewSource(1))
	return NewEngine(rec, s), rec
}

// place puts marker m on a cell regardless of the selected marker.
func place(e *Engine, m Marker, row, col int) {
	prev := e.current
	e.current = m
	e.GridPress(row, col, true)
	e.GridPress(row, col, false)
	e.current = prev
}

func pulses(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.TimerTick()
	}
}
