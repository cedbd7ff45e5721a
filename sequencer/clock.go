package sequencer

import (
	"fmt"

	"go-step/debug"
	"go-step/theme"
)

// Clock resolution: one pulse is one MIDI clock.
const (
	TicksPerBeat    = 24
	BeatsPerMeasure = 4
	TicksPerStep    = TicksPerBeat / 4 // one stage slot per sixteenth note
)

// ResetPolicy decides when playback returns to stage 0 on its own.
type ResetPolicy int

const (
	ResetNone ResetPolicy = iota
	ResetEveryMeasure
	ResetEveryOtherMeasure

	numResetPolicies
)

var resetPolicyNames = [numResetPolicies]string{"none", "every-measure", "every-other-measure"}

func (p ResetPolicy) String() string {
	if p < 0 || p >= numResetPolicies {
		return fmt.Sprintf("reset(%d)", int(p))
	}
	return resetPolicyNames[p]
}

// Next cycles none -> every-measure -> every-other-measure -> none.
func (p ResetPolicy) Next() ResetPolicy {
	return (p + 1) % numResetPolicies
}

func ParseResetPolicy(s string) (ResetPolicy, error) {
	for i, name := range resetPolicyNames {
		if name == s {
			return ResetPolicy(i), nil
		}
	}
	return ResetNone, fmt.Errorf("unknown reset policy %q", s)
}

// ClockSource selects which pulses drive playback.
type ClockSource int

const (
	ClockInternal ClockSource = iota
	ClockExternal
)

func (s ClockSource) String() string {
	if s == ClockExternal {
		return "external"
	}
	return "internal"
}

func ParseClockSource(s string) (ClockSource, error) {
	switch s {
	case "internal", "":
		return ClockInternal, nil
	case "external":
		return ClockExternal, nil
	}
	return ClockInternal, fmt.Errorf("unknown clock source %q", s)
}

// TransportEvent is a start/stop/continue/clock message from the host.
type TransportEvent int

const (
	TransportStart TransportEvent = iota
	TransportStop
	TransportContinue
	TransportClock
)

var transportNames = []string{"start", "stop", "continue", "clock"}

func (t TransportEvent) String() string {
	if t < 0 || int(t) >= len(transportNames) {
		return "transport(?)"
	}
	return transportNames[t]
}

func ParseTransport(s string) (TransportEvent, bool) {
	for i, name := range transportNames {
		if name == s {
			return TransportEvent(i), true
		}
	}
	return 0, false
}

// sounding is the note currently held on the output.
type sounding struct {
	pitch    uint8
	row, col int
	on       bool
}

// PlaybackClock holds transport position and sequencing cursors.
type PlaybackClock struct {
	Running bool

	Measure int
	Beat    int
	Tick    int // within beat

	Stage  int
	Repeat int
	Extend int

	Position int // index into theme.Rainbow, advanced every measure
	Policy   ResetPolicy

	sounding sounding
}

func (c *PlaybackClock) resetCursors() {
	c.Stage, c.Repeat, c.Extend = 0, 0, 0
}

func (c *PlaybackClock) rewind() {
	c.Measure, c.Beat, c.Tick, c.Position = 0, 0, 0, 0
	c.resetCursors()
}

func (c *PlaybackClock) assertCursor() {
	if c.Stage < 0 || c.Stage >= NumStages {
		panic(fmt.Sprintf("sequencer: stage cursor %d out of range", c.Stage))
	}
}

// Transport applies a host transport message.
func (e *Engine) Transport(ev TransportEvent) {
	c := &e.clock
	switch ev {
	case TransportStart:
		c.rewind()
		c.Running = true
	case TransportStop:
		c.Running = false
		e.noteOff()
		e.out.HighlightControl(ControlPosition, theme.Black)
	case TransportContinue:
		c.Running = true
	case TransportClock:
		if e.source == ClockExternal {
			e.pulse()
		}
		return
	default:
		return
	}
	debug.Log("transport", "%s measure=%d stage=%d", ev, c.Measure, c.Stage)
	e.drawControl(ControlPlay)
}

// TimerTick is the internal clock source; ignored while clocked externally.
func (e *Engine) TimerTick() {
	if e.source == ClockInternal {
		e.pulse()
	}
}

// pulse advances playback by one clock unit.
func (e *Engine) pulse() {
	c := &e.clock
	if !c.Running {
		return
	}

	if c.Tick%TicksPerStep == 0 {
		e.drawPosition()

		if c.Beat == 0 && c.Tick == 0 {
			e.applyResetPolicy()
		}

		c.assertCursor()
		st := e.stages[c.Stage]

		// tie holds the previous note, as does an extension in progress
		if st.Tie <= 0 && c.Extend == 0 {
			e.trigger(st)
		}
		e.advance(st)
	}

	c.Tick++
	if c.Tick == TicksPerBeat {
		c.Tick = 0
		c.Beat++
		if c.Beat == BeatsPerMeasure {
			c.Beat = 0
			c.Measure++
			c.Position = (c.Position + 1) % len(theme.Rainbow)
		}
	}
}

func (e *Engine) applyResetPolicy() {
	c := &e.clock
	switch c.Policy {
	case ResetEveryMeasure:
		c.resetCursors()
	case ResetEveryOtherMeasure:
		if c.Measure%2 == 0 {
			c.resetCursors()
		}
	}
}

// trigger moves the output from the previous note to the stage's note.
// Without legato the old note ends first; with legato it ends after the
// new note starts.
func (e *Engine) trigger(st Stage) {
	c := &e.clock
	prev := c.sounding

	if st.Legato <= 0 {
		e.noteOff()
	}

	started := false
	if st.HasNote() {
		row := st.Note
		if st.Random > 0 {
			row = int8(e.rand.Intn(Rows))
		}
		pitch, err := e.mapper.PitchForRow(st, row)
		if err != nil {
			debug.Log("clock", "stage %d: %v", c.Stage, err)
		} else {
			// a slur into the same pitch holds the note it already has
			if st.Legato <= 0 || !prev.on || pitch != prev.pitch {
				e.out.NoteOn(e.channel, pitch, e.mapper.Velocity(st))
			}
			c.sounding = sounding{pitch: pitch, row: int(st.Note), col: c.Stage, on: true}
			e.out.Highlight(int(st.Note), c.Stage, theme.White)
			started = true
		}
	}

	if st.Legato > 0 && prev.on {
		now := c.sounding
		if !started {
			c.sounding = sounding{}
		}
		if !started || now.pitch != prev.pitch {
			e.out.NoteOff(e.channel, prev.pitch)
		}
		if !started || now.row != prev.row || now.col != prev.col {
			e.restoreCell(prev.row, prev.col)
		}
	}
}

// advance walks extend -> repeat -> stage.
func (e *Engine) advance(st Stage) {
	c := &e.clock
	c.Extend++
	if c.Extend > int(st.Extend) {
		c.Extend = 0
		c.Repeat++
		if c.Repeat > int(st.Repeat) {
			c.Repeat = 0
			c.Stage = e.nextStage(c.Stage)
		}
	}
}

// nextStage returns the next stage without a skip marker. When every
// stage is skipped the skip markers are ignored.
func (e *Engine) nextStage(from int) int {
	for i := 1; i <= NumStages; i++ {
		n := (from + i) % NumStages
		if e.stages[n].Skip <= 0 {
			return n
		}
	}
	return (from + 1) % NumStages
}

// noteOff ends the sounding note, if any, and restores its cell.
func (e *Engine) noteOff() {
	s := e.clock.sounding
	if !s.on {
		return
	}
	e.out.NoteOff(e.channel, s.pitch)
	e.restoreCell(s.row, s.col)
	e.clock.sounding = sounding{}
}

func (e *Engine) drawPosition() {
	c := &e.clock
	color := theme.Black
	switch {
	case c.Beat == 0 && c.Tick == 0:
		color = theme.Rainbow[c.Position]
	case c.Tick == 0:
		color = theme.Gray
	}
	e.out.HighlightControl(ControlPosition, color)
}
