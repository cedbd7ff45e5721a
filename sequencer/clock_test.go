package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-step/theme"
)

const pulsesPerMeasure = TicksPerBeat * BeatsPerMeasure

func TestSingleNotePlaysOncePerCycle(t *testing.T) {
	assert := assert.New(t)
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)

	e.Transport(TransportStart)
	pulses(e, NumStages*TicksPerStep)
	require.Len(t, rec.noteOns(), 1)
	assert.Equal(noteEvent{on: true, pitch: 60, velocity: 63}, rec.noteOns()[0])

	// a measure of sixteenths covers the eight stages twice
	pulses(e, pulsesPerMeasure-NumStages*TicksPerStep)
	assert.Equal([]noteEvent{
		{on: true, pitch: 60, velocity: 63},
		{pitch: 60},
		{on: true, pitch: 60, velocity: 63},
		{pitch: 60},
	}, rec.notes)
}

func TestEveryStageSoundsInOrder(t *testing.T) {
	e, rec := newTestEngine()
	for col := 0; col < Columns; col++ {
		place(e, MarkerNote, col, col)
	}

	e.Transport(TransportStart)
	pulses(e, NumStages*TicksPerStep)

	var got []uint8
	for _, n := range rec.noteOns() {
		got = append(got, n.pitch)
	}
	assert.Equal(t, []uint8{60, 62, 64, 65, 67, 69, 71, 72}, got)
}

func TestNotOneNoteWhileStopped(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	pulses(e, pulsesPerMeasure)
	assert.Empty(t, rec.notes)
}

func TestPlayingCellHighlightsWhite(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 3, 0)
	e.Transport(TransportStart)

	e.TimerTick()
	assert.Equal(t, theme.White, rec.cells[[2]int{3, 0}])

	pulses(e, TicksPerStep)
	assert.Equal(t, MarkerNote.Color(), rec.cells[[2]int{3, 0}])
}

func TestExtendHoldsNote(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerExtend, 1, 0)

	e.Transport(TransportStart)
	pulses(e, 2*TicksPerStep)
	assert.Len(t, rec.notes, 1, "still sounding through the extension")

	e.TimerTick()
	assert.Equal(t, []noteEvent{{on: true, pitch: 60, velocity: 63}, {pitch: 60}}, rec.notes)
	assert.Equal(t, 2, e.clock.Stage)
}

func TestRepeatRetriggers(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerRepeat, 1, 0)
	place(e, MarkerRepeat, 2, 0)

	e.Transport(TransportStart)
	pulses(e, 3*TicksPerStep)
	assert.Len(t, rec.noteOns(), 3)
	assert.Equal(t, 1, e.clock.Stage)
}

func TestTieSustainsPreviousNote(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerNote, 4, 1)
	place(e, MarkerTie, 7, 1)

	e.Transport(TransportStart)
	pulses(e, 2*TicksPerStep)
	assert.Equal(t, []noteEvent{{on: true, pitch: 60, velocity: 63}}, rec.notes)

	e.TimerTick()
	assert.Equal(t, noteEvent{pitch: 60}, rec.notes[1])
}

func TestLegatoOverlapsNotes(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerNote, 2, 1)
	place(e, MarkerLegato, 7, 1)

	e.Transport(TransportStart)
	pulses(e, TicksPerStep+1)
	assert.Equal(t, []noteEvent{
		{on: true, pitch: 60, velocity: 63},
		{on: true, pitch: 64, velocity: 63},
		{pitch: 60},
	}, rec.notes)
	assert.Equal(t, MarkerNote.Color(), rec.cells[[2]int{0, 0}])
	assert.Equal(t, theme.White, rec.cells[[2]int{2, 1}])
}

func TestLegatoIntoSamePitchKeepsSounding(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerNote, 0, 1)
	place(e, MarkerLegato, 7, 1)

	e.Transport(TransportStart)
	pulses(e, TicksPerStep+1)
	assert.Equal(t, []noteEvent{{on: true, pitch: 60, velocity: 63}}, rec.notes)
	assert.Equal(t, theme.White, rec.cells[[2]int{0, 1}])
	assert.Equal(t, MarkerNote.Color(), rec.cells[[2]int{0, 0}])

	pulses(e, TicksPerStep)
	assert.Equal(t, []noteEvent{
		{on: true, pitch: 60, velocity: 63},
		{pitch: 60},
	}, rec.notes)
}

func TestSkipPassesOverStage(t *testing.T) {
	e, rec := newTestEngine()
	for col := 0; col < 3; col++ {
		place(e, MarkerNote, col, col)
	}
	place(e, MarkerSkip, 7, 1)

	e.Transport(TransportStart)
	pulses(e, TicksPerStep+1)
	ons := rec.noteOns()
	require.Len(t, ons, 2)
	assert.Equal(t, uint8(64), ons[1].pitch)
	assert.Equal(t, 3, e.clock.Stage)
}

func TestSkipEverywhereIsIgnored(t *testing.T) {
	e, _ := newTestEngine()
	for col := 0; col < Columns; col++ {
		place(e, MarkerSkip, 7, col)
	}

	e.Transport(TransportStart)
	e.TimerTick()
	assert.Equal(t, 1, e.clock.Stage)
}

func TestRandomDrawsScaleRow(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerRandom, 7, 0)

	scale := map[uint8]bool{60: true, 62: true, 64: true, 65: true, 67: true, 69: true, 71: true, 72: true}
	e.Transport(TransportStart)
	pulses(e, 4*pulsesPerMeasure)

	ons := rec.noteOns()
	require.Len(t, ons, 8)
	for _, n := range ons {
		assert.True(t, scale[n.pitch], "pitch %d", n.pitch)
	}
}

func TestEmptyGridIsSilent(t *testing.T) {
	e, rec := newTestEngine()
	e.Transport(TransportStart)

	pulses(e, pulsesPerMeasure)
	assert.Empty(t, rec.notes)
	assert.Len(t, rec.positions, 16)
	assert.Equal(t, 1, e.clock.Measure)
}

func TestRandomWithoutNoteIsSilent(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerRandom, 7, 0)
	e.Transport(TransportStart)
	pulses(e, pulsesPerMeasure)
	assert.Empty(t, rec.notes)
}

func TestOutOfRangePitchIsSkipped(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 7, 0)
	for row := 0; row < 6; row++ {
		place(e, MarkerOctaveUp, row, 0)
	}

	e.Transport(TransportStart)
	pulses(e, pulsesPerMeasure)
	assert.Empty(t, rec.notes)
	assert.Equal(t, 1, e.clock.Measure, "playback carries on")
}

func TestVelocityMarkersReachOutput(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	place(e, MarkerVelocityUp, 1, 0)

	e.Transport(TransportStart)
	e.TimerTick()
	assert.Equal(t, uint8(94), rec.noteOns()[0].velocity)
}

func TestChannelSetting(t *testing.T) {
	rec := newRecorder()
	s := DefaultSettings()
	s.Channel = 9
	e := NewEngine(rec, s)
	place(e, MarkerNote, 0, 0)

	e.Transport(TransportStart)
	e.TimerTick()
	assert.Equal(t, uint8(9), rec.noteOns()[0].channel)
}

func TestStopReleasesNote(t *testing.T) {
	assert := assert.New(t)
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	e.Transport(TransportStart)
	e.TimerTick()

	e.Transport(TransportStop)
	assert.Equal([]noteEvent{{on: true, pitch: 60, velocity: 63}, {pitch: 60}}, rec.notes)
	assert.Equal(theme.Black, rec.controls[ControlPosition])
	assert.Equal(MarkerNote.Color(), rec.cells[[2]int{0, 0}])

	e.Transport(TransportStop)
	assert.Len(rec.notes, 2, "stopping twice sends nothing more")
}

func TestContinueResumesWhereStopped(t *testing.T) {
	e, _ := newTestEngine()
	e.Transport(TransportStart)
	pulses(e, 3*TicksPerStep)
	e.Transport(TransportStop)
	pulses(e, pulsesPerMeasure)

	e.Transport(TransportContinue)
	assert.Equal(t, 3, e.clock.Stage)
	e.TimerTick()
	assert.Equal(t, 4, e.clock.Stage)
}

func TestStartRewinds(t *testing.T) {
	e, _ := newTestEngine()
	e.Transport(TransportStart)
	pulses(e, pulsesPerMeasure+TicksPerStep*3)

	e.Transport(TransportStart)
	c := e.Clock()
	assert.Equal(t, 0, c.Stage)
	assert.Equal(t, 0, c.Measure)
	assert.Equal(t, 0, c.Tick)
}

func TestExternalClockDrivesPlayback(t *testing.T) {
	rec := newRecorder()
	s := DefaultSettings()
	s.Source = ClockExternal
	e := NewEngine(rec, s)
	place(e, MarkerNote, 0, 0)

	e.Transport(TransportStart)
	pulses(e, pulsesPerMeasure)
	assert.Empty(t, rec.notes, "timer ticks are ignored")

	e.Transport(TransportClock)
	assert.Len(t, rec.noteOns(), 1)
}

func TestInternalClockIgnoresExternalPulses(t *testing.T) {
	e, rec := newTestEngine()
	place(e, MarkerNote, 0, 0)
	e.Transport(TransportStart)
	e.Transport(TransportClock)
	assert.Empty(t, rec.notes)
}

func TestMeasureCounting(t *testing.T) {
	e, _ := newTestEngine()
	e.Transport(TransportStart)
	pulses(e, 2*pulsesPerMeasure+TicksPerBeat+1)

	c := e.Clock()
	assert.Equal(t, 2, c.Measure)
	assert.Equal(t, 1, c.Beat)
	assert.Equal(t, 1, c.Tick)
	assert.Equal(t, 2, c.Position)
}

func TestPositionIndicator(t *testing.T) {
	e, rec := newTestEngine()
	e.Transport(TransportStart)

	pulses(e, pulsesPerMeasure+1)
	// one update per sixteenth
	require.Len(t, rec.positions, 17)
	assert.Equal(t, theme.Rainbow[0], rec.positions[0])
	assert.Equal(t, theme.Black, rec.positions[1])
	assert.Equal(t, theme.Gray, rec.positions[4])
	assert.Equal(t, theme.Rainbow[1], rec.positions[16])
}

// extendedFirstStage makes stage 0 last three steps so a ten-step cycle
// drifts against the sixteen-step measure.
func extendedFirstStage(e *Engine) {
	place(e, MarkerNote, 0, 0)
	place(e, MarkerExtend, 1, 0)
	place(e, MarkerExtend, 2, 0)
}

func TestResetPolicies(t *testing.T) {
	cases := []struct {
		policy ResetPolicy
		stages []int // cursor after the first step of measures 1, 2 and 3
	}{
		{ResetNone, []int{5, 1, 7}},
		{ResetEveryMeasure, []int{0, 0, 0}},
		{ResetEveryOtherMeasure, []int{5, 0, 5}},
	}
	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			rec := newRecorder()
			s := DefaultSettings()
			s.ResetPolicy = tc.policy
			e := NewEngine(rec, s)
			extendedFirstStage(e)

			e.Transport(TransportStart)
			pulses(e, pulsesPerMeasure)
			for i, want := range tc.stages {
				e.TimerTick()
				assert.Equal(t, want, e.clock.Stage, "measure %d", i+1)
				pulses(e, pulsesPerMeasure-1)
			}
		})
	}
}

func TestCursorOutOfRangePanics(t *testing.T) {
	e, _ := newTestEngine()
	e.Transport(TransportStart)
	e.clock.Stage = NumStages
	assert.Panics(t, func() { e.TimerTick() })
}

func TestParseHelpers(t *testing.T) {
	p, err := ParseResetPolicy("every-other-measure")
	assert.NoError(t, err)
	assert.Equal(t, ResetEveryOtherMeasure, p)
	_, err = ParseResetPolicy("sometimes")
	assert.Error(t, err)

	src, err := ParseClockSource("external")
	assert.NoError(t, err)
	assert.Equal(t, ClockExternal, src)

	ev, ok := ParseTransport("continue")
	assert.True(t, ok)
	assert.Equal(t, TransportContinue, ev)
	_, ok = ParseTransport("rewind")
	assert.False(t, ok)
}
