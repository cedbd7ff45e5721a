package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestNoteMapping(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint8(11), rowColToNote(0, 0))
	assert.Equal(uint8(88), rowColToNote(7, 7))
	assert.Equal(uint8(19), rowColToNote(0, SideCol))
	assert.Equal(uint8(91), rowColToNote(TopRow, 0))

	for row := 0; row < GridSize; row++ {
		for col := 0; col <= SideCol; col++ {
			r, c := noteToRowCol(rowColToNote(row, col))
			assert.Equal([2]int{row, col}, [2]int{r, c})
		}
	}

	r, _ := noteToRowCol(5)
	assert.Equal(-1, r)
	r, _ = noteToRowCol(90)
	assert.Equal(-1, r)
}

func TestCCMapping(t *testing.T) {
	row, col := ccToRowCol(98)
	assert.Equal(t, TopRow, row)
	assert.Equal(t, 7, col)

	row, col = ccToRowCol(19)
	assert.Equal(t, 0, row)
	assert.Equal(t, SideCol, col)

	for _, cc := range []uint8{99, 9, 18, 90} {
		row, _ = ccToRowCol(cc)
		assert.Equal(t, -1, row, "cc %d", cc)
	}
}

func TestSideColumnArrivesAsCC(t *testing.T) {
	lp := &LaunchpadController{padChan: make(chan PadEvent, 4)}

	lp.handle(gomidi.ControlChange(0, 89, 127), 0)
	lp.handle(gomidi.ControlChange(0, 89, 0), 0)
	lp.handle(gomidi.NoteOn(0, 49, 100), 0)

	assert.Equal(t, PadEvent{Row: 7, Col: SideCol, Velocity: 127}, <-lp.padChan)
	assert.Equal(t, PadEvent{Row: 7, Col: SideCol}, <-lp.padChan)
	assert.Equal(t, PadEvent{Row: 3, Col: SideCol, Velocity: 100}, <-lp.padChan)
}

func TestLaunchpadDropsInputAfterClose(t *testing.T) {
	lp := &LaunchpadController{padChan: make(chan PadEvent, 4)}
	assert.NoError(t, lp.Close())
	assert.NotPanics(t, func() {
		lp.handle(gomidi.NoteOn(0, 11, 100), 0)
	})
	assert.NoError(t, lp.Close())

	_, open := <-lp.PadEvents()
	assert.False(t, open)
}

func TestNearestPaletteColor(t *testing.T) {
	assert.Equal(t, uint8(0), mapRGBToLaunchpad([3]uint8{0, 0, 0}))
	assert.Equal(t, uint8(119), mapRGBToLaunchpad([3]uint8{250, 250, 250}))
	assert.Equal(t, uint8(5), mapRGBToLaunchpad([3]uint8{240, 10, 10}))
	assert.Equal(t, uint8(21), mapRGBToLaunchpad([3]uint8{0, 255, 0}))
}

func TestPadEventsIncludeReleases(t *testing.T) {
	lp := &LaunchpadController{padChan: make(chan PadEvent, 4)}

	lp.handle(gomidi.NoteOn(0, 34, 100), 0)
	lp.handle(gomidi.NoteOff(0, 34), 0)
	lp.handle(gomidi.ControlChange(0, 95, 127), 0)
	lp.handle(gomidi.ControlChange(0, 95, 0), 0)

	assert.Equal(t, PadEvent{Row: 2, Col: 3, Velocity: 100}, <-lp.padChan)
	release := <-lp.padChan
	assert.False(t, release.Pressed())
	assert.Equal(t, PadEvent{Row: TopRow, Col: 4, Velocity: 127}, <-lp.padChan)
	assert.False(t, (<-lp.padChan).Pressed())
}

func TestRealtimeMessagesMapToTransport(t *testing.T) {
	cases := map[byte]Transport{
		0xF8: TransportClock,
		0xFA: TransportStart,
		0xFB: TransportContinue,
		0xFC: TransportStop,
	}
	for status, want := range cases {
		got, ok := transportFor(gomidi.Message{status})
		assert.True(t, ok, "status %x", status)
		assert.Equal(t, want, got)
	}

	_, ok := transportFor(gomidi.NoteOn(0, 60, 100))
	assert.False(t, ok)
}

func TestClockInputBuffers(t *testing.T) {
	ci, err := NewClockInput("test", nil)
	assert.NoError(t, err)
	ci.push(TransportStart)
	ci.push(TransportClock)
	assert.Equal(t, TransportStart, <-ci.Events())
	assert.Equal(t, TransportClock, <-ci.Events())
	assert.NoError(t, ci.Close())
}

func TestClockInputPushAfterClose(t *testing.T) {
	ci, err := NewClockInput("test", nil)
	assert.NoError(t, err)
	assert.NoError(t, ci.Close())

	assert.NotPanics(t, func() { ci.push(TransportClock) })
	assert.NoError(t, ci.Close())

	_, open := <-ci.Events()
	assert.False(t, open)
}

func TestManualLaunchpadsAreSkipped(t *testing.T) {
	dm := NewDeviceManager("", []string{"Launchpad X LPX MIDI"})
	assert.False(t, dm.autoConnects("Launchpad X LPX MIDI"))
	assert.True(t, dm.autoConnects("Launchpad X LPX MIDI 2"))
	assert.False(t, dm.autoConnects("IAC Driver Bus 1"))
}

func TestIsLaunchpad(t *testing.T) {
	assert.True(t, IsLaunchpad("Launchpad X LPX MIDI"))
	assert.False(t, IsLaunchpad("Launchpad X LPX DAW"))
	assert.False(t, IsLaunchpad("IAC Driver Bus 1"))
}
