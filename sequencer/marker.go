package sequencer

import (
	"fmt"

	"go-step/theme"
)

// Marker identifies what a grid cell does to its column's stage.
type Marker uint8

const (
	MarkerOff Marker = iota
	MarkerNote
	MarkerSharp
	MarkerFlat
	MarkerOctaveUp
	MarkerOctaveDown
	MarkerVelocityUp
	MarkerVelocityDown
	MarkerExtend
	MarkerRepeat
	MarkerTie
	MarkerSkip
	MarkerLegato
	MarkerRandom

	NumMarkers = int(MarkerRandom) + 1
)

// markerInfo is the dispatch table entry for a marker kind.
type markerInfo struct {
	name  string
	color theme.ColorID
	alt   Marker // selected by pressing the same selector again; self if none

	// counter markers adjust one stage field by sign per cell
	field func(s *Stage) *int8
	sign  int8
}

var markers = [NumMarkers]markerInfo{
	MarkerOff:          {name: "off", color: theme.Black},
	MarkerNote:         {name: "note", color: theme.SkyBlue},
	MarkerSharp:        {name: "sharp", color: theme.Cyan, field: stageAccidental, sign: 1},
	MarkerFlat:         {name: "flat", color: theme.DimCyan, field: stageAccidental, sign: -1},
	MarkerOctaveUp:     {name: "octave-up", color: theme.Orange, field: stageOctave, sign: 1},
	MarkerOctaveDown:   {name: "octave-down", color: theme.DimOrange, field: stageOctave, sign: -1},
	MarkerVelocityUp:   {name: "velocity-up", color: theme.Green, field: stageVelocity, sign: 1},
	MarkerVelocityDown: {name: "velocity-down", color: theme.DimGreen, field: stageVelocity, sign: -1},
	MarkerExtend:       {name: "extend", color: theme.DimBlue, field: stageExtend, sign: 1},
	MarkerRepeat:       {name: "repeat", color: theme.Pink, field: stageRepeat, sign: 1},
	MarkerTie:          {name: "tie", color: theme.Purple, field: stageTie, sign: 1},
	MarkerSkip:         {name: "skip", color: theme.Red, field: stageSkip, sign: 1},
	MarkerLegato:       {name: "legato", color: theme.DarkGray, field: stageLegato, sign: 1},
	MarkerRandom:       {name: "random", color: theme.Yellow, field: stageRandom, sign: 1},
}

func stageAccidental(s *Stage) *int8 { return &s.Accidental }
func stageOctave(s *Stage) *int8 { return &s.Octave }
func stageVelocity(s *Stage) *int8 { return &s.Velocity }
func stageExtend(s *Stage) *int8 { return &s.Extend }
func stageRepeat(s *Stage) *int8 { return &s.Repeat }
func stageTie(s *Stage) *int8 { return &s.Tie }
func stageSkip(s *Stage) *int8 { return &s.Skip }
func stageLegato(s *Stage) *int8 { return &s.Legato }
func stageRandom(s *Stage) *int8 { return &s.Random }

func init() {
	pairs := [][2]Marker{
		{MarkerSharp, MarkerFlat},
		{MarkerOctaveUp, MarkerOctaveDown},
		{MarkerVelocityUp, MarkerVelocityDown},
		{MarkerExtend, MarkerRepeat},
		{MarkerTie, MarkerSkip},
		{MarkerLegato, MarkerRandom},
	}
	for i := range markers {
		markers[i].alt = Marker(i)
	}
	for _, p := range pairs {
		markers[p[0]].alt = p[1]
		markers[p[1]].alt = p[0]
	}
}

// NumSelectors is the number of marker selector buttons.
const NumSelectors = 8

// primaries maps selector buttons to the marker they select first.
var primaries = [NumSelectors]Marker{
	MarkerOff,
	MarkerNote,
	MarkerSharp,
	MarkerOctaveUp,
	MarkerVelocityUp,
	MarkerExtend,
	MarkerTie,
	MarkerLegato,
}

// Primary returns the marker a selector button starts from.
func Primary(button int) (Marker, bool) {
	if button < 0 || button >= NumSelectors {
		return MarkerOff, false
	}
	return primaries[button], true
}

// Valid reports whether m is a known marker id.
func (m Marker) Valid() bool {
	return int(m) < NumMarkers
}

// Alternate returns the marker reached by pressing m's selector again.
func (m Marker) Alternate() Marker {
	if !m.Valid() {
		return m
	}
	return markers[m].alt
}

// Color is the logical color a cell carrying m is drawn with.
func (m Marker) Color() theme.ColorID {
	if !m.Valid() {
		return theme.Black
	}
	return markers[m].color
}

func (m Marker) String() string {
	if !m.Valid() {
		return fmt.Sprintf("marker(%d)", uint8(m))
	}
	return markers[m].name
}

// ParseMarker looks a marker up by name.
func ParseMarker(name string) (Marker, bool) {
	for i := range markers {
		if markers[i].name == name {
			return Marker(i), true
		}
	}
	return MarkerOff, false
}

func (m Marker) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid marker %d", uint8(m))
	}
	return []byte(markers[m].name), nil
}

// UnmarshalText accepts any string; unknown names load as MarkerOff.
func (m *Marker) UnmarshalText(text []byte) error {
	parsed, _ := ParseMarker(string(text))
	*m = parsed
	return nil
}
