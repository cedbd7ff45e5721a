package sequencer

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var (
	ErrNoNote     = errors.New("stage has no note")
	ErrPitchRange = errors.New("pitch outside MIDI range")
)

// majorScale maps a pitch row to semitones above the octave root.
var majorScale = [Rows]int{0, 2, 4, 5, 7, 9, 11, 12}

const (
	DefaultOctave   = 5
	DefaultVelocity = 63
	VelocityDelta   = 31
)

// NoteMapper turns stage attributes into MIDI pitch and velocity.
type NoteMapper struct {
	DefaultOctave   int
	DefaultVelocity int
	VelocityDelta   int
}

func DefaultNoteMapper() NoteMapper {
	return NoteMapper{
		DefaultOctave:   DefaultOctave,
		DefaultVelocity: DefaultVelocity,
		VelocityDelta:   VelocityDelta,
	}
}

// Pitch returns the MIDI note for the stage's pitch row.
func (m NoteMapper) Pitch(s Stage) (uint8, error) {
	return m.PitchForRow(s, s.Note)
}

// PitchForRow computes the pitch as if row were the stage's pitch row.
// Out-of-range results are an error, never wrapped into range.
func (m NoteMapper) PitchForRow(s Stage, row int8) (uint8, error) {
	if row == NoNote {
		return 0, ErrNoNote
	}
	if row < 0 || int(row) >= Rows {
		return 0, errors.Errorf("pitch row %d outside scale", row)
	}
	p := (int(s.Octave)+m.DefaultOctave)*12 + majorScale[row] + int(s.Accidental)
	if p < 0 || p > 127 {
		return 0, errors.Wrapf(ErrPitchRange, "pitch %d", p)
	}
	return uint8(p), nil
}

// Velocity returns the note-on velocity, always within [1, 127].
func (m NoteMapper) Velocity(s Stage) uint8 {
	v := m.DefaultVelocity + int(s.Velocity)*m.VelocityDelta
	return uint8(clamp(v, 1, 127))
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
