package sequencer

// NoNote is the Stage.Note value when no pitch marker is set.
const NoNote int8 = -1

// Stage holds the musical attributes of one sequencer column. All fields
// except Note count the cells in the column that carry the marker.
type Stage struct {
	NoteCount  int8 `json:"noteCount"`
	Note       int8 `json:"note"` // pitch row, or NoNote
	Octave     int8 `json:"octave"`
	Velocity   int8 `json:"velocity"`
	Accidental int8 `json:"accidental"`
	Extend     int8 `json:"extend"`
	Repeat     int8 `json:"repeat"`
	Tie        int8 `json:"tie"`
	Legato     int8 `json:"legato"`
	Skip       int8 `json:"skip"`
	Random     int8 `json:"random"`
}

// EmptyStage returns a stage with no markers applied.
func EmptyStage() Stage {
	return Stage{Note: NoNote}
}

// HasNote reports whether the stage should sound a pitch.
func (s Stage) HasNote() bool {
	return s.NoteCount > 0 && s.Note != NoNote
}

// StageModel is the live, derived per-column state. It is never persisted.
type StageModel [NumStages]Stage

// Reset clears every stage.
func (m *StageModel) Reset() {
	for i := range m {
		m[i] = EmptyStage()
	}
}
