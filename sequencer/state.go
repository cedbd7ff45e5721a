package sequencer

// Snapshot is a read-only copy of engine state for the UI and remote API.
type Snapshot struct {
	Tempo   int  `json:"tempo"`
	Running bool `json:"running"`

	Source ClockSource `json:"-"`
	Policy ResetPolicy `json:"-"`
	Clock  string      `json:"clock"`
	Reset  string      `json:"reset"`

	Measure int `json:"measure"`
	Beat    int `json:"beat"`
	Tick    int `json:"tick"`

	// Cursor
	Stage  int `json:"stage"`
	Repeat int `json:"repeat"`
	Extend int `json:"extend"`

	Marker   Marker `json:"marker"`
	Selector int    `json:"selector"`

	Pattern  int               `json:"pattern"`
	Content  [NumPatterns]bool `json:"content"`
	Grid     Pattern           `json:"grid"`
	Stages   StageModel        `json:"stages"`
	Sounding int               `json:"sounding"` // MIDI pitch, or -1
}

// Snapshot copies the current engine state. Tempo is filled by the host.
func (e *Engine) Snapshot() Snapshot {
	c := &e.clock
	s := Snapshot{
		Running:  c.Running,
		Source:   e.source,
		Policy:   c.Policy,
		Clock:    e.source.String(),
		Reset:    c.Policy.String(),
		Measure:  c.Measure,
		Beat:     c.Beat,
		Tick:     c.Tick,
		Stage:    c.Stage,
		Repeat:   c.Repeat,
		Extend:   c.Extend,
		Marker:   e.current,
		Selector: e.selector,
		Pattern:  e.patterns.Active(),
		Content:  e.patterns.ContentMask(),
		Grid:     e.patterns.Pattern(e.patterns.Active()),
		Stages:   e.stages,
		Sounding: -1,
	}
	if c.sounding.on {
		s.Sounding = int(c.sounding.pitch)
	}
	return s
}

// Stages returns a copy of the live stage model.
func (e *Engine) Stages() StageModel {
	return e.stages
}

// Clock returns a copy of the playback clock.
func (e *Engine) Clock() PlaybackClock {
	return e.clock
}
