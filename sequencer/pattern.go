package sequencer

import (
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	Rows        = 8
	Columns     = 8
	NumStages   = Columns
	NumPatterns = 8

	blobVersion = 1
)

// ErrBlobVersion is returned when a persisted blob has an unknown version.
var ErrBlobVersion = errors.New("unsupported pattern blob version")

// Pattern is one 8x8 grid of marker assignments, indexed [row][column].
type Pattern [Rows][Columns]Marker

// Empty reports whether no cell carries a marker.
func (p *Pattern) Empty() bool {
	for row := range p {
		for col := range p[row] {
			if p[row][col] != MarkerOff {
				return false
			}
		}
	}
	return true
}

// PatternStore holds every grid; exactly one is active at a time.
// Patterns are pure data: the live StageModel is derived by the engine.
type PatternStore struct {
	patterns [NumPatterns]Pattern
	active   int
}

// Active returns the index of the pattern being played and edited.
func (s *PatternStore) Active() int {
	return s.active
}

// Pattern returns a copy of the grid at index i.
func (s *PatternStore) Pattern(i int) Pattern {
	if i < 0 || i >= NumPatterns {
		return Pattern{}
	}
	return s.patterns[i]
}

// Cell returns the marker at a cell, or MarkerOff if out of range.
func (s *PatternStore) Cell(pattern, row, col int) Marker {
	if !validPattern(pattern) || !inGrid(row, col) {
		return MarkerOff
	}
	return s.patterns[pattern][row][col]
}

// SetCell writes a cell. Out-of-range writes are ignored.
func (s *PatternStore) SetCell(pattern, row, col int, m Marker) bool {
	if !validPattern(pattern) || !inGrid(row, col) || !m.Valid() {
		return false
	}
	s.patterns[pattern][row][col] = m
	return true
}

// ContentMask reports which patterns have any marker set.
func (s *PatternStore) ContentMask() [NumPatterns]bool {
	var mask [NumPatterns]bool
	for i := range s.patterns {
		mask[i] = !s.patterns[i].Empty()
	}
	return mask
}

func (s *PatternStore) setActive(i int) bool {
	if !validPattern(i) {
		return false
	}
	s.active = i
	return true
}

func (s *PatternStore) clear() {
	s.patterns = [NumPatterns]Pattern{}
}

// patternBlob is the persisted layout handed to storage.
type patternBlob struct {
	Version  int       `json:"version"`
	Active   int       `json:"active"`
	Patterns []Pattern `json:"patterns"`
}

// Encode serializes every pattern and the active index.
func (s *PatternStore) Encode() ([]byte, error) {
	blob := patternBlob{
		Version:  blobVersion,
		Active:   s.active,
		Patterns: s.patterns[:],
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, errors.Wrap(err, "encode patterns")
	}
	return data, nil
}

// decodePatterns parses a blob. Missing patterns load empty, extra ones and
// unknown marker names are dropped, and a bad active index falls back to 0.
func decodePatterns(data []byte) (patterns [NumPatterns]Pattern, active int, err error) {
	var blob patternBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return patterns, 0, errors.Wrap(err, "decode patterns")
	}
	if blob.Version != blobVersion {
		return patterns, 0, errors.Wrapf(ErrBlobVersion, "version %d", blob.Version)
	}
	copy(patterns[:], blob.Patterns)
	if validPattern(blob.Active) {
		active = blob.Active
	}
	return patterns, active, nil
}

func validPattern(i int) bool {
	return i >= 0 && i < NumPatterns
}

func inGrid(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Columns
}
