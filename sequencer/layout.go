package sequencer

import "go-step/midi"

// padTarget says which part of the surface a controller pad belongs to.
type padTarget int

const (
	targetNone padTarget = iota
	targetGrid
	targetSelector
	targetControl
)

// Launchpad X layout: the 8x8 grid is the pattern (row 0 at the bottom is
// the lowest pitch), the scene column holds the marker selectors with
// button 0 at the top, and the top row holds the controls in Control order.
func routePad(row, col int) (padTarget, int) {
	switch {
	case row >= 0 && row < Rows && col >= 0 && col < Columns:
		return targetGrid, 0
	case col == midi.SideCol && row >= 0 && row < NumSelectors:
		return targetSelector, NumSelectors - 1 - row
	case row == midi.TopRow && col >= 0 && col < NumControls:
		return targetControl, col
	}
	return targetNone, 0
}

func selectorPad(button int) (row, col int) {
	return NumSelectors - 1 - button, midi.SideCol
}

func controlPad(ctl Control) (row, col int) {
	return midi.TopRow, int(ctl)
}
