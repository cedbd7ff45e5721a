package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pad is one cell in a rendered grid.
type Pad struct {
	Color  [3]uint8
	Symbol rune
	Cursor bool
}

// RenderPad renders a single colored pad
func RenderPad(p Pad) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(p.Color)))
	if p.Cursor {
		style = style.Reverse(true)
	}
	return style.Render(string(p.Symbol))
}

// RenderPadRow renders a row of colored pads with spacing
func RenderPadRow(pads []Pad) string {
	var out strings.Builder
	for i, p := range pads {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(p))
	}
	return out.String()
}

// RenderPadGrid renders an 8x8 grid of pads (row 0 at bottom, row 7 at top).
// Optional rightCol adds a 9th column (scene buttons) and optional top adds
// the control row above the grid.
func RenderPadGrid(grid [8][8]Pad, rightCol *[8]Pad, top *[8]Pad) string {
	var lines []string
	if top != nil {
		lines = append(lines, RenderPadRow(top[:]), "")
	}
	for row := 7; row >= 0; row-- {
		line := RenderPadRow(grid[row][:])
		if rightCol != nil {
			line += "  " + RenderPad(rightCol[row])
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(p Pad, name, desc string) string {
	if desc == "" {
		return fmt.Sprintf("  %s %s", RenderPad(p), name)
	}
	return fmt.Sprintf("  %s %s - %s", RenderPad(p), name, desc)
}

// RenderTable renders rows of cells with columns padded to a common width.
// The first row is styled as a header.
func RenderTable(rows [][]string, header lipgloss.Style) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, 0, len(rows[0]))
	for _, r := range rows {
		for i, cell := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var lines []string
	for n, r := range rows {
		var line strings.Builder
		for i, cell := range r {
			if i > 0 {
				line.WriteString(" ")
			}
			line.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
			line.WriteString(cell)
		}
		if n == 0 {
			lines = append(lines, header.Render(line.String()))
		} else {
			lines = append(lines, line.String())
		}
	}
	return strings.Join(lines, "\n")
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
