package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderTableRightAligns(t *testing.T) {
	assert := assert.New(t)
	out := RenderTable([][]string{
		{"", "1", "2"},
		{"note", "0", "-"},
		{"vel", "-12", "3"},
	}, lipgloss.NewStyle())

	lines := strings.Split(out, "\n")
	assert.Len(lines, 3)
	for _, l := range lines {
		assert.Equal(lipgloss.Width(lines[0]), lipgloss.Width(l))
	}
	assert.Contains(lines[2], " vel -12 3")
	assert.Empty(RenderTable(nil, lipgloss.NewStyle()))
}

func TestRenderPadGridShape(t *testing.T) {
	assert := assert.New(t)
	var grid [8][8]Pad
	for r := range grid {
		for c := range grid[r] {
			grid[r][c] = Pad{Symbol: '·'}
		}
	}
	grid[0][0].Symbol = '#'
	side := [8]Pad{}
	for i := range side {
		side[i] = Pad{Symbol: 'o'}
	}

	lines := strings.Split(RenderPadGrid(grid, &side, nil), "\n")
	assert.Len(lines, 8)
	// row 0 is drawn last
	assert.Contains(lines[7], "#")
	assert.NotContains(lines[0], "#")
	assert.Contains(lines[0], "o")

	withTop := strings.Split(RenderPadGrid(grid, nil, &side), "\n")
	assert.Len(withTop, 10)
	assert.Empty(withTop[1])
	assert.NotContains(withTop[2], "o")
}
