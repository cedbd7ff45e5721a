package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ColorID is a logical color; the renderer maps it to a hardware light.
type ColorID uint8

const (
	Black ColorID = iota
	DarkGray
	Gray
	White
	Red
	Orange
	Yellow
	Green
	Cyan
	Blue
	Purple
	Magenta
	DimRed
	DimOrange
	DimYellow
	DimGreen
	DimCyan
	DimBlue
	DimPurple
	DimMagenta
	SkyBlue
	Pink
	DimPink

	NumColors = int(DimPink) + 1
)

var colorNames = [NumColors]string{
	"black", "dark-gray", "gray", "white", "red", "orange", "yellow", "green",
	"cyan", "blue", "purple", "magenta", "dim-red", "dim-orange", "dim-yellow",
	"dim-green", "dim-cyan", "dim-blue", "dim-purple", "dim-magenta",
	"sky-blue", "pink", "dim-pink",
}

func (c ColorID) String() string {
	if int(c) < NumColors {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// Rainbow is the cycle used by the transport position indicator.
var Rainbow = []ColorID{Red, Orange, Yellow, Green, Cyan, Blue, Purple, Magenta}

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Pad     rune // ■ lit pad
	Empty   rune // · off pad
	Playing rune // ▶ stage playhead
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Pad:     '■',
			Empty:   '·',
			Playing: '▶',
		},
	}
}

// Color roles for the terminal UI
const (
	RoleFG      = White
	RoleAccent  = SkyBlue
	RoleMuted   = Gray
	RoleActive  = White
	RoleWarning = Orange
	RoleSuccess = Green
)

// RGB returns the raw color for a logical id (for the controller).
func (t *Theme) RGB(c ColorID) RGB {
	return t.Palette.Index(int(c))
}

// Color returns the lipgloss color for a logical id.
func (t *Theme) Color(c ColorID) lipgloss.Color {
	return rgbToLipgloss(t.RGB(c))
}

func (t *Theme) FG() lipgloss.Color { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color { return t.Color(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
