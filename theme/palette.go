package theme

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type RGB [3]uint8

// Palette maps logical color ids to RGB values. Index i is ColorID(i).
type Palette struct {
	Name   string
	Colors []RGB
}

// LED levels in the 6-bit units the grid hardware works in.
const (
	cHi  = 63
	cMid = 12
	cLo  = 2
)

// builtin is the default palette, in 6-bit LED units, indexed by ColorID.
var builtin = [NumColors][3]uint8{
	Black:      {0, 0, 0},
	DarkGray:   {cLo, cLo, cLo},
	Gray:       {cMid, cMid, cMid},
	White:      {cHi, cHi, cHi},
	Red:        {cHi, 0, 0},
	Orange:     {63, 10, 0},
	Yellow:     {cHi, cHi, 0},
	Green:      {0, cHi, 0},
	Cyan:       {0, cHi, cHi},
	Blue:       {0, 0, cHi},
	Purple:     {10, 0, 63},
	Magenta:    {cHi, 0, cHi},
	DimRed:     {cMid, 0, 0},
	DimOrange:  {20, 4, 0},
	DimYellow:  {cMid, cMid, 0},
	DimGreen:   {0, cMid, 0},
	DimCyan:    {0, cMid, cMid},
	DimBlue:    {0, 0, cMid},
	DimPurple:  {4, 0, 20},
	DimMagenta: {cMid, 0, cMid},
	SkyBlue:    {8, 18, 63},
	Pink:       {63, 16, 16},
	DimPink:    {20, 6, 6},
}

// DefaultPalette returns the built-in palette scaled to 8-bit RGB.
func DefaultPalette() *Palette {
	p := &Palette{Name: "builtin", Colors: make([]RGB, NumColors)}
	for i, c := range builtin {
		p.Colors[i] = RGB{scale6(c[0]), scale6(c[1]), scale6(c[2])}
	}
	return p
}

func scale6(v uint8) uint8 {
	return uint8(int(v) * 255 / cHi)
}

// LoadGPL reads a GIMP palette. Colors are taken in file order, so the
// n-th entry overrides ColorID(n).
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open palette")
	}
	defer f.Close()

	p := &Palette{}
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= 3 {
			r, err1 := strconv.Atoi(fields[0])
			g, err2 := strconv.Atoi(fields[1])
			b, err3 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil && err3 == nil {
				p.Colors = append(p.Colors, RGB{uint8(r), uint8(g), uint8(b)})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read palette %s", path)
	}

	if len(p.Colors) == 0 {
		return nil, errors.Errorf("no colors found in palette %s", path)
	}

	return p, nil
}

// Merge returns a palette with the colors of p overriding the default ones.
// Ids beyond len(p.Colors) keep their default color.
func (p *Palette) Merge() *Palette {
	out := DefaultPalette()
	out.Name = p.Name
	for i := 0; i < len(p.Colors) && i < len(out.Colors); i++ {
		out.Colors[i] = p.Colors[i]
	}
	return out
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}
