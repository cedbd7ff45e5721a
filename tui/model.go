package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-step/config"
	"go-step/midi"
	"go-step/sequencer"
	"go-step/theme"
	"go-step/widgets"
)

// Surface is the part of the runtime the TUI drives.
type Surface interface {
	GridPress(row, col int, pressed bool)
	SelectorPress(button int, pressed bool)
	ControlPress(ctl sequencer.Control, pressed bool)
	Clear()
	SetTempo(bpm int)
	Snapshot() sequencer.Snapshot
	LEDs() map[[2]int]theme.ColorID
	SetController(c midi.Controller)
	SetClockInput(ci *midi.ClockInput)
	OutputPort() string
}

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager
	Config    *config.Config
	Theme     *theme.Theme

	surface    Surface
	keys       keyMap
	help       help.Model
	cursorRow  int
	cursorCol  int
	showStages bool
	quitting   bool
	controller midi.Controller // current controller (may be nil)
	clockIn    string
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, cfg *config.Config, th *theme.Theme) Model {
	m := newModel(manager, th)
	m.Manager = manager
	m.DeviceMgr = deviceMgr
	m.Config = cfg
	return m
}

func newModel(s Surface, th *theme.Theme) Model {
	return Model{
		Theme:     th,
		surface:   s,
		keys:      defaultKeys(),
		help:      help.New(),
		cursorRow: sequencer.Rows - 1,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.Manager != nil {
		cmds = append(cmds, ListenForUpdates(m.Manager))
	}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.surface
	press := func(ctl sequencer.Control) {
		s.ControlPress(ctl, true)
		s.ControlPress(ctl, false)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.cursorRow = min(m.cursorRow+1, sequencer.Rows-1)
	case key.Matches(msg, m.keys.Down):
		m.cursorRow = max(m.cursorRow-1, 0)
	case key.Matches(msg, m.keys.Left):
		m.cursorCol = max(m.cursorCol-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.cursorCol = min(m.cursorCol+1, sequencer.Columns-1)
	case key.Matches(msg, m.keys.Press):
		s.GridPress(m.cursorRow, m.cursorCol, true)
		s.GridPress(m.cursorRow, m.cursorCol, false)
	case key.Matches(msg, m.keys.Selector):
		button := int(msg.String()[0] - '1')
		s.SelectorPress(button, true)
		s.SelectorPress(button, false)
	case key.Matches(msg, m.keys.Play):
		press(sequencer.ControlPlay)
	case key.Matches(msg, m.keys.Panic):
		press(sequencer.ControlPanic)
	case key.Matches(msg, m.keys.Clock):
		press(sequencer.ControlClock)
	case key.Matches(msg, m.keys.Reset):
		press(sequencer.ControlReset)
	case key.Matches(msg, m.keys.PrevPat):
		press(sequencer.ControlPatternDown)
	case key.Matches(msg, m.keys.NextPat):
		press(sequencer.ControlPatternUp)
	case key.Matches(msg, m.keys.TempoUp):
		s.SetTempo(s.Snapshot().Tempo + 5)
	case key.Matches(msg, m.keys.TempoDown):
		s.SetTempo(s.Snapshot().Tempo - 5)
	case key.Matches(msg, m.keys.Clear):
		s.Clear()
	case key.Matches(msg, m.keys.Stages):
		m.showStages = !m.showStages
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleDevice(event midi.DeviceEvent) {
	switch event.Type {
	case midi.DeviceConnected:
		m.controller = event.Controller
		m.surface.SetController(event.Controller)
	case midi.DeviceDisconnected:
		if m.controller != nil && m.controller.ID() == event.ID {
			m.controller = nil
			m.surface.SetController(nil)
		}
	case midi.ClockConnected:
		m.clockIn = event.ID
		m.surface.SetClockInput(event.Clock)
	case midi.ClockDisconnected:
		m.clockIn = ""
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.surface.Snapshot()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header(snap)))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.devices()))
	out.WriteString("\n\n")
	out.WriteString(m.grid(snap))
	out.WriteString("\n")
	out.WriteString(m.playhead(snap))
	out.WriteString("\n\n")
	out.WriteString(m.legend(snap))

	if m.showStages {
		out.WriteString("\n\n")
		out.WriteString(m.stageTable(snap))
	}

	out.WriteString("\n\n")
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) header(s sequencer.Snapshot) string {
	playState := "STOP"
	if s.Running {
		playState = "PLAY"
	}
	return fmt.Sprintf("go-step  %s  %3dbpm  %s clock  reset:%s  pattern:%d  %d.%d",
		playState, s.Tempo, s.Clock, s.Reset, s.Pattern+1, s.Measure+1, s.Beat+1)
}

func (m Model) devices() string {
	parts := []string{"LP:none"}
	if m.controller != nil {
		parts[0] = "LP:" + m.controller.ID()
	}
	if port := m.surface.OutputPort(); port != "" {
		parts = append(parts, "out:"+port)
	}
	if m.clockIn != "" {
		parts = append(parts, "clock:"+m.clockIn)
	}
	return strings.Join(parts, "  ")
}

// grid mirrors the hardware lights, so playing notes show up as they do on
// the pads.
func (m Model) grid(s sequencer.Snapshot) string {
	leds := m.surface.LEDs()
	pad := func(row, col int, cursor bool) widgets.Pad {
		c, ok := leds[[2]int{row, col}]
		if !ok {
			c = theme.Black
		}
		sym := m.Theme.Symbols.Pad
		if c == theme.Black {
			c, sym = theme.DarkGray, m.Theme.Symbols.Empty
		}
		return widgets.Pad{Color: m.Theme.RGB(c), Symbol: sym, Cursor: cursor}
	}

	var grid [8][8]widgets.Pad
	for row := 0; row < sequencer.Rows; row++ {
		for col := 0; col < sequencer.Columns; col++ {
			grid[row][col] = pad(row, col, row == m.cursorRow && col == m.cursorCol)
		}
	}
	var side, top [8]widgets.Pad
	for i := 0; i < 8; i++ {
		side[i] = pad(i, midi.SideCol, false)
		top[i] = pad(midi.TopRow, i, false)
	}
	return widgets.RenderPadGrid(grid, &side, &top)
}

func (m Model) playhead(s sequencer.Snapshot) string {
	cells := make([]string, sequencer.NumStages)
	for i := range cells {
		cells[i] = " "
		if s.Running && i == s.Stage {
			cells[i] = string(m.Theme.Symbols.Playing)
		}
	}
	return lipgloss.NewStyle().Foreground(m.Theme.Active()).Render(strings.Join(cells, " "))
}

func (m Model) legend(s sequencer.Snapshot) string {
	lines := []string{fmt.Sprintf("marker: %s", s.Marker)}
	for b := 0; b < sequencer.NumSelectors; b++ {
		primary, _ := sequencer.Primary(b)
		name := primary.String()
		if alt := primary.Alternate(); alt != primary {
			name += "/" + alt.String()
		}
		p := widgets.Pad{Color: m.Theme.RGB(primary.Color()), Symbol: m.Theme.Symbols.Pad}
		lines = append(lines, widgets.RenderLegendItem(p, fmt.Sprintf("%d", b+1), name))
	}
	return strings.Join(lines, "\n")
}

// stageTable is the per-stage counter readout.
func (m Model) stageTable(s sequencer.Snapshot) string {
	rows := [][]string{{"", "1", "2", "3", "4", "5", "6", "7", "8"}}
	fields := []struct {
		name string
		get  func(st sequencer.Stage) int8
	}{
		{"note", func(st sequencer.Stage) int8 { return st.Note }},
		{"oct", func(st sequencer.Stage) int8 { return st.Octave }},
		{"acc", func(st sequencer.Stage) int8 { return st.Accidental }},
		{"vel", func(st sequencer.Stage) int8 { return st.Velocity }},
		{"ext", func(st sequencer.Stage) int8 { return st.Extend }},
		{"rep", func(st sequencer.Stage) int8 { return st.Repeat }},
		{"tie", func(st sequencer.Stage) int8 { return st.Tie }},
		{"skip", func(st sequencer.Stage) int8 { return st.Skip }},
		{"leg", func(st sequencer.Stage) int8 { return st.Legato }},
		{"rnd", func(st sequencer.Stage) int8 { return st.Random }},
	}
	for _, f := range fields {
		row := []string{f.name}
		for _, st := range s.Stages {
			v := f.get(st)
			if f.name == "note" && v == sequencer.NoNote {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%d", v))
		}
		rows = append(rows, row)
	}
	return widgets.RenderTable(rows, lipgloss.NewStyle().Foreground(m.Theme.Muted()))
}
