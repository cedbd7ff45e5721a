package sequencer

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-step/debug"
	"go-step/midi"
	"go-step/theme"
)

// LED refresh rate
const ledFPS = 30

// Tempo limits for the internal timer
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// ManagerConfig configures the runtime around an Engine.
type ManagerConfig struct {
	Settings      Settings
	Tempo         int
	Storage       Storage // nil disables persistence
	AutosaveDelay time.Duration
	Theme         *theme.Theme
}

// Manager runs an Engine: it serializes every input onto one event loop,
// drives the internal timer, renders the engine's lights to the controller
// and its notes to the synth port.
type Manager struct {
	engine *Engine
	mu     sync.Mutex // held while the engine runs; readers take it for snapshots
	tempo  int

	theme      *theme.Theme
	controller midi.Controller

	// LED frame written by the engine, flushed at fixed FPS
	ledMu    sync.Mutex
	frame    map[[2]int]theme.ColorID
	prevLEDs map[[2]int]midi.LEDUpdate // for diffing
	ledDirty bool

	// synth output
	sendMu   sync.RWMutex
	send     func(gomidi.Message) error
	portName string

	storage  Storage
	autosave func(f func())

	events      chan func(e *Engine)
	tempoChange chan struct{}
	done        chan struct{}

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager and its engine. Nothing runs until Run.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Theme == nil {
		cfg.Theme = theme.New(nil)
	}
	if cfg.AutosaveDelay <= 0 {
		cfg.AutosaveDelay = 2 * time.Second
	}
	m := &Manager{
		tempo:       clamp(cfg.Tempo, MinTempo, MaxTempo),
		theme:       cfg.Theme,
		frame:       make(map[[2]int]theme.ColorID),
		prevLEDs:    make(map[[2]int]midi.LEDUpdate),
		storage:     cfg.Storage,
		autosave:    debounce.New(cfg.AutosaveDelay),
		events:      make(chan func(e *Engine), 256),
		tempoChange: make(chan struct{}, 1),
		done:        make(chan struct{}),
		UpdateChan:  make(chan struct{}, 1),
	}
	if cfg.Tempo == 0 {
		m.tempo = DefaultTempo
	}
	m.engine = NewEngine(m, cfg.Settings)
	m.engine.Redraw()
	return m
}

// Run drives the event loop, the internal timer and the LED loop until ctx
// is cancelled. On exit the sounding note is released and a final save is
// written.
func (m *Manager) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); m.timerLoop(ctx) }()
	go func() { defer wg.Done(); m.ledLoop(ctx) }()

	m.eventLoop(ctx)
	close(m.done)
	wg.Wait()

	m.mu.Lock()
	m.engine.Transport(TransportStop)
	m.mu.Unlock()
	m.flushLEDs()
	m.save()
}

func (m *Manager) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-m.events:
			m.mu.Lock()
			fn(m.engine)
			m.mu.Unlock()
			m.notifyUpdate()
		}
	}
}

// post queues fn behind every earlier event.
func (m *Manager) post(fn func(e *Engine)) {
	select {
	case m.events <- fn:
	case <-m.done:
	}
}

// call posts fn and waits for it to run.
func (m *Manager) call(fn func(e *Engine)) bool {
	ran := make(chan struct{})
	m.post(func(e *Engine) {
		fn(e)
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-m.done:
		return false
	}
}

// edit posts a pattern-changing fn and schedules an autosave after it.
func (m *Manager) edit(fn func(e *Engine)) {
	m.post(func(e *Engine) {
		fn(e)
		if m.storage != nil {
			m.autosave(m.save)
		}
	})
}

func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Input

func (m *Manager) GridPress(row, col int, pressed bool) {
	m.edit(func(e *Engine) { e.GridPress(row, col, pressed) })
}

func (m *Manager) SelectorPress(button int, pressed bool) {
	m.post(func(e *Engine) { e.SelectorPress(button, pressed) })
}

func (m *Manager) ControlPress(ctl Control, pressed bool) {
	switch ctl {
	case ControlPatternDown, ControlPatternUp:
		m.edit(func(e *Engine) { e.ControlPress(ctl, pressed) })
	default:
		m.post(func(e *Engine) { e.ControlPress(ctl, pressed) })
	}
}

func (m *Manager) Transport(ev TransportEvent) {
	m.post(func(e *Engine) { e.Transport(ev) })
}

func (m *Manager) SelectPattern(i int) {
	m.edit(func(e *Engine) { e.SelectPattern(i) })
}

func (m *Manager) SetClockSource(s ClockSource) {
	m.post(func(e *Engine) { e.SetClockSource(s) })
}

func (m *Manager) SetResetPolicy(p ResetPolicy) {
	m.post(func(e *Engine) { e.SetResetPolicy(p) })
}

func (m *Manager) Panic() {
	m.post(func(e *Engine) { e.Panic() })
}

// Clear empties every pattern.
func (m *Manager) Clear() {
	m.edit(func(e *Engine) { e.Clear() })
}

// ExportPatterns returns the encoded pattern table.
func (m *Manager) ExportPatterns() ([]byte, error) {
	var blob []byte
	var err error
	if !m.call(func(e *Engine) { blob, err = e.EncodePatterns() }) {
		return nil, errors.New("manager stopped")
	}
	return blob, err
}

// ImportPatterns replaces the pattern table. It waits for the result.
func (m *Manager) ImportPatterns(blob []byte) error {
	var err error
	if !m.call(func(e *Engine) { err = e.LoadPatterns(blob) }) {
		return errors.New("manager stopped")
	}
	if err == nil && m.storage != nil {
		m.autosave(m.save)
	}
	return err
}

// Restore loads the newest stored patterns. Call before Run. A store with
// no saves leaves the engine empty.
func (m *Manager) Restore() error {
	if m.storage == nil {
		return nil
	}
	blob, err := m.storage.LoadPatterns()
	if errors.Is(err, ErrNoSaves) {
		return nil
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.LoadPatterns(blob)
}

func (m *Manager) save() {
	if m.storage == nil {
		return
	}
	m.mu.Lock()
	blob, err := m.engine.EncodePatterns()
	m.mu.Unlock()
	if err == nil {
		err = m.storage.SavePatterns(blob)
	}
	if err != nil {
		debug.Log("storage", "autosave failed: %v", err)
		return
	}
	debug.Log("storage", "saved %d bytes", len(blob))
}

// Snapshot returns a consistent copy of the engine state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.engine.Snapshot()
	s.Tempo = m.tempo
	return s
}

// Timing

// SetTempo sets the BPM of the internal clock
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	m.tempo = clamp(bpm, MinTempo, MaxTempo)
	m.mu.Unlock()

	select {
	case m.tempoChange <- struct{}{}:
	default:
	}
	m.notifyUpdate()
}

func (m *Manager) Tempo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// tickInterval is the period of one clock pulse: 60 / (bpm * 24) seconds.
func tickInterval(bpm int) time.Duration {
	return time.Minute / time.Duration(bpm*TicksPerBeat)
}

func (m *Manager) timerLoop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval(m.Tempo()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.tempoChange:
			ticker.Reset(tickInterval(m.Tempo()))
		case <-ticker.C:
			m.post(func(e *Engine) { e.TimerTick() })
		}
	}
}

// Devices

// SetController attaches a grid controller and routes its pads into the
// event loop. The full frame is resent.
func (m *Manager) SetController(c midi.Controller) {
	debug.Log("ctrl", "SetController called, resetting diff state")
	m.ledMu.Lock()
	m.controller = c
	m.prevLEDs = make(map[[2]int]midi.LEDUpdate)
	m.ledDirty = true
	m.ledMu.Unlock()

	if c != nil {
		go m.padLoop(c)
	}
}

func (m *Manager) padLoop(c midi.Controller) {
	for ev := range c.PadEvents() {
		m.routePadEvent(ev)
	}
}

func (m *Manager) routePadEvent(ev midi.PadEvent) {
	target, idx := routePad(ev.Row, ev.Col)
	switch target {
	case targetGrid:
		m.GridPress(ev.Row, ev.Col, ev.Pressed())
	case targetSelector:
		m.SelectorPress(idx, ev.Pressed())
	case targetControl:
		m.ControlPress(Control(idx), ev.Pressed())
	default:
		debug.Log("input", "unmapped pad %d,%d", ev.Row, ev.Col)
	}
}

// SetClockInput forwards an external transport source into the event loop.
func (m *Manager) SetClockInput(ci *midi.ClockInput) {
	if ci == nil {
		return
	}
	go func() {
		for t := range ci.Events() {
			m.Transport(transportFromMIDI(t))
		}
	}()
}

func transportFromMIDI(t midi.Transport) TransportEvent {
	switch t {
	case midi.TransportStart:
		return TransportStart
	case midi.TransportStop:
		return TransportStop
	case midi.TransportContinue:
		return TransportContinue
	}
	return TransportClock
}

// SetOutputPort opens the synth output port; an empty name picks the first
// non-Launchpad port.
func (m *Manager) SetOutputPort(name string) error {
	port, ok := midi.FindOutPort(name)
	if !ok {
		return errors.Errorf("no output port matching %q", name)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return errors.Wrapf(err, "open %s", port.String())
	}
	m.SetSender(port.String(), send)
	return nil
}

// SetSender installs the function notes are written with.
func (m *Manager) SetSender(portName string, send func(gomidi.Message) error) {
	m.sendMu.Lock()
	m.send = send
	m.portName = portName
	m.sendMu.Unlock()
	debug.Log("midi", "output %s", portName)
}

// OutputPort returns the name of the open synth port, if any.
func (m *Manager) OutputPort() string {
	m.sendMu.RLock()
	defer m.sendMu.RUnlock()
	return m.portName
}

// Output implementation. The engine only calls these from the event loop.

func (m *Manager) sendMsg(msg gomidi.Message) {
	m.sendMu.RLock()
	send := m.send
	m.sendMu.RUnlock()
	if send == nil {
		return
	}
	if err := send(msg); err != nil {
		debug.Log("midi", "send %s: %v", msg, err)
	}
}

func (m *Manager) NoteOn(channel, pitch, velocity uint8) {
	m.sendMsg(gomidi.NoteOn(channel, pitch, velocity))
}

func (m *Manager) NoteOff(channel, pitch uint8) {
	m.sendMsg(gomidi.NoteOff(channel, pitch))
}

func (m *Manager) ControlChange(channel, controller, value uint8) {
	m.sendMsg(gomidi.ControlChange(channel, controller, value))
}

func (m *Manager) Highlight(row, col int, c theme.ColorID) {
	m.setLED(row, col, c)
}

func (m *Manager) HighlightSelector(button int, c theme.ColorID) {
	row, col := selectorPad(button)
	m.setLED(row, col, c)
}

func (m *Manager) HighlightControl(ctl Control, c theme.ColorID) {
	row, col := controlPad(ctl)
	m.setLED(row, col, c)
}

func (m *Manager) setLED(row, col int, c theme.ColorID) {
	m.ledMu.Lock()
	m.frame[[2]int{row, col}] = c
	m.ledDirty = true
	m.ledMu.Unlock()
}

// LEDs returns a copy of the current light frame keyed by controller
// row/col.
func (m *Manager) LEDs() map[[2]int]theme.ColorID {
	m.ledMu.Lock()
	defer m.ledMu.Unlock()
	out := make(map[[2]int]theme.ColorID, len(m.frame))
	for k, v := range m.frame {
		out[k] = v
	}
	return out
}

// ledLoop runs at fixed FPS and flushes LED updates
func (m *Manager) ledLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.flushLEDs()
		}
	}
}

// flushLEDs sends only changed LEDs to the controller (diffing + batching)
func (m *Manager) flushLEDs() {
	m.ledMu.Lock()
	if !m.ledDirty || m.controller == nil {
		m.ledMu.Unlock()
		return
	}
	m.ledDirty = false

	var updates []midi.LEDUpdate
	for key, c := range m.frame {
		led := midi.LEDUpdate{
			Row:     key[0],
			Col:     key[1],
			Color:   m.theme.RGB(c),
			Channel: midi.ChannelStatic,
		}
		if prev, ok := m.prevLEDs[key]; !ok || prev != led {
			updates = append(updates, led)
			m.prevLEDs[key] = led
		}
	}
	controller := m.controller
	m.ledMu.Unlock()

	if len(updates) > 0 {
		debug.Log("led", "flushLEDs: batch=%d", len(updates))
		if err := controller.SetLEDBatch(updates); err != nil {
			debug.Log("led", "flush: %v", err)
		}
	}
}
