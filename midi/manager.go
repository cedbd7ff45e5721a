package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-step/debug"
)

// DeviceEvent is emitted when controllers or clock inputs come and go
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller  // set for controller connects
	Clock      *ClockInput // set for clock input connects
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
	ClockConnected
	ClockDisconnected
)

// DeviceManager handles hot-plug detection of Launchpads and the external
// clock input.
type DeviceManager struct {
	controllers map[string]Controller
	clock       *ClockInput
	clockPort   string // substring match, empty disables
	manual      map[string]bool
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
}

// NewDeviceManager creates a new device manager. clockPort selects the input
// port used for external transport; it never matches a Launchpad. Launchpads
// whose port name is in manual are never connected.
func NewDeviceManager(clockPort string, manual []string) *DeviceManager {
	skip := make(map[string]bool, len(manual))
	for _, name := range manual {
		skip[name] = true
	}
	return &DeviceManager{
		controllers: make(map[string]Controller),
		clockPort:   strings.ToLower(clockPort),
		manual:      skip,
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

type portsResult struct {
	inPorts  []drivers.In
	outPorts []drivers.Out
}

// listPorts enumerates ports with a timeout (CoreMIDI can hang)
func listPorts(timeout time.Duration) (portsResult, bool) {
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, true
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		debug.Log("devices", "port scan timed out")
		return portsResult{}, false
	}
}

func (dm *DeviceManager) scan() {
	ports, ok := listPorts(3 * time.Second)
	if !ok {
		return
	}

	seenIDs := make(map[string]bool)
	clockSeen := false

	for i, inPort := range ports.inPorts {
		id := inPort.String()
		name := strings.ToLower(id)

		if IsLaunchpad(name) {
			if dm.autoConnects(id) {
				seenIDs[id] = true
				dm.connectLaunchpad(id, ports.inPorts[i], matchOut(name, ports.outPorts))
			}
			continue
		}

		if dm.clockPort != "" && strings.Contains(name, dm.clockPort) && !clockSeen {
			clockSeen = true
			dm.connectClock(id, ports.inPorts[i])
		}
	}

	dm.dropMissing(seenIDs, clockSeen)
}

// autoConnects reports whether the input port id is a Launchpad the manager
// should open on its own.
func (dm *DeviceManager) autoConnects(id string) bool {
	return IsLaunchpad(id) && !dm.manual[id]
}

func matchOut(name string, outPorts []drivers.Out) drivers.Out {
	for j, op := range outPorts {
		if strings.ToLower(op.String()) == name {
			return outPorts[j]
		}
	}
	return nil
}

func (dm *DeviceManager) connectLaunchpad(id string, in drivers.In, out drivers.Out) {
	dm.mu.RLock()
	_, exists := dm.controllers[id]
	dm.mu.RUnlock()
	if exists {
		return
	}

	lp, err := NewLaunchpadController(id, in, out)
	if err != nil {
		debug.Log("devices", "launchpad %s: %v", id, err)
		return
	}

	dm.mu.Lock()
	dm.controllers[id] = lp
	dm.mu.Unlock()

	debug.Log("devices", "connected %s", id)
	dm.events <- DeviceEvent{Type: DeviceConnected, Controller: lp, ID: id}
}

func (dm *DeviceManager) connectClock(id string, in drivers.In) {
	dm.mu.RLock()
	connected := dm.clock != nil
	dm.mu.RUnlock()
	if connected {
		return
	}

	ci, err := NewClockInput(id, in)
	if err != nil {
		debug.Log("devices", "clock %s: %v", id, err)
		return
	}

	dm.mu.Lock()
	dm.clock = ci
	dm.mu.Unlock()

	debug.Log("devices", "clock input %s", id)
	dm.events <- DeviceEvent{Type: ClockConnected, Clock: ci, ID: id}
}

func (dm *DeviceManager) dropMissing(seenIDs map[string]bool, clockSeen bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}

	if dm.clock != nil && !clockSeen {
		id := dm.clock.ID()
		dm.clock.Close()
		dm.clock = nil
		dm.events <- DeviceEvent{Type: ClockDisconnected, ID: id}
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
	if dm.clock != nil {
		dm.clock.Close()
		dm.clock = nil
	}
}

// IsLaunchpad reports whether a port name belongs to a Launchpad X MIDI port.
func IsLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

// FindOutPort returns the first output port whose name contains name
// (case-insensitive), or the first port at all when name is empty.
func FindOutPort(name string) (drivers.Out, bool) {
	ports, ok := listPorts(3 * time.Second)
	if !ok {
		return nil, false
	}
	name = strings.ToLower(name)
	for _, p := range ports.outPorts {
		pname := strings.ToLower(p.String())
		if IsLaunchpad(pname) {
			continue
		}
		if name == "" || strings.Contains(pname, name) {
			return p, true
		}
	}
	return nil, false
}

// PortNames lists input and output port names.
func PortNames() (ins, outs []string, ok bool) {
	ports, ok := listPorts(3 * time.Second)
	if !ok {
		return nil, nil, false
	}
	for _, p := range ports.inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range ports.outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, true
}

// FindLaunchpad returns the first Launchpad's input and matching output.
func FindLaunchpad() (drivers.In, drivers.Out, bool) {
	ports, ok := listPorts(3 * time.Second)
	if !ok {
		return nil, nil, false
	}
	for _, in := range ports.inPorts {
		name := strings.ToLower(in.String())
		if IsLaunchpad(name) {
			return in, matchOut(name, ports.outPorts), true
		}
	}
	return nil, nil, false
}
