package midi

import (
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-step/debug"
)

// ClockInput listens for start/stop/continue and timing clock messages on
// an input port.
type ClockInput struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	mu     sync.Mutex
	closed bool
	events chan Transport
}

// NewClockInput opens inPort and starts listening. A nil port yields an
// input that never fires.
func NewClockInput(id string, inPort drivers.In) (*ClockInput, error) {
	ci := &ClockInput{
		id:     id,
		inPort: inPort,
		events: make(chan Transport, 96),
	}

	if inPort != nil {
		// realtime messages are filtered by the driver unless timecode is on
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if t, ok := transportFor(msg); ok {
				ci.push(t)
			}
		}, gomidi.UseTimeCode())
		if err != nil {
			return nil, errors.Wrapf(err, "listen %s", id)
		}
		ci.stopFunc = stop
	}

	return ci, nil
}

func transportFor(msg gomidi.Message) (Transport, bool) {
	switch {
	case msg.Is(gomidi.TimingClockMsg):
		return TransportClock, true
	case msg.Is(gomidi.StartMsg):
		return TransportStart, true
	case msg.Is(gomidi.StopMsg):
		return TransportStop, true
	case msg.Is(gomidi.ContinueMsg):
		return TransportContinue, true
	}
	return 0, false
}

func (ci *ClockInput) push(t Transport) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if ci.closed {
		return
	}
	select {
	case ci.events <- t:
	default:
		debug.LogEvery(24, "clock-in", "event buffer full, dropped %s", t)
	}
}

func (ci *ClockInput) ID() string {
	return ci.id
}

// Events delivers transport messages in arrival order.
func (ci *ClockInput) Events() <-chan Transport {
	return ci.events
}

// Close stops listening and ends Events. Messages the driver delivers after
// Close are dropped.
func (ci *ClockInput) Close() error {
	if ci.stopFunc != nil {
		ci.stopFunc()
	}
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if !ci.closed {
		ci.closed = true
		close(ci.events)
	}
	return nil
}
