package midi

// Transport is a realtime message from an external clock source.
type Transport int

const (
	TransportStart Transport = iota
	TransportStop
	TransportContinue
	TransportClock
)

func (t Transport) String() string {
	switch t {
	case TransportStart:
		return "start"
	case TransportStop:
		return "stop"
	case TransportContinue:
		return "continue"
	case TransportClock:
		return "clock"
	}
	return "transport(?)"
}
