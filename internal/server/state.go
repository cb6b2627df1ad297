package server

// State is a connection handler's lifecycle phase.
type State int

const (
	StateAccepted State = iota
	StateReading
	StateQuerying
	StateResponding
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateReading:
		return "reading"
	case StateQuerying:
		return "querying"
	case StateResponding:
		return "responding"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
