package domain

// ServiceState is the lifecycle state of the listener service.
type ServiceState uint8

const (
	// StateStopped is both the initial and the terminal state.
	StateStopped ServiceState = iota
	// StateRunning means the socket is bound and the receive loop is alive.
	StateRunning
)

func (s ServiceState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}
