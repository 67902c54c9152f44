// Package transport owns the network side of the responder: it binds the
// socket, converts datagrams to domain objects and back, and runs the
// Stopped/Running lifecycle of the listener.
package transport

import (
	"context"
	"net"
	"time"

	"github.com/haukened/homedns/internal/dns/domain"
)

// ServerTransport is the service control surface of a DNS listener.
type ServerTransport interface {
	// Start binds the socket and launches the receive loop. It is only valid
	// while stopped. Cancelling ctx later has the same effect as Stop.
	Start(ctx context.Context) error

	// Stop ends the receive loop and releases the socket. It is only valid
	// while running and returns once the loop has exited.
	Stop() error

	// State reports whether the listener is running.
	State() domain.ServiceState

	// Status returns a snapshot of the lifecycle.
	Status() Status

	// Address returns the bound address while running, or the configured one.
	Address() string
}

// RequestHandler builds the response for one decoded query. The transport
// handles every protocol detail; the handler only sees domain objects.
type RequestHandler interface {
	HandleQuery(ctx context.Context, query domain.Query, clientAddr net.Addr) domain.Response
}

// Status is a point-in-time view of a listener.
type Status struct {
	State   domain.ServiceState
	Address string
	// Since is when the listener last changed state.
	Since time.Time
	// LastError is the read error that ended the previous run, if any.
	LastError error
}
