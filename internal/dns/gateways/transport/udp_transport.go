package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/haukened/homedns/internal/dns/common/clock"
	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/domain"
	"github.com/haukened/homedns/internal/dns/gateways/wire"
)

// maxPacketSize bounds a single read. Queries carrying EDNS options may
// exceed the classic 512 byte limit.
const maxPacketSize = 4096

// UDPTransport implements ServerTransport for standard DNS over UDP (RFC 1035).
// Datagrams are handled one at a time on a single receive goroutine.
type UDPTransport struct {
	addr    string
	codec   wire.DNSCodec
	handler RequestHandler
	clock   clock.Clock
	logger  log.Logger

	// ctl serializes Start and Stop.
	ctl sync.Mutex

	// mu guards the fields below; the receive loop writes them on exit.
	mu      sync.RWMutex
	state   domain.ServiceState
	bound   string
	since   time.Time
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewUDPTransport creates a stopped UDP transport for addr ("host:port").
func NewUDPTransport(addr string, codec wire.DNSCodec, handler RequestHandler, clk clock.Clock, logger log.Logger) *UDPTransport {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &UDPTransport{
		addr:    addr,
		codec:   codec,
		handler: handler,
		clock:   clk,
		logger:  logger.With(map[string]any{"transport": "udp"}),
		state:   domain.StateStopped,
		since:   clk.Now(),
	}
}

// Start begins listening for UDP DNS queries on the configured address.
func (t *UDPTransport) Start(ctx context.Context) error {
	t.ctl.Lock()
	defer t.ctl.Unlock()

	if t.State() == domain.StateRunning {
		return fmt.Errorf("%w: start while %s", domain.ErrInvalidTransition, domain.StateRunning)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", domain.ErrBind, t.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("%w: listen on %s: %v", domain.ErrBind, t.addr, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	// An expired deadline wakes the blocked read as soon as the run is cancelled.
	stopRead := context.AfterFunc(loopCtx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	done := make(chan struct{})

	t.mu.Lock()
	t.state = domain.StateRunning
	t.bound = conn.LocalAddr().String()
	t.since = t.clock.Now()
	t.lastErr = nil
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	t.logger.Info(map[string]any{
		"address": t.bound,
	}, "DNS transport started")

	go func() {
		defer close(done)
		defer cancel()
		defer stopRead()
		t.listenLoop(loopCtx, conn)
	}()

	return nil
}

// Stop gracefully shuts down the UDP transport and waits for the receive loop.
func (t *UDPTransport) Stop() error {
	t.ctl.Lock()
	defer t.ctl.Unlock()

	t.mu.RLock()
	state, cancel, done := t.state, t.cancel, t.done
	t.mu.RUnlock()

	if state != domain.StateRunning {
		return fmt.Errorf("%w: stop while %s", domain.ErrInvalidTransition, state)
	}

	cancel()
	<-done

	t.logger.Info(map[string]any{
		"address": t.Address(),
	}, "DNS transport stopped")

	return nil
}

// State reports the current lifecycle state.
func (t *UDPTransport) State() domain.ServiceState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *UDPTransport) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr := t.addr
	if t.state == domain.StateRunning {
		addr = t.bound
	}
	return Status{
		State:     t.state,
		Address:   addr,
		Since:     t.since,
		LastError: t.lastErr,
	}
}

// Address returns the network address the transport is bound to.
func (t *UDPTransport) Address() string {
	return t.Status().Address
}

// listenLoop reads and answers datagrams until ctx is cancelled or the socket
// fails. It owns conn and closes it on exit.
func (t *UDPTransport) listenLoop(ctx context.Context, conn *net.UDPConn) {
	var runErr error
	defer func() {
		if err := conn.Close(); err != nil {
			t.logger.Warn(map[string]any{"error": err}, "Error closing UDP connection")
		}
		t.mu.Lock()
		t.state = domain.StateStopped
		t.since = t.clock.Now()
		t.lastErr = runErr
		t.cancel = nil
		t.mu.Unlock()
	}()

	buffer := make([]byte, maxPacketSize)
	for {
		n, clientAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				t.logger.Debug(nil, "UDP transport stopping due to context cancellation")
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			runErr = err
			t.logger.Error(map[string]any{
				"error": err,
			}, "Failed to read UDP packet, stopping transport")
			return
		}
		t.handlePacket(ctx, conn, buffer[:n], clientAddr)
	}
}

// handlePacket processes a single UDP DNS packet.
func (t *UDPTransport) handlePacket(ctx context.Context, conn *net.UDPConn, data []byte, clientAddr *net.UDPAddr) {
	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"size":   len(data),
		"raw":    fmt.Sprintf("%x", data),
	}, "Received raw DNS query data")

	query, err := t.codec.DecodeQuery(data)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err,
			"size":   len(data),
		}, "Dropping undecodable DNS message")
		return
	}

	response := t.handler.HandleQuery(ctx, query, clientAddr)

	responseData, err := t.codec.EncodeResponse(response)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": query.ID,
			"error":    err,
		}, "Failed to encode DNS response")
		return
	}

	if _, err := conn.WriteToUDP(responseData, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": response.ID,
			"error":    err,
		}, "Failed to send DNS response")
		return
	}

	t.logger.Debug(map[string]any{
		"client":   clientAddr.String(),
		"query_id": response.ID,
		"rcode":    response.RCode.String(),
		"answers":  len(response.Answers),
		"size":     len(responseData),
	}, "Sent DNS response")
}

var _ ServerTransport = (*UDPTransport)(nil)
