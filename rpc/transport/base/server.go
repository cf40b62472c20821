package base

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"golang.org/x/sys/unix"
)

// maxIdleBuffer is the capacity above which an emptied buffer is released
const maxIdleBuffer = 1 << 20

var (
	connectionsAccepted = metrics.GetOrCreateCounter("zkv_connections_accepted_total")
	connectionsActive   = metrics.GetOrCreateCounter("zkv_connections_active")
	protocolErrors      = metrics.GetOrCreateCounter("zkv_protocol_errors_total")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a bound, listening and non-blocking socket
	Listen(config common.ServerConfig) (fd int, addr net.Addr, err error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific options to an accepted socket
	UpgradeConnection(fd int, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport is a single threaded reactor. One goroutine runs the poll
// loop and executes every handler call, so the handler needs no locking.
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig

	listenFd int
	wakeR    int     // read end of the self pipe, polled by the loop
	conns    []*conn // indexed by fd
	pollFds  []unix.PollFd

	wakeMu sync.Mutex // guards wakeW
	wakeW  int        // write end of the self pipe, written by Shutdown

	addr      atomic.Pointer[net.Addr]
	started   atomic.Bool
	stopping  atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	stopOnce  sync.Once
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a poll based server transport using the
// given connector to create and tune sockets
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		listenFd:  -1,
		wakeR:     -1,
		wakeW:     -1,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Ready() <-chan struct{} {
	return t.ready
}

func (t *serverTransport) Addr() net.Addr {
	if addr := t.addr.Load(); addr != nil {
		return *addr
	}
	return nil
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	// waiters on Ready must not hang when Listen fails, they see a nil Addr
	defer t.markReady()

	if t.handler == nil {
		return errors.New("no handler registered")
	}
	if !t.started.CompareAndSwap(false, true) {
		return errors.New("transport already started")
	}
	defer close(t.done)

	if config.ReadChunkSize <= 0 {
		config.ReadChunkSize = common.DefaultReadChunkSize
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = common.MaxMessageSize
	}
	t.config = config

	var pipe [2]int
	if err := unix.Pipe(pipe[:]); err != nil {
		return fmt.Errorf("failed to create wakeup pipe: %w", err)
	}
	t.wakeR = pipe[0]
	t.wakeMu.Lock()
	t.wakeW = pipe[1]
	t.wakeMu.Unlock()
	for _, fd := range pipe {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			t.cleanup()
			return fmt.Errorf("failed to configure wakeup pipe: %w", err)
		}
	}

	fd, addr, err := t.connector.Listen(config)
	if err != nil {
		t.cleanup()
		return fmt.Errorf("failed to create listener: %w", err)
	}
	t.listenFd = fd
	t.addr.Store(&addr)

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), addr)
	t.markReady()

	err = t.loop()
	t.cleanup()
	return err
}

func (t *serverTransport) Shutdown() error {
	t.stopOnce.Do(func() {
		t.stopping.Store(true)
		if !t.started.Load() {
			t.markReady()
			return
		}
		// a loop that has not created the pipe yet sees stopping instead
		t.wakeMu.Lock()
		if t.wakeW >= 0 {
			_, _ = unix.Write(t.wakeW, []byte{0})
		}
		t.wakeMu.Unlock()
		<-t.done
	})
	return nil
}

func (t *serverTransport) markReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

// --------------------------------------------------------------------------
// Event loop
// --------------------------------------------------------------------------

// loop waits for readiness and dispatches events until Shutdown is called
func (t *serverTransport) loop() error {
	for !t.stopping.Load() {
		// wakeup pipe and listener first, then one entry per connection
		t.pollFds = append(t.pollFds[:0],
			unix.PollFd{Fd: int32(t.wakeR), Events: unix.POLLIN},
			unix.PollFd{Fd: int32(t.listenFd), Events: unix.POLLIN},
		)
		for _, c := range t.conns {
			if c != nil {
				t.pollFds = append(t.pollFds, unix.PollFd{Fd: int32(c.fd), Events: c.events()})
			}
		}

		if _, err := unix.Poll(t.pollFds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll failed: %v", err)
		}

		if t.pollFds[0].Revents != 0 {
			t.drainWakeup()
		}
		if t.pollFds[1].Revents != 0 {
			t.acceptAll()
		}

		for _, pfd := range t.pollFds[2:] {
			if pfd.Revents == 0 {
				continue
			}
			c := t.conns[pfd.Fd]
			switch c.state {
			case stateReading:
				t.onReadable(c)
			case stateWriting:
				t.onWritable(c)
			}
			// errors normally surface through the read or write above
			if c.state != stateClosing && pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				c.state = stateClosing
			}
			if c.state == stateClosing {
				t.destroy(c)
			}
		}
	}
	return nil
}

// acceptAll accepts pending connections until the backlog is empty
func (t *serverTransport) acceptAll() {
	for {
		fd, _, err := unix.Accept(t.listenFd)
		switch {
		case errors.Is(err, unix.EAGAIN):
			return
		case errors.Is(err, unix.EINTR) || errors.Is(err, unix.ECONNABORTED):
			continue
		case err != nil:
			Logger.Errorf("Accept error: %v", err)
			return
		}

		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			Logger.Errorf("Failed to set non-blocking mode on fd %d: %v", fd, err)
			_ = unix.Close(fd)
			continue
		}
		if err := t.connector.UpgradeConnection(fd, t.config); err != nil {
			Logger.Warningf("Failed to apply socket options on fd %d: %v", fd, err)
		}

		if fd >= len(t.conns) {
			t.conns = append(t.conns, make([]*conn, fd-len(t.conns)+1)...)
		}
		t.conns[fd] = newConn(fd)
		connectionsAccepted.Inc()
		connectionsActive.Inc()
		Logger.Debugf("Accepted connection on fd %d", fd)
	}
}

// destroy closes a connection and forgets its state
func (t *serverTransport) destroy(c *conn) {
	_ = unix.Close(c.fd)
	t.conns[c.fd] = nil
	connectionsActive.Dec()
	Logger.Debugf("Closed connection on fd %d", c.fd)
}

func (t *serverTransport) drainWakeup() {
	var buf [64]byte
	for {
		if n, err := unix.Read(t.wakeR, buf[:]); n <= 0 || err != nil {
			return
		}
	}
}

// cleanup closes every descriptor owned by the transport
func (t *serverTransport) cleanup() {
	for _, c := range t.conns {
		if c != nil {
			t.destroy(c)
		}
	}
	t.wakeMu.Lock()
	defer t.wakeMu.Unlock()
	for _, fd := range []*int{&t.listenFd, &t.wakeR, &t.wakeW} {
		if *fd >= 0 {
			_ = unix.Close(*fd)
			*fd = -1
		}
	}
}
