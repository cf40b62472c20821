package base

import (
	"errors"
	"slices"

	"github.com/ValentinKolb/zKV/rpc/serializer"
	"golang.org/x/sys/unix"
)

// connState decides which readiness event a connection waits for
type connState int

const (
	stateReading connState = iota // waiting for requests (POLLIN)
	stateWriting                  // flushing responses (POLLOUT)
	stateClosing                  // torn down on the next loop pass
)

func (s connState) String() string {
	switch s {
	case stateReading:
		return "reading"
	case stateWriting:
		return "writing"
	default:
		return "closing"
	}
}

// conn is the state of one accepted socket. It is owned by the event loop
// and never touched from another goroutine.
type conn struct {
	fd       int
	state    connState
	incoming []byte // received bytes not yet forming a complete frame
	outgoing []byte // encoded response frames
	sent     int    // bytes of outgoing already written
}

func newConn(fd int) *conn {
	return &conn{fd: fd, state: stateReading}
}

// events returns the poll interest for the current state
func (c *conn) events() int16 {
	if c.state == stateWriting {
		return unix.POLLOUT
	}
	return unix.POLLIN
}

// --------------------------------------------------------------------------
// Readiness handlers
// --------------------------------------------------------------------------

// onReadable reads once, dispatches every complete frame and starts
// flushing if responses are pending.
func (t *serverTransport) onReadable(c *conn) {
	chunk := t.config.ReadChunkSize
	c.incoming = slices.Grow(c.incoming, chunk)
	buf := c.incoming[len(c.incoming):cap(c.incoming)]

	n, err := unix.Read(c.fd, buf)
	switch {
	case errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR):
		return
	case err != nil:
		Logger.Debugf("Read error on fd %d: %v", c.fd, err)
		c.state = stateClosing
		return
	case n == 0:
		if len(c.incoming) > 0 {
			Logger.Debugf("Unexpected EOF on fd %d with %d bytes pending", c.fd, len(c.incoming))
			protocolErrors.Inc()
		}
		c.state = stateClosing
		return
	}
	c.incoming = c.incoming[:len(c.incoming)+n]

	t.processFrames(c)

	if c.state == stateReading && len(c.outgoing) > 0 {
		c.state = stateWriting
		t.onWritable(c)
	}
}

// processFrames handles all complete frames of the receive buffer in order
func (t *serverTransport) processFrames(c *conn) {
	consumed := 0
	for c.state != stateClosing {
		body, n, err := serializer.ReadFrame(c.incoming[consumed:], t.config.MaxMessageSize)
		if err != nil {
			Logger.Debugf("Dropping fd %d: %v", c.fd, err)
			protocolErrors.Inc()
			c.state = stateClosing
			break
		}
		if n == 0 {
			break // need more data
		}

		var start int
		c.outgoing, start = serializer.BeginFrame(c.outgoing)
		c.outgoing, err = t.handler(body, c.outgoing)
		if err != nil {
			Logger.Debugf("Dropping fd %d: %v", c.fd, err)
			protocolErrors.Inc()
			c.outgoing = c.outgoing[:start]
			c.state = stateClosing
			break
		}
		serializer.EndFrame(c.outgoing, start)
		consumed += n
	}

	// keep the partial frame at the front of the buffer
	c.incoming = c.incoming[:copy(c.incoming, c.incoming[consumed:])]
	if len(c.incoming) == 0 && cap(c.incoming) > maxIdleBuffer {
		c.incoming = nil
	}
}

// onWritable writes as much pending output as the socket takes
func (t *serverTransport) onWritable(c *conn) {
	n, err := unix.Write(c.fd, c.outgoing[c.sent:])
	switch {
	case errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR):
		return
	case err != nil:
		// EPIPE included, the peer is gone
		Logger.Debugf("Write error on fd %d: %v", c.fd, err)
		c.state = stateClosing
		return
	}

	c.sent += n
	if c.sent < len(c.outgoing) {
		return
	}

	c.outgoing, c.sent = c.outgoing[:0], 0
	if cap(c.outgoing) > maxIdleBuffer {
		c.outgoing = nil
	}
	c.state = stateReading
}
