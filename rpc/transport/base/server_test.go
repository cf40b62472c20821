package base

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// --------------------------------------------------------------------------
// Test connectors
// --------------------------------------------------------------------------

// loopbackConnector listens on an ephemeral IPv4 loopback port
type loopbackConnector struct{}

func (loopbackConnector) GetName() string { return "loopback" }

func (loopbackConnector) Listen(common.ServerConfig) (int, net.Addr, error) {
	fd, err := ListenSocket(unix.AF_INET, &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}})
	if err != nil {
		return -1, nil, err
	}
	addr, err := LocalAddr(fd)
	return fd, addr, err
}

func (loopbackConnector) UpgradeConnection(int, common.ServerConfig) error { return nil }

// failConnector cannot bind its endpoint
type failConnector struct{ loopbackConnector }

func (failConnector) Listen(common.ServerConfig) (int, net.Addr, error) {
	return -1, nil, unix.EADDRINUSE
}

type dialConnector struct{}

func (dialConnector) GetName() string { return "loopback" }

func (dialConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (dialConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

// upperHandler replies with the upper cased request, "fail" is a protocol
// error and "big:" asks for a 4 MiB reply
func upperHandler(req []byte, out []byte) ([]byte, error) {
	switch {
	case string(req) == "fail":
		return out, errors.New("malformed")
	case string(req) == "big":
		return append(out, bytes.Repeat([]byte{'x'}, 4<<20)...), nil
	default:
		return append(out, bytes.ToUpper(req)...), nil
	}
}

func startServer(t *testing.T, handler transport.ServerHandleFunc, config common.ServerConfig) transport.IRPCServerTransport {
	t.Helper()

	srv := NewBaseServerTransport(loopbackConnector{})
	srv.RegisterHandler(handler)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(config) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("listen failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	t.Cleanup(func() {
		assert.NoError(t, srv.Shutdown())
		assert.NoError(t, <-errCh)
	})
	return srv
}

func dial(t *testing.T, srv transport.IRPCServerTransport) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestServerPipelinedRequestsKeepOrder(t *testing.T) {
	srv := startServer(t, upperHandler, common.DefaultServerConfig())
	conn := dial(t, srv)

	var batch []byte
	words := []string{"one", "two", "three", "", "four"}
	for _, w := range words {
		batch = serializer.AppendFrame(batch, []byte(w))
	}
	_, err := conn.Write(batch)
	require.NoError(t, err)

	for _, w := range words {
		resp, err := readFrame(conn, common.MaxMessageSize)
		require.NoError(t, err)
		assert.Equal(t, string(bytes.ToUpper([]byte(w))), string(resp))
	}
}

func TestServerFrameSplitAcrossReads(t *testing.T) {
	config := common.DefaultServerConfig()
	config.ReadChunkSize = 3
	srv := startServer(t, upperHandler, config)
	conn := dial(t, srv)

	frame := serializer.AppendFrame(nil, []byte("hello world"))
	for _, b := range frame {
		_, err := conn.Write([]byte{b})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	resp, err := readFrame(conn, common.MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", string(resp))
}

func TestServerLargeResponse(t *testing.T) {
	srv := startServer(t, upperHandler, common.DefaultServerConfig())
	conn := dial(t, srv)

	require.NoError(t, writeFrame(conn, []byte("big")))
	resp, err := readFrame(conn, common.MaxMessageSize)
	require.NoError(t, err)
	assert.Len(t, resp, 4<<20)

	// the connection is usable after the flush
	require.NoError(t, writeFrame(conn, []byte("ok")))
	resp, err = readFrame(conn, common.MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(resp))
}

func TestServerClosesOnProtocolErrors(t *testing.T) {
	config := common.DefaultServerConfig()
	config.MaxMessageSize = 16

	tests := []struct {
		name string
		send func(net.Conn) error
	}{
		{"oversized frame", func(c net.Conn) error {
			return writeFrame(c, bytes.Repeat([]byte{'a'}, 17))
		}},
		{"handler error", func(c net.Conn) error {
			return writeFrame(c, []byte("fail"))
		}},
		{"eof inside frame", func(c net.Conn) error {
			frame := serializer.AppendFrame(nil, []byte("truncated"))
			if _, err := c.Write(frame[:6]); err != nil {
				return err
			}
			return c.(*net.TCPConn).CloseWrite()
		}},
	}

	srv := startServer(t, upperHandler, config)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := protocolErrors.Get()
			conn := dial(t, srv)
			require.NoError(t, tt.send(conn))

			// the server may reset instead of closing, either way no reply
			data, _ := io.ReadAll(conn)
			assert.Empty(t, data)
			assert.Equal(t, before+1, protocolErrors.Get())
		})
	}
}

func TestServerGracefulPeerClose(t *testing.T) {
	srv := startServer(t, upperHandler, common.DefaultServerConfig())
	before := connectionsActive.Get()

	conn := dial(t, srv)
	require.NoError(t, writeFrame(conn, []byte("x")))
	_, err := readFrame(conn, common.MaxMessageSize)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return connectionsActive.Get() == before
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServerShutdownBeforeListen(t *testing.T) {
	srv := NewBaseServerTransport(loopbackConnector{})
	srv.RegisterHandler(upperHandler)
	require.NoError(t, srv.Shutdown())
	assert.Nil(t, srv.Addr())
	assertClosed(t, srv.Ready())
}

func TestServerRequiresHandler(t *testing.T) {
	srv := NewBaseServerTransport(loopbackConnector{})
	assert.Error(t, srv.Listen(common.DefaultServerConfig()))
	assertClosed(t, srv.Ready())
}

func TestServerReadyAfterBindFailure(t *testing.T) {
	srv := NewBaseServerTransport(failConnector{})
	srv.RegisterHandler(upperHandler)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(common.DefaultServerConfig()) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("ready was not closed after the bind failed")
	}
	assert.ErrorIs(t, <-errCh, unix.EADDRINUSE)
	assert.Nil(t, srv.Addr())
	require.NoError(t, srv.Shutdown())
}

func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Error("channel is still open")
	}
}

func TestConnEvents(t *testing.T) {
	c := newConn(3)
	assert.Equal(t, stateReading, c.state)
	assert.Equal(t, int16(unix.POLLIN), c.events())
	c.state = stateWriting
	assert.Equal(t, int16(unix.POLLOUT), c.events())
	assert.Equal(t, "writing", c.state.String())
}

// --------------------------------------------------------------------------
// Client transport
// --------------------------------------------------------------------------

func TestClientTransportRoundTrip(t *testing.T) {
	srv := startServer(t, upperHandler, common.DefaultServerConfig())

	client := NewBaseClientTransport(dialConnector{})
	require.NoError(t, client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{srv.Addr().String()},
			ConnectionsPerEndpoint: 2,
			RetryCount:             2,
		},
	}))
	defer client.Close()

	for _, w := range []string{"a", "bc", "def"} {
		resp, err := client.Send([]byte(w))
		require.NoError(t, err)
		assert.Equal(t, string(bytes.ToUpper([]byte(w))), string(resp))
	}

	// a protocol error drops the connection, the retry dials again and
	// fails the same way
	_, err := client.Send([]byte("fail"))
	assert.Error(t, err)

	resp, err := client.Send([]byte("again"))
	require.NoError(t, err)
	assert.Equal(t, "AGAIN", string(resp))
}

func TestClientTransportConnectErrors(t *testing.T) {
	client := NewBaseClientTransport(dialConnector{})
	assert.Error(t, client.Connect(common.ClientConfig{}))

	// reserve a port and release it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	assert.Error(t, client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{addr}},
	}))
}
