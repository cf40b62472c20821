package transport

import (
	"net"

	"github.com/ValentinKolb/zKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc handles one request body and appends the response
// payload to out. req aliases the connection's receive buffer and must not
// be retained. A returned error is a protocol error: the transport closes
// the connection without sending a response.
type ServerHandleFunc func(req []byte, out []byte) ([]byte, error)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for every request frame
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the endpoint and serves connections until Shutdown
	Listen(config common.ServerConfig) error
	// Ready is closed once the endpoint is bound, or once Listen or
	// Shutdown gave up without binding it
	Ready() <-chan struct{}
	// Addr returns the bound address, nil if the endpoint is not bound
	Addr() net.Addr
	// Shutdown stops Listen and closes all connections
	Shutdown() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request body and returns the response payload
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
