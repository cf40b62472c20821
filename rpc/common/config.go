package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport options
// --------------------------------------------------------------------------

// SocketConf holds socket buffer sizes (0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options, ignored for unix sockets
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 = disabled
	TCPLingerSec    int // < 0 = OS default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

const (
	DefaultEndpoint      = "0.0.0.0:1234"
	DefaultReadChunkSize = 64 * 1024
)

// ServerTransportConfig configures the listening socket
type ServerTransportConfig struct {
	// Endpoint is host:port for tcp or a socket path for unix
	Endpoint string
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the zKV server.
type ServerConfig struct {
	Transport ServerTransportConfig

	// MaxMessageSize caps request and response bodies
	MaxMessageSize int

	// ReadChunkSize is the number of bytes read per readable event
	ReadChunkSize int

	// MetricsEndpoint serves /metrics when not empty
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// DefaultServerConfig returns the configuration used when nothing is set
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			Endpoint: DefaultEndpoint,
			TCPConf:  TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
		MaxMessageSize: MaxMessageSize,
		ReadChunkSize:  DefaultReadChunkSize,
		LogLevel:       "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Max Message Size", formatBytes(c.MaxMessageSize))
	addField("Read Chunk Size", formatBytes(c.ReadChunkSize))

	// Socket options
	addSection("Socket")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("Write Buffer", formatBytes(c.Transport.WriteBufferSize))
	addField("Read Buffer", formatBytes(c.Transport.ReadBufferSize))

	// Metrics
	addSection("Metrics")
	if c.MetricsEndpoint == "" {
		addField("Endpoint", "disabled")
	} else {
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig configures the connections of a client
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// formatBytes renders a byte count with a binary unit, 0 means OS default
func formatBytes(n int) string {
	switch {
	case n <= 0:
		return "default"
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
