package unix

import (
	"fmt"
	"net"
	"os"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/ValentinKolb/zKV/rpc/transport/base"
	sys "golang.org/x/sys/unix"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(config common.ServerConfig) (int, net.Addr, error) {
	socketPath := config.Transport.Endpoint

	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return -1, nil, fmt.Errorf("failed to remove existing socket: %v", err)
	}

	fd, err := base.ListenSocket(sys.AF_UNIX, &sys.SockaddrUnix{Name: socketPath})
	if err != nil {
		return -1, nil, fmt.Errorf("failed to create Unix socket: %v", err)
	}
	return fd, &net.UnixAddr{Name: socketPath, Net: "unix"}, nil
}

func (c *serverConnector) UpgradeConnection(fd int, config common.ServerConfig) error {
	return base.SetBufferSizes(fd, config.Transport.WriteBufferSize, config.Transport.ReadBufferSize)
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixServerTransport creates a new Unix socket server transport
func NewUnixServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
