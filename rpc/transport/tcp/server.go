package tcp

import (
	"fmt"
	"net"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/ValentinKolb/zKV/rpc/transport/base"
	"golang.org/x/sys/unix"
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(config common.ServerConfig) (int, net.Addr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", config.Transport.Endpoint)
	if err != nil {
		return -1, nil, fmt.Errorf("invalid TCP endpoint %q: %v", config.Transport.Endpoint, err)
	}

	// an empty host binds all IPv4 interfaces
	var (
		family int
		sa     unix.Sockaddr
	)
	if ip4 := tcpAddr.IP.To4(); ip4 != nil || tcpAddr.IP == nil {
		sa4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		family, sa = unix.AF_INET, sa4
	} else {
		sa6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP.To16())
		family, sa = unix.AF_INET6, sa6
	}

	fd, err := base.ListenSocket(family, sa)
	if err != nil {
		return -1, nil, fmt.Errorf("failed to create TCP socket: %v", err)
	}

	addr, err := base.LocalAddr(fd)
	if err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}
	return fd, addr, nil
}

func (c *serverConnector) UpgradeConnection(fd int, config common.ServerConfig) error {
	return withTCPConn(fd, func(conn *net.TCPConn) error {
		return upgradeTCPConn(conn, config.Transport.TCPConf, config.Transport.SocketConf)
	})
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPServerTransport creates a new TCP server transport
func NewTCPServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
