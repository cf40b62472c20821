package base

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ListenSocket creates a non-blocking stream socket bound to sa and
// listening with the platform's maximum backlog. Connectors use it to
// implement IServerConnector.Listen.
func ListenSocket(family int, sa unix.Sockaddr) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %v", err)
	}
	unix.CloseOnExec(fd)

	fail := func(op string, err error) (int, error) {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("%s: %v", op, err)
	}

	if family != unix.AF_UNIX {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fail("setsockopt SO_REUSEADDR", err)
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		return fail("listen", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fail("set non-blocking", err)
	}
	return fd, nil
}

// LocalAddr returns the address a socket is bound to
func LocalAddr(fd int) (net.Addr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, err
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}, nil
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}, nil
	case *unix.SockaddrUnix:
		return &net.UnixAddr{Name: sa.Name, Net: "unix"}, nil
	default:
		return nil, fmt.Errorf("unsupported address family %T", sa)
	}
}

// SetBufferSizes applies the socket buffer sizes, 0 keeps the OS default
func SetBufferSizes(fd int, write, read int) error {
	if write > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, write); err != nil {
			return err
		}
	}
	if read > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, read); err != nil {
			return err
		}
	}
	return nil
}
