package tcp

import (
	"net"
	"os"
	"time"

	"github.com/ValentinKolb/zKV/rpc/common"
	"golang.org/x/sys/unix"
)

// upgradeTCPConn applies performance optimizations to a TCP connection
// using configuration values from TCPConf and SocketConf
func upgradeTCPConn(tcpConn *net.TCPConn, tcpConf common.TCPConf, socketConf common.SocketConf) error {
	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(tcpConf.TCPNoDelay); err != nil {
		return err
	}

	if socketConf.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(socketConf.WriteBufferSize); err != nil {
			return err
		}
	}
	if socketConf.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(socketConf.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcpConf.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		keepAlivePeriod := time.Duration(tcpConf.TCPKeepAliveSec) * time.Second
		if err := tcpConn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return err
		}
	}

	if tcpConf.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(tcpConf.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}

// withTCPConn exposes a raw socket as *net.TCPConn. Socket options belong
// to the socket, so setting them through a duplicate descriptor affects fd.
func withTCPConn(fd int, fn func(*net.TCPConn) error) error {
	dup, err := unix.Dup(fd)
	if err != nil {
		return err
	}
	f := os.NewFile(uintptr(dup), "tcp")
	defer f.Close()

	conn, err := net.FileConn(f)
	if err != nil {
		return err
	}
	defer conn.Close()

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}
	return fn(tcpConn)
}
