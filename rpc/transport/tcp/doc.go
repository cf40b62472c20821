// Package tcp implements the TCP transport of zKV. It provides the
// connectors plugged into the base package's poll reactor and pooled client.
//
// Key Components:
//
//   - serverConnector: resolves the endpoint, binds an IPv4 or IPv6 socket
//     and applies TCPConf and SocketConf to every accepted connection.
//
//   - clientConnector: dials the endpoint and applies the same options on
//     the client side.
//
// Port 0 binds an ephemeral port, IRPCServerTransport.Addr reports it.
package tcp
