// Package base implements the transport machinery shared by the tcp and
// unix packages. Protocol specific parts (socket creation and options)
// come from an IServerConnector or IClientConnector.
//
// Server side, serverTransport is a single threaded reactor: one goroutine
// polls the listening socket, a wakeup pipe and every connection
// (level-triggered). Each connection moves between three states:
//
//	reading  -> waits for POLLIN, reads and dispatches complete frames
//	writing  -> waits for POLLOUT until all queued responses are flushed
//	closing  -> closed and forgotten at the end of the loop iteration
//
// Pending output always wins over reading, so a client that stops reading
// stops being served. A malformed or oversized frame, EOF inside a frame or
// any I/O error other than EAGAIN and EINTR closes the connection without
// a response. Handlers run on the loop goroutine, one request at a time.
//
// Client side, clientTransport keeps a pool of connections per endpoint and
// picks one round robin. A connection carries one request at a time. On
// failure the connection is redialed and the request retried with
// exponential backoff up to RetryCount attempts.
//
// Metrics (VictoriaMetrics): zkv_connections_accepted_total,
// zkv_connections_active and zkv_protocol_errors_total.
package base
