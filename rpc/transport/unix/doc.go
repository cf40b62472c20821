// Package unix implements the Unix domain socket transport of zKV for
// clients on the same machine. It plugs its connectors into the base
// package, so framing and the event loop are shared with the tcp package.
//
// The endpoint is a socket path. An existing file at that path is removed
// before binding. TCP options do not apply, socket buffer sizes do.
package unix
