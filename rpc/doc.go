// Package rpc provides the network layer of zKV. It carries client commands
// to the single threaded keyspace and the replies back.
//
// The package is organized into several subpackages:
//
//   - common: Protocol constants, configuration structures and logging.
//
//   - serializer: The length prefixed little endian wire format for requests
//     and tagged response values.
//
//   - transport: The poll based event loop on the server side and a pooled
//     client transport, with TCP and Unix socket connectors.
//
//   - server: Command dispatch from decoded requests to the keyspace.
//
//   - client: A typed client for all commands.
package rpc
