// Package cmd implements the command-line interface for the zKV key-value
// server. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for string and sorted set operations plus a load generator
//   - serve: Commands for starting and configuring the zKV server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See zkv -help for a list of all commands.
package cmd
