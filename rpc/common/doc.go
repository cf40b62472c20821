// Package common holds the types shared by the zKV server, client and
// transports: wire constants, the typed protocol error, configuration
// structs and the logger implementation.
//
// Key Components:
//
//   - Tag and ErrCode: the value tags and error codes of the binary
//     response format. Error pairs an ErrCode with a message and compares
//     equal (errors.Is) to the sentinel of the same code.
//
//   - ServerConfig and ClientConfig: configuration of both ends, including
//     socket options and message limits. Both render a readable summary
//     via String() which the CLI prints on startup.
//
//   - Logger: a formatter plugged into dragonboat's logger facade so every
//     package obtains a named logger with logger.GetLogger.
package common
