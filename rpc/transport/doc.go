// Package transport defines the interfaces between the zKV server or client
// and the byte transport carrying frames between them.
//
// Key Components:
//
//   - IRPCServerTransport: accepts connections, splits the byte stream into
//     frames and calls the registered ServerHandleFunc for each of them.
//     Responses of one connection leave in request order.
//
//   - IRPCClientTransport: sends request bodies and waits for the matching
//     response payload.
//
//   - ServerHandleFunc: the request callback. It appends to a buffer owned by
//     the transport, so a reply costs no extra allocation.
//
// The implementations live in the tcp and unix packages, both built on the
// shared code in package base.
package transport
