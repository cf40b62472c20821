// Package serializer implements the zKV wire format.
//
// Every message travels in a frame: a little endian u32 body length
// followed by the body. A request body is an argument count followed by
// length prefixed arguments:
//
//	u32 argc | (u32 len | bytes) * argc
//
// A response body is exactly one tagged value (see common.Tag). Arrays
// carry a count and that many tagged values, so responses nest.
//
// Key Components:
//
//   - ParseRequest / EncodeRequest: request bodies, with the argument
//     count limited to common.MaxArgs.
//
//   - ReadFrame, BeginFrame, EndFrame: frame splitting on the receive side
//     and in place length patching on the send side.
//
//   - Append*: allocation free response encoders writing into a caller
//     owned buffer, used by the server for every reply.
//
//   - Value, DecodeValue, DecodeResponse: decoding on the client side. The
//     decoder checks every length against the remaining input.
//
// All functions are stateless and safe for concurrent use.
package serializer
