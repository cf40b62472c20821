package serializer

import "errors"

// Decoding errors. All of them are protocol errors: the peer sent bytes
// that cannot be a valid message, so the connection should be dropped.
var (
	ErrTruncated     = errors.New("serializer: message truncated")
	ErrTrailingBytes = errors.New("serializer: trailing bytes after message")
	ErrTooManyArgs   = errors.New("serializer: too many arguments")
	ErrFrameTooLarge = errors.New("serializer: frame exceeds max message size")
	ErrUnknownTag    = errors.New("serializer: unknown value tag")
	ErrTooDeep       = errors.New("serializer: arrays nested too deep")
)
