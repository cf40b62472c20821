package common

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Wire Limits
// --------------------------------------------------------------------------

const (
	// MaxMessageSize is the largest request or response body (32 MiB)
	MaxMessageSize = 32 << 20
	// MaxArgs is the largest argument count a request may declare
	MaxArgs = 200_000
	// HeaderSize is the size of the little endian length prefix of every frame
	HeaderSize = 4
)

// --------------------------------------------------------------------------
// Response Tags
// --------------------------------------------------------------------------

// Tag is the first byte of every encoded response value
type Tag byte

const (
	TagNil Tag = 0 // no body
	TagErr Tag = 1 // i32 code, u32 length, message
	TagStr Tag = 2 // u32 length, bytes
	TagInt Tag = 3 // i64
	TagDbl Tag = 4 // f64
	TagArr Tag = 5 // u32 count, count encoded values
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagErr:
		return "err"
	case TagStr:
		return "str"
	case TagInt:
		return "int"
	case TagDbl:
		return "dbl"
	case TagArr:
		return "arr"
	default:
		return fmt.Sprintf("tag(%d)", byte(t))
	}
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrCode classifies an application error sent to the client
type ErrCode int32

const (
	ErrUnknown ErrCode = 0 // unknown command or wrong arity
	ErrTooBig  ErrCode = 1 // message exceeds MaxMessageSize
	ErrBadType ErrCode = 2 // key holds a value of another type
	ErrBadArg  ErrCode = 3 // malformed numeric argument
)

func (c ErrCode) String() string {
	switch c {
	case ErrUnknown:
		return "UNKNOWN"
	case ErrTooBig:
		return "TOO_BIG"
	case ErrBadType:
		return "BAD_TYPE"
	case ErrBadArg:
		return "BAD_ARG"
	default:
		return fmt.Sprintf("ERR_%d", int32(c))
	}
}

// Error is an application error as carried by an ERR response
type Error struct {
	Code ErrCode
	Msg  string
}

// NewError creates a new application error
func NewError(code ErrCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is matches any *Error with the same code, so errors.Is can be used with
// the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks on the client side
var (
	ErrUnknownCommand = &Error{Code: ErrUnknown}
	ErrMessageTooBig  = &Error{Code: ErrTooBig}
	ErrWrongType      = &Error{Code: ErrBadType}
	ErrBadArgument    = &Error{Code: ErrBadArg}
)
