package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/zKV/rpc/common"
)

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// ParseRequest decodes a request body (everything after the frame length)
// into its arguments. It fails if argc exceeds common.MaxArgs, if a length
// points past the end of body, or if bytes remain after the last argument.
func ParseRequest(body []byte) ([]string, error) {
	argc, pos, ok := readU32(body, 0)
	if !ok {
		return nil, ErrTruncated
	}
	if argc > common.MaxArgs {
		return nil, ErrTooManyArgs
	}
	// each argument needs at least its length prefix
	if uint64(argc)*4 > uint64(len(body)-pos) {
		return nil, ErrTruncated
	}

	args := make([]string, 0, argc)
	for i := uint32(0); i < argc; i++ {
		var n uint32
		n, pos, ok = readU32(body, pos)
		if !ok || uint64(n) > uint64(len(body)-pos) {
			return nil, ErrTruncated
		}
		args = append(args, string(body[pos:pos+int(n)]))
		pos += int(n)
	}

	if pos != len(body) {
		return nil, ErrTrailingBytes
	}
	return args, nil
}

// EncodeRequest builds a request body. The transport adds the frame length.
func EncodeRequest(args []string) ([]byte, error) {
	if len(args) > common.MaxArgs {
		return nil, ErrTooManyArgs
	}

	size := 4
	for _, a := range args {
		size += 4 + len(a)
	}
	if size > common.MaxMessageSize {
		return nil, fmt.Errorf("%w: request of %d bytes", ErrFrameTooLarge, size)
	}

	b := make([]byte, 0, size)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(args)))
	for _, a := range args {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(a)))
		b = append(b, a...)
	}
	return b, nil
}

// readU32 reads a little endian u32 at pos, reporting false if it does not fit
func readU32(b []byte, pos int) (uint32, int, bool) {
	if len(b)-pos < 4 {
		return 0, pos, false
	}
	return binary.LittleEndian.Uint32(b[pos:]), pos + 4, true
}
