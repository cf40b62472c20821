package serializer

import (
	"encoding/binary"

	"github.com/ValentinKolb/zKV/rpc/common"
)

// --------------------------------------------------------------------------
// Frames
// --------------------------------------------------------------------------

// ReadFrame extracts the first complete frame from buf. It returns the
// frame body and the number of bytes consumed. n == 0 with a nil error
// means more data is needed. A declared length above max is an error.
func ReadFrame(buf []byte, max int) (body []byte, n int, err error) {
	if len(buf) < common.HeaderSize {
		return nil, 0, nil
	}
	size := binary.LittleEndian.Uint32(buf)
	if uint64(size) > uint64(max) {
		return nil, 0, ErrFrameTooLarge
	}
	end := common.HeaderSize + int(size)
	if len(buf) < end {
		return nil, 0, nil
	}
	return buf[common.HeaderSize:end], end, nil
}

// BeginFrame reserves the length prefix of a new frame at the end of b and
// returns the extended buffer together with the frame start offset.
func BeginFrame(b []byte) ([]byte, int) {
	start := len(b)
	return append(b, 0, 0, 0, 0), start
}

// EndFrame writes the body length of the frame started at start.
func EndFrame(b []byte, start int) {
	binary.LittleEndian.PutUint32(b[start:], uint32(len(b)-start-common.HeaderSize))
}

// AppendFrame appends body as a complete frame to b
func AppendFrame(b, body []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}
