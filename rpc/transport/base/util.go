package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// writeFrame writes a frame to the connection with the format:
// - 4 bytes: data length (uint32, little endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, data []byte) error {
	var header [common.HeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data)))

	b := net.Buffers{header[:], data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one frame from the connection into a new buffer. Frames
// larger than max are rejected before their body is read.
func readFrame(conn net.Conn, max int) ([]byte, error) {
	var header [common.HeaderSize]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return nil, err
	}

	contentLength := binary.LittleEndian.Uint32(header[:])
	if uint64(contentLength) > uint64(max) {
		return nil, fmt.Errorf("response of %d bytes exceeds limit of %d", contentLength, max)
	}

	data := make([]byte, contentLength)
	if _, err := io.ReadFull(conn, data); err != nil {
		return nil, err
	}
	return data, nil
}
