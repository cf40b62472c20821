package serializer

import (
	"encoding/binary"
	"math"

	"github.com/ValentinKolb/zKV/rpc/common"
)

// --------------------------------------------------------------------------
// Response encoding (append style, no intermediate allocations)
// --------------------------------------------------------------------------

// AppendNil writes a NIL value
func AppendNil(b []byte) []byte {
	return append(b, byte(common.TagNil))
}

// AppendErr writes an ERR value with code and message
func AppendErr(b []byte, code common.ErrCode, msg string) []byte {
	b = append(b, byte(common.TagErr))
	b = binary.LittleEndian.AppendUint32(b, uint32(code))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(msg)))
	return append(b, msg...)
}

// AppendStr writes a STR value
func AppendStr(b []byte, s string) []byte {
	b = append(b, byte(common.TagStr))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

// AppendInt writes an INT value as a signed 64 bit integer
func AppendInt(b []byte, v int64) []byte {
	b = append(b, byte(common.TagInt))
	return binary.LittleEndian.AppendUint64(b, uint64(v))
}

// AppendDbl writes a DBL value as IEEE 754 bits
func AppendDbl(b []byte, v float64) []byte {
	b = append(b, byte(common.TagDbl))
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

// AppendArr writes an array header, the caller appends n values afterwards
func AppendArr(b []byte, n uint32) []byte {
	b = append(b, byte(common.TagArr))
	return binary.LittleEndian.AppendUint32(b, n)
}

// BeginArr writes an array header with a placeholder count and returns its
// position. Use it when the element count is only known after the walk.
func BeginArr(b []byte) ([]byte, int) {
	pos := len(b)
	return AppendArr(b, 0), pos
}

// EndArr patches the count of the array header written by BeginArr
func EndArr(b []byte, pos int, n uint32) {
	binary.LittleEndian.PutUint32(b[pos+1:], n)
}
