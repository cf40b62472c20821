package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/zKV/rpc/common"
)

// maxDepth bounds the nesting of decoded arrays
const maxDepth = 64

// Value is a decoded response value. Which field is set depends on Tag:
// Code and Str for TagErr, Str for TagStr, Int, Dbl and Arr respectively.
type Value struct {
	Tag  common.Tag
	Code common.ErrCode
	Str  string
	Int  int64
	Dbl  float64
	Arr  []Value
}

// Err returns the application error carried by an ERR value, nil otherwise
func (v Value) Err() error {
	if v.Tag != common.TagErr {
		return nil
	}
	return common.NewError(v.Code, v.Str)
}

func (v Value) String() string {
	switch v.Tag {
	case common.TagNil:
		return "(nil)"
	case common.TagErr:
		return fmt.Sprintf("(err) %d %s", v.Code, v.Str)
	case common.TagStr:
		return fmt.Sprintf("(str) %s", v.Str)
	case common.TagInt:
		return fmt.Sprintf("(int) %d", v.Int)
	case common.TagDbl:
		return fmt.Sprintf("(dbl) %g", v.Dbl)
	case common.TagArr:
		return fmt.Sprintf("(arr) len=%d", len(v.Arr))
	default:
		return v.Tag.String()
	}
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeResponse decodes a response payload holding exactly one value
func DecodeResponse(payload []byte) (Value, error) {
	v, n, err := DecodeValue(payload)
	if err != nil {
		return Value{}, err
	}
	if n != len(payload) {
		return Value{}, ErrTrailingBytes
	}
	return v, nil
}

// DecodeValue decodes the first value of data and returns the number of
// bytes it occupies. It never reads past len(data).
func DecodeValue(data []byte) (Value, int, error) {
	return decodeValue(data, 0)
}

func decodeValue(data []byte, depth int) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, ErrTruncated
	}
	v := Value{Tag: common.Tag(data[0])}
	pos := 1

	switch v.Tag {
	case common.TagNil:
		return v, pos, nil

	case common.TagErr:
		code, p, ok := readU32(data, pos)
		if !ok {
			return Value{}, 0, ErrTruncated
		}
		v.Code = common.ErrCode(int32(code))
		s, p, err := readString(data, p)
		if err != nil {
			return Value{}, 0, err
		}
		v.Str = s
		return v, p, nil

	case common.TagStr:
		s, p, err := readString(data, pos)
		if err != nil {
			return Value{}, 0, err
		}
		v.Str = s
		return v, p, nil

	case common.TagInt, common.TagDbl:
		if len(data)-pos < 8 {
			return Value{}, 0, ErrTruncated
		}
		bits := binary.LittleEndian.Uint64(data[pos:])
		if v.Tag == common.TagInt {
			v.Int = int64(bits)
		} else {
			v.Dbl = math.Float64frombits(bits)
		}
		return v, pos + 8, nil

	case common.TagArr:
		if depth >= maxDepth {
			return Value{}, 0, ErrTooDeep
		}
		n, p, ok := readU32(data, pos)
		if !ok {
			return Value{}, 0, ErrTruncated
		}
		// every element takes at least its tag byte
		if uint64(n) > uint64(len(data)-p) {
			return Value{}, 0, ErrTruncated
		}
		v.Arr = make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			elem, used, err := decodeValue(data[p:], depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			v.Arr = append(v.Arr, elem)
			p += used
		}
		return v, p, nil

	default:
		return Value{}, 0, fmt.Errorf("%w: %d", ErrUnknownTag, data[0])
	}
}

// AppendValue encodes v, the inverse of DecodeValue
func AppendValue(b []byte, v Value) []byte {
	switch v.Tag {
	case common.TagErr:
		return AppendErr(b, v.Code, v.Str)
	case common.TagStr:
		return AppendStr(b, v.Str)
	case common.TagInt:
		return AppendInt(b, v.Int)
	case common.TagDbl:
		return AppendDbl(b, v.Dbl)
	case common.TagArr:
		b = AppendArr(b, uint32(len(v.Arr)))
		for _, elem := range v.Arr {
			b = AppendValue(b, elem)
		}
		return b
	default:
		return AppendNil(b)
	}
}

func readString(data []byte, pos int) (string, int, error) {
	n, p, ok := readU32(data, pos)
	if !ok || uint64(n) > uint64(len(data)-p) {
		return "", 0, ErrTruncated
	}
	return string(data[p : p+int(n)]), p + int(n), nil
}
