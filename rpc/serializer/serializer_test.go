package serializer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testValues covers every tag, including nested and empty arrays
func testValues() map[string]Value {
	return map[string]Value{
		"nil":       {Tag: common.TagNil},
		"err":       {Tag: common.TagErr, Code: common.ErrBadType, Str: "expect zset"},
		"str":       {Tag: common.TagStr, Str: "bar"},
		"empty-str": {Tag: common.TagStr, Str: ""},
		"int":       {Tag: common.TagInt, Int: -42},
		"dbl":       {Tag: common.TagDbl, Dbl: math.Inf(-1)},
		"empty-arr": {Tag: common.TagArr, Arr: []Value{}},
		"arr": {Tag: common.TagArr, Arr: []Value{
			{Tag: common.TagStr, Str: "a"},
			{Tag: common.TagDbl, Dbl: 1},
			{Tag: common.TagArr, Arr: []Value{{Tag: common.TagNil}}},
		}},
	}
}

func TestValueRoundTrip(t *testing.T) {
	for name, v := range testValues() {
		t.Run(name, func(t *testing.T) {
			encoded := AppendValue(nil, v)
			decoded, err := DecodeResponse(encoded)
			require.NoError(t, err)
			assert.Equal(t, v, decoded)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	for name, v := range testValues() {
		t.Run(name, func(t *testing.T) {
			encoded := AppendValue(nil, v)
			for i := 0; i < len(encoded); i++ {
				// copy so the spare capacity holds none of the input bytes
				prefix := append([]byte(nil), encoded[:i]...)
				_, err := DecodeResponse(prefix)
				assert.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", i)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeResponse([]byte{9})
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = DecodeResponse(append(AppendNil(nil), 0))
	assert.ErrorIs(t, err, ErrTrailingBytes)

	// an array declaring more elements than bytes left
	huge := AppendArr(nil, math.MaxUint32)
	_, err = DecodeResponse(huge)
	assert.ErrorIs(t, err, ErrTruncated)

	var nested []byte
	for i := 0; i <= maxDepth; i++ {
		nested = AppendArr(nested, 1)
	}
	nested = AppendNil(nested)
	_, err = DecodeResponse(nested)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestValueErr(t *testing.T) {
	v := Value{Tag: common.TagErr, Code: common.ErrBadArg, Str: "expect int"}
	assert.ErrorIs(t, v.Err(), common.ErrBadArgument)
	assert.NotErrorIs(t, v.Err(), common.ErrWrongType)
	assert.NoError(t, Value{Tag: common.TagStr}.Err())
	assert.Equal(t, "(err) 3 expect int", v.String())
}

func TestEncodeArrWithPlaceholder(t *testing.T) {
	b, pos := BeginArr(nil)
	b = AppendStr(b, "a")
	b = AppendDbl(b, 1)
	EndArr(b, pos, 2)

	v, err := DecodeResponse(b)
	require.NoError(t, err)
	assert.Equal(t, []Value{
		{Tag: common.TagStr, Str: "a"},
		{Tag: common.TagDbl, Dbl: 1},
	}, v.Arr)
}

// --------------------------------------------------------------------------
// Requests and frames
// --------------------------------------------------------------------------

func TestRequestRoundTrip(t *testing.T) {
	args := []string{"zquery", "z", "0", "", "0", "10"}
	req, err := EncodeRequest(args)
	require.NoError(t, err)
	frame := AppendFrame(nil, req)

	body, n, err := ReadFrame(frame, common.MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)

	parsed, err := ParseRequest(body)
	require.NoError(t, err)
	assert.Equal(t, args, parsed)
}

func TestParseRequestRejects(t *testing.T) {
	body, err := EncodeRequest([]string{"set", "foo", "bar"})
	require.NoError(t, err)

	for i := 0; i < len(body); i++ {
		_, err := ParseRequest(body[:i])
		assert.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", i)
	}

	_, err = ParseRequest(append(append([]byte(nil), body...), 'x'))
	assert.ErrorIs(t, err, ErrTrailingBytes)

	tooMany := binary.LittleEndian.AppendUint32(nil, common.MaxArgs+1)
	_, err = ParseRequest(tooMany)
	assert.ErrorIs(t, err, ErrTooManyArgs)

	empty, err := ParseRequest(binary.LittleEndian.AppendUint32(nil, 0))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadFrame(t *testing.T) {
	var stream []byte
	stream = AppendFrame(stream, []byte("first"))
	stream = AppendFrame(stream, []byte("second"))

	body, n, err := ReadFrame(stream, 16)
	require.NoError(t, err)
	assert.Equal(t, "first", string(body))

	body, m, err := ReadFrame(stream[n:], 16)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
	assert.Equal(t, len(stream), n+m)

	// incomplete header and body both ask for more
	_, n, err = ReadFrame(stream[:3], 16)
	assert.NoError(t, err)
	assert.Zero(t, n)
	_, n, err = ReadFrame(stream[:6], 16)
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = ReadFrame(stream, 4)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestBeginEndFrame(t *testing.T) {
	b, start := BeginFrame([]byte("prev"))
	b = AppendInt(b, 7)
	EndFrame(b, start)

	body, n, err := ReadFrame(b[start:], common.MaxMessageSize)
	require.NoError(t, err)
	assert.Equal(t, len(b)-start, n)

	v, err := DecodeResponse(body)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int)
}

// --------------------------------------------------------------------------
// Numbers
// --------------------------------------------------------------------------

func TestParseNumbers(t *testing.T) {
	for _, s := range []string{"1", "-2.5", "1e3", "inf", " 1", "\t-3"} {
		_, ok := ParseFloat(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"", " ", "NaN", "nan", "1x", "1 ", "abc"} {
		_, ok := ParseFloat(s)
		assert.False(t, ok, s)
	}

	i, ok := ParseInt("-10")
	assert.True(t, ok)
	assert.Equal(t, int64(-10), i)
	i, ok = ParseInt("  42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)
	for _, s := range []string{"", " ", "1.0", "0x10", "10 ", "1e3"} {
		_, ok := ParseInt(s)
		assert.False(t, ok, s)
	}
}

func TestParseNumbersOutOfRange(t *testing.T) {
	f, ok := ParseFloat("1e400")
	assert.True(t, ok)
	assert.True(t, math.IsInf(f, 1))

	f, ok = ParseFloat("-1e400")
	assert.True(t, ok)
	assert.True(t, math.IsInf(f, -1))

	i, ok := ParseInt("9223372036854775808")
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), i)

	i, ok = ParseInt("-99999999999999999999")
	assert.True(t, ok)
	assert.Equal(t, int64(math.MinInt64), i)
}
