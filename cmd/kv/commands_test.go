package kv

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/stretchr/testify/assert"
)

func TestWriteValue(t *testing.T) {
	tests := []struct {
		name  string
		value serializer.Value
		want  string
	}{
		{"nil", serializer.Value{Tag: common.TagNil}, "(nil)\n"},
		{"int", serializer.Value{Tag: common.TagInt, Int: -3}, "(int) -3\n"},
		{"err", serializer.Value{Tag: common.TagErr, Code: common.ErrBadArg, Str: "expect int"}, "(err) 3 expect int\n"},
		{"empty array", serializer.Value{Tag: common.TagArr}, "(arr) len=0\n(arr) end\n"},
		{
			"nested array",
			serializer.Value{Tag: common.TagArr, Arr: []serializer.Value{
				{Tag: common.TagStr, Str: "a"},
				{Tag: common.TagDbl, Dbl: 1.5},
				{Tag: common.TagArr, Arr: []serializer.Value{{Tag: common.TagNil}}},
			}},
			"(arr) len=3\n  (str) a\n  (dbl) 1.5\n  (arr) len=1\n    (nil)\n  (arr) end\n(arr) end\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeValue(&buf, tt.value, 0)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
