package client

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/ValentinKolb/zKV/rpc/transport"
)

// ZEntry is one (name, score) pair returned by ZQuery
type ZEntry struct {
	Name  string
	Score float64
}

// Client is a typed zKV client. It is safe for concurrent use as far as
// the transport is.
type Client struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// NewRPCClient connects the transport and returns a client using it
func NewRPCClient(config common.ClientConfig, transport transport.IRPCClientTransport) (*Client, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	return &Client{config: config, transport: transport}, nil
}

// Close closes the underlying transport
func (c *Client) Close() error {
	return c.transport.Close()
}

// Do sends a raw command and returns the decoded reply. ERR replies are
// returned as value with a nil error.
func (c *Client) Do(args ...string) (serializer.Value, error) {
	if len(args) == 0 {
		return serializer.Value{}, fmt.Errorf("no command given")
	}
	return invokeRPCRequest(c.transport, args)
}

// call is Do followed by expect
func (c *Client) call(tags []common.Tag, args ...string) (serializer.Value, error) {
	v, err := invokeRPCRequest(c.transport, args)
	if err != nil {
		return v, err
	}
	return v, expect(v, tags...)
}

// --------------------------------------------------------------------------
// String commands
// --------------------------------------------------------------------------

// Get returns the value of key, loaded is false if the key does not exist
func (c *Client) Get(key string) (value string, loaded bool, err error) {
	v, err := c.call([]common.Tag{common.TagStr, common.TagNil}, "get", key)
	if err != nil {
		return "", false, err
	}
	return v.Str, v.Tag == common.TagStr, nil
}

// Set stores value under key, replacing a string but never a sorted set
func (c *Client) Set(key, value string) error {
	_, err := c.call([]common.Tag{common.TagNil}, "set", key, value)
	return err
}

// Del removes key and reports whether it existed
func (c *Client) Del(key string) (bool, error) {
	v, err := c.call([]common.Tag{common.TagInt}, "del", key)
	return err == nil && v.Int == 1, err
}

// Keys lists all keys of the server in one response
func (c *Client) Keys() ([]string, error) {
	v, err := c.call([]common.Tag{common.TagArr}, "keys")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(v.Arr))
	for _, elem := range v.Arr {
		if elem.Tag != common.TagStr {
			return nil, fmt.Errorf("%w: key of type %s", ErrUnexpectedResponse, elem.Tag)
		}
		keys = append(keys, elem.Str)
	}
	return keys, nil
}

// --------------------------------------------------------------------------
// Sorted set commands
// --------------------------------------------------------------------------

// ZAdd sets the score of name in the sorted set key. It reports true if
// the member was created.
func (c *Client) ZAdd(key string, score float64, name string) (bool, error) {
	v, err := c.call([]common.Tag{common.TagInt}, "zadd", key, formatScore(score), name)
	return err == nil && v.Int == 1, err
}

// ZRem removes name from the sorted set key and reports whether it existed
func (c *Client) ZRem(key, name string) (bool, error) {
	v, err := c.call([]common.Tag{common.TagInt}, "zrem", key, name)
	return err == nil && v.Int == 1, err
}

// ZScore returns the score of name, loaded is false if there is no such member
func (c *Client) ZScore(key, name string) (score float64, loaded bool, err error) {
	v, err := c.call([]common.Tag{common.TagDbl, common.TagNil}, "zscore", key, name)
	if err != nil {
		return 0, false, err
	}
	return v.Dbl, v.Tag == common.TagDbl, nil
}

// ZQuery returns up to limit members starting offset positions after the
// first member ordered at or after (score, name)
func (c *Client) ZQuery(key string, score float64, name string, offset, limit int64) ([]ZEntry, error) {
	v, err := c.call([]common.Tag{common.TagArr}, "zquery", key, formatScore(score), name,
		strconv.FormatInt(offset, 10), strconv.FormatInt(limit, 10))
	if err != nil {
		return nil, err
	}
	if len(v.Arr)%2 != 0 {
		return nil, fmt.Errorf("%w: odd array length %d", ErrUnexpectedResponse, len(v.Arr))
	}

	entries := make([]ZEntry, 0, len(v.Arr)/2)
	for i := 0; i < len(v.Arr); i += 2 {
		name, score := v.Arr[i], v.Arr[i+1]
		if name.Tag != common.TagStr || score.Tag != common.TagDbl {
			return nil, fmt.Errorf("%w: pair of %s and %s", ErrUnexpectedResponse, name.Tag, score.Tag)
		}
		entries = append(entries, ZEntry{Name: name.Str, Score: score.Dbl})
	}
	return entries, nil
}

// formatScore renders a score so that the server parses it back exactly
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}
