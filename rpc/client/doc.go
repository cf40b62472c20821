// Package client implements the zKV client on top of an IRPCClientTransport.
//
// Client offers one typed method per server command (Get, Set, Del, Keys,
// ZAdd, ZRem, ZScore, ZQuery) plus Do for raw commands. ERR replies become
// *common.Error values, so callers can test them with errors.Is against
// common.ErrWrongType and the other sentinels.
//
// Usage Example:
//
//	c, err := client.NewRPCClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	if err := c.Set("foo", "bar"); err != nil {
//		return err
//	}
//	value, ok, err := c.Get("foo")
package client
