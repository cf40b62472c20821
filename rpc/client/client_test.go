package client

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/zKV/lib/db/engines/keyspace"
	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/server"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/ValentinKolb/zKV/rpc/transport/tcp"
	"github.com/ValentinKolb/zKV/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transports under test, each with a function returning a fresh endpoint
var testTransports = map[string]struct {
	server   func() transport.IRPCServerTransport
	client   func() transport.IRPCClientTransport
	endpoint func(t *testing.T) string
}{
	"tcp": {
		server:   tcp.NewTCPServerTransport,
		client:   tcp.NewTCPClientTransport,
		endpoint: func(*testing.T) string { return "127.0.0.1:0" },
	},
	"unix": {
		server:   unix.NewUnixServerTransport,
		client:   unix.NewUnixClientTransport,
		endpoint: func(t *testing.T) string { return filepath.Join(t.TempDir(), "zkv.sock") },
	},
}

// startServer runs a server in the background and returns a connected client
func startServer(t *testing.T, name string) *Client {
	t.Helper()
	tt := testTransports[name]

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = tt.endpoint(t)
	config.LogLevel = "error"

	srv := server.NewRPCServer(config, tt.server(), keyspace.NewKeySpace())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("serve failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	c, err := NewRPCClient(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{srv.Addr().String()},
			RetryCount:             1,
			ConnectionsPerEndpoint: 2,
			TCPConf:                common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}, tt.client())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, c.Close())
		assert.NoError(t, srv.Shutdown())
		assert.NoError(t, <-errCh)
	})
	return c
}

func TestClientCommands(t *testing.T) {
	for name := range testTransports {
		t.Run(name, func(t *testing.T) {
			c := startServer(t, name)

			// strings
			require.NoError(t, c.Set("foo", "bar"))
			val, ok, err := c.Get("foo")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "bar", val)

			_, ok, err = c.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			// type errors surface as *common.Error
			_, err = c.ZAdd("foo", 1, "x")
			assert.ErrorIs(t, err, common.ErrWrongType)

			// sorted sets
			added, err := c.ZAdd("z", 1, "a")
			require.NoError(t, err)
			assert.True(t, added)
			added, err = c.ZAdd("z", 2, "b")
			require.NoError(t, err)
			assert.True(t, added)
			added, err = c.ZAdd("z", 0.5, "b")
			require.NoError(t, err)
			assert.False(t, added)

			entries, err := c.ZQuery("z", 0, "", 0, 10)
			require.NoError(t, err)
			assert.Equal(t, []ZEntry{{"b", 0.5}, {"a", 1}}, entries)

			score, ok, err := c.ZScore("z", "b")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 0.5, score)

			removed, err := c.ZRem("z", "b")
			require.NoError(t, err)
			assert.True(t, removed)

			keys, err := c.Keys()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"foo", "z"}, keys)

			// del twice
			deleted, err := c.Del("foo")
			require.NoError(t, err)
			assert.True(t, deleted)
			deleted, err = c.Del("foo")
			require.NoError(t, err)
			assert.False(t, deleted)

			// raw command
			v, err := c.Do("nope")
			require.NoError(t, err)
			assert.ErrorIs(t, v.Err(), common.ErrUnknownCommand)
		})
	}
}

func TestClientConcurrentUse(t *testing.T) {
	c := startServer(t, "tcp")

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := c.ZAdd("z", float64(w*perWorker+i), fmt.Sprintf("m-%d-%d", w, i))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	entries, err := c.ZQuery("z", 0, "", 0, workers*perWorker+1)
	require.NoError(t, err)
	require.Len(t, entries, workers*perWorker)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Score, entries[i].Score)
	}
}
