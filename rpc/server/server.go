package server

import (
	"encoding/binary"
	"errors"
	"net"
	"sync/atomic"

	"github.com/ValentinKolb/zKV/lib/db"
	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/ValentinKolb/zKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

var (
	// keyCount mirrors the keyspace size for the metrics endpoint, which is
	// scraped from another goroutine than the one owning the keyspace
	keyCount = new(atomic.Int64)

	_ = metrics.GetOrCreateGauge("zkv_keyspace_keys", func() float64 {
		return float64(keyCount.Load())
	})

	commandErrors = map[common.ErrCode]*metrics.Counter{
		common.ErrUnknown: metrics.GetOrCreateCounter(`zkv_command_errors_total{code="UNKNOWN"}`),
		common.ErrTooBig:  metrics.GetOrCreateCounter(`zkv_command_errors_total{code="TOO_BIG"}`),
		common.ErrBadType: metrics.GetOrCreateCounter(`zkv_command_errors_total{code="BAD_TYPE"}`),
		common.ErrBadArg:  metrics.GetOrCreateCounter(`zkv_command_errors_total{code="BAD_ARG"}`),
	}
)

// Server owns the keyspace and answers requests arriving through its
// transport. All requests are handled on the transport's event loop, so
// the keyspace is never accessed concurrently.
type Server struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	keyspace  db.KVDB
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and keyspace as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		keyspace.NewKeySpace(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport, keyspace db.KVDB) *Server {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = common.MaxMessageSize
	}
	return &Server{
		config:    config,
		transport: transport,
		keyspace:  keyspace,
	}
}

// Serve initializes the loggers, registers the request handler and blocks
// in the transport until Shutdown is called
func (s *Server) Serve() error {
	if err := common.InitLoggers(s.config); err != nil {
		// releases waiters on Ready
		_ = s.transport.Shutdown()
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	s.transport.RegisterHandler(s.Handle)
	return s.transport.Listen(s.config)
}

// Shutdown stops the transport and releases the keyspace
func (s *Server) Shutdown() error {
	err := s.transport.Shutdown()

	info := s.keyspace.GetInfo()
	Logger.Infof("Shutting down with %d keys (%d sorted sets, ~%d bytes)", info.Keys, info.ZSets, info.SizeBytes)

	keyCount.Store(0)
	return errors.Join(err, s.keyspace.Close())
}

// Ready is closed once the transport accepts connections or gave up
func (s *Server) Ready() <-chan struct{} {
	return s.transport.Ready()
}

// Addr returns the address the transport is bound to
func (s *Server) Addr() net.Addr {
	return s.transport.Addr()
}

// Handle parses one request body and appends the response payload to out.
// A malformed request is returned as error and closes the connection. A
// response above the max message size is replaced by a TOO_BIG error.
func (s *Server) Handle(req []byte, out []byte) ([]byte, error) {
	args, err := serializer.ParseRequest(req)
	if err != nil {
		return out, err
	}

	start := len(out)
	out = s.dispatch(args, out)
	if len(out)-start > s.config.MaxMessageSize {
		out = serializer.AppendErr(out[:start], common.ErrTooBig, "response is too big")
	}

	if common.Tag(out[start]) == common.TagErr {
		code := common.ErrCode(int32(binary.LittleEndian.Uint32(out[start+1:])))
		if c, ok := commandErrors[code]; ok {
			c.Inc()
		}
	}
	keyCount.Store(int64(s.keyspace.Len()))
	return out, nil
}
