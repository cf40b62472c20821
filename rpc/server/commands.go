package server

import (
	"errors"
	"time"

	"github.com/ValentinKolb/zKV/lib/db"
	"github.com/ValentinKolb/zKV/lib/db/zset"
	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/VictoriaMetrics/metrics"
)

// command is one entry of the dispatch table
type command struct {
	arity int // including the command name
	run   func(s *Server, args []string, out []byte) []byte

	calls    *metrics.Counter
	duration *metrics.Histogram
}

func newCommand(name string, arity int, run func(*Server, []string, []byte) []byte) *command {
	return &command{
		arity:    arity,
		run:      run,
		calls:    metrics.GetOrCreateCounter(`zkv_commands_total{cmd="` + name + `"}`),
		duration: metrics.GetOrCreateHistogram(`zkv_command_duration_seconds{cmd="` + name + `"}`),
	}
}

// commands maps the command name to its handler. Names are case sensitive.
var commands = map[string]*command{
	"get":    newCommand("get", 2, (*Server).get),
	"set":    newCommand("set", 3, (*Server).set),
	"del":    newCommand("del", 2, (*Server).del),
	"keys":   newCommand("keys", 1, (*Server).keys),
	"zadd":   newCommand("zadd", 4, (*Server).zadd),
	"zrem":   newCommand("zrem", 3, (*Server).zrem),
	"zscore": newCommand("zscore", 3, (*Server).zscore),
	"zquery": newCommand("zquery", 6, (*Server).zquery),
}

var unknownCalls = metrics.GetOrCreateCounter(`zkv_commands_total{cmd="unknown"}`)

// dispatch runs the command named by args[0]. A wrong name or argument
// count is an application error, not a protocol error.
func (s *Server) dispatch(args []string, out []byte) []byte {
	var cmd *command
	if len(args) > 0 {
		cmd = commands[args[0]]
	}
	if cmd == nil || cmd.arity != len(args) {
		unknownCalls.Inc()
		return serializer.AppendErr(out, common.ErrUnknown, "unknown command")
	}

	start := time.Now()
	out = cmd.run(s, args, out)
	cmd.duration.UpdateDuration(start)
	cmd.calls.Inc()
	return out
}

// --------------------------------------------------------------------------
// String commands
// --------------------------------------------------------------------------

// get key
func (s *Server) get(args []string, out []byte) []byte {
	val, ok, err := s.keyspace.Get(args[1])
	switch {
	case errors.Is(err, db.ErrWrongType):
		return serializer.AppendErr(out, common.ErrBadType, "not a string value")
	case !ok:
		return serializer.AppendNil(out)
	default:
		return serializer.AppendStr(out, val)
	}
}

// set key value
func (s *Server) set(args []string, out []byte) []byte {
	if err := s.keyspace.Set(args[1], args[2]); err != nil {
		return serializer.AppendErr(out, common.ErrBadType, "not a string value")
	}
	return serializer.AppendNil(out)
}

// del key
func (s *Server) del(args []string, out []byte) []byte {
	if s.keyspace.Delete(args[1]) {
		return serializer.AppendInt(out, 1)
	}
	return serializer.AppendInt(out, 0)
}

// keys lists every key in one response. There is no pagination, a large
// keyspace ends in a TOO_BIG error.
func (s *Server) keys(_ []string, out []byte) []byte {
	out = serializer.AppendArr(out, uint32(s.keyspace.Len()))
	s.keyspace.Keys(func(key string) bool {
		out = serializer.AppendStr(out, key)
		return true
	})
	return out
}

// --------------------------------------------------------------------------
// Sorted set commands
// --------------------------------------------------------------------------

// zadd key score name
func (s *Server) zadd(args []string, out []byte) []byte {
	score, ok := serializer.ParseFloat(args[2])
	if !ok {
		return serializer.AppendErr(out, common.ErrBadArg, "expect fp number")
	}

	set, err := s.keyspace.ZSet(args[1], true)
	if err != nil {
		return serializer.AppendErr(out, common.ErrBadType, "expect zset")
	}

	if set.Insert(args[3], score) {
		return serializer.AppendInt(out, 1)
	}
	return serializer.AppendInt(out, 0)
}

// zrem key name
func (s *Server) zrem(args []string, out []byte) []byte {
	set, err := s.keyspace.ZSet(args[1], false)
	if err != nil {
		return serializer.AppendErr(out, common.ErrBadType, "expect zset")
	}
	if set == nil {
		return serializer.AppendInt(out, 0)
	}

	m, ok := set.Lookup(args[2])
	if !ok {
		return serializer.AppendInt(out, 0)
	}
	set.Delete(m)
	return serializer.AppendInt(out, 1)
}

// zscore key name
func (s *Server) zscore(args []string, out []byte) []byte {
	set, err := s.keyspace.ZSet(args[1], false)
	if err != nil {
		return serializer.AppendErr(out, common.ErrBadType, "expect zset")
	}
	if set == nil {
		return serializer.AppendNil(out)
	}

	m, ok := set.Lookup(args[2])
	if !ok {
		return serializer.AppendNil(out)
	}
	return serializer.AppendDbl(out, m.Score())
}

// zquery key score name offset limit
//
// Replies with up to limit (name, score) pairs starting offset positions
// after the first member ordered at or after (score, name).
func (s *Server) zquery(args []string, out []byte) []byte {
	score, ok := serializer.ParseFloat(args[2])
	if !ok {
		return serializer.AppendErr(out, common.ErrBadArg, "expect fp number")
	}
	offset, ok := serializer.ParseInt(args[4])
	if !ok {
		return serializer.AppendErr(out, common.ErrBadArg, "expect int")
	}
	limit, ok := serializer.ParseInt(args[5])
	if !ok {
		return serializer.AppendErr(out, common.ErrBadArg, "expect int")
	}

	set, err := s.keyspace.ZSet(args[1], false)
	if err != nil {
		return serializer.AppendErr(out, common.ErrBadType, "expect zset")
	}

	out, pos := serializer.BeginArr(out)
	if set == nil || limit <= 0 {
		return out
	}

	var n uint32
	m, ok := set.SeekGE(score, args[3])
	if ok {
		m, ok = set.Offset(m, offset)
	}
	for ; ok && int64(n/2) < limit; m, ok = next(set, m) {
		out = serializer.AppendStr(out, m.Name())
		out = serializer.AppendDbl(out, m.Score())
		n += 2
	}
	serializer.EndArr(out, pos, n)
	return out
}

func next(set *zset.ZSet, m *zset.Member) (*zset.Member, bool) {
	return set.Offset(m, 1)
}
