// Package server implements the zKV request handling: it parses request
// bodies, dispatches them to the command table and encodes the replies.
//
// Commands (arity includes the name):
//
//	get key                            -> STR | NIL | ERR BAD_TYPE
//	set key value                      -> NIL | ERR BAD_TYPE
//	del key                            -> INT 1 | INT 0
//	keys                               -> ARR of STR
//	zadd key score name                -> INT 1 (added) | INT 0 (updated)
//	zrem key name                      -> INT 1 | INT 0
//	zscore key name                    -> DBL | NIL
//	zquery key score name offset limit -> ARR name, score, name, score ...
//
// A missing key behaves as an empty sorted set for zrem, zscore and zquery.
// Numeric arguments are validated before the key is looked up, so a
// rejected command never changes the keyspace.
//
// The Server holds the keyspace and is driven by a single goroutine (the
// transport's event loop). Per command counters and latency histograms are
// registered with VictoriaMetrics.
package server
