package kv

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/serializer"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the string value of a key",
		Args:  cobra.ExactArgs(1),
		RunE:  runRaw("get"),
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the string value of a key",
		Args:  cobra.ExactArgs(2),
		RunE:  runRaw("set"),
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key of any type",
		Args:  cobra.ExactArgs(1),
		RunE:  runRaw("del"),
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys",
		Args:  cobra.NoArgs,
		RunE:  runRaw("keys"),
	}
	zaddCmd = &cobra.Command{
		Use:   "zadd [key] [score] [name]",
		Short: "Adds a member to a sorted set or updates its score",
		Args:  cobra.ExactArgs(3),
		RunE:  runRaw("zadd"),
	}
	zremCmd = &cobra.Command{
		Use:   "zrem [key] [name]",
		Short: "Removes a member from a sorted set",
		Args:  cobra.ExactArgs(2),
		RunE:  runRaw("zrem"),
	}
	zscoreCmd = &cobra.Command{
		Use:   "zscore [key] [name]",
		Short: "Reads the score of a sorted set member",
		Args:  cobra.ExactArgs(2),
		RunE:  runRaw("zscore"),
	}
	zqueryCmd = &cobra.Command{
		Use:   "zquery [key] [score] [name] [offset] [limit]",
		Short: "Lists up to limit (name, score) pairs starting offset members after (score, name)",
		Args:  cobra.ExactArgs(5),
		RunE:  runRaw("zquery"),
	}
	doCmd = &cobra.Command{
		Use:   "do [command] [args...]",
		Short: "Sends an arbitrary command and prints the raw reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := rpcClient.Do(args...)
			if err != nil {
				return err
			}
			writeValue(os.Stdout, v, 0)
			return nil
		},
	}
)

// runRaw sends name with the positional arguments and prints the reply.
// Argument validation is left to the server so the CLI shows its errors.
func runRaw(name string) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		v, err := rpcClient.Do(append([]string{name}, args...)...)
		if err != nil {
			return err
		}
		writeValue(os.Stdout, v, 0)
		return nil
	}
}

// writeValue prints a reply one value per line, nested arrays indented
func writeValue(w io.Writer, v serializer.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	_, _ = fmt.Fprintf(w, "%s%s\n", indent, v)
	if v.Tag != common.TagArr {
		return
	}
	for _, elem := range v.Arr {
		writeValue(w, elem, depth+1)
	}
	_, _ = fmt.Fprintf(w, "%s(arr) end\n", indent)
}
