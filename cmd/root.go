package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/zKV/cmd/kv"
	"github.com/ValentinKolb/zKV/cmd/serve"
	"github.com/ValentinKolb/zKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "zkv",
		Short: "in-memory key-value and sorted set server",
		Long: fmt.Sprintf(`zKV (v%s)

A single threaded in-memory key-value server written in Go. Values are
either strings or sorted sets, served over a small length prefixed binary
protocol.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of zKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("zKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
