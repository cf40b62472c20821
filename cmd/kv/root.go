package kv

import (
	"github.com/ValentinKolb/zKV/cmd/util"
	"github.com/ValentinKolb/zKV/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform string and sorted set operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(zaddCmd)
	KeyValueCommands.AddCommand(zremCmd)
	KeyValueCommands.AddCommand(zscoreCmd)
	KeyValueCommands.AddCommand(zqueryCmd)
	KeyValueCommands.AddCommand(doCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects the RPC client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	rpcClient, err = client.NewRPCClient(*config, t)
	return err
}

func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
