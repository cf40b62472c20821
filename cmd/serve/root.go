package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ValentinKolb/zKV/cmd/util"
	"github.com/ValentinKolb/zKV/lib/db/engines/keyspace"
	"github.com/ValentinKolb/zKV/rpc/common"
	"github.com/ValentinKolb/zKV/rpc/server"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the zKV server",
		Long:    `Start the zKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is ZKV_<flag> (e.g. ZKV_LOG_LEVEL=debug)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, common.DefaultEndpoint, util.WrapString("The address on which the server will listen (e.g. 0.0.0.0:1234 for tcp, /tmp/zkv.sock for unix)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", util.WrapString("Address for the Prometheus /metrics endpoint (e.g. localhost:9100). Empty disables it"))

	key = "max-message-size"
	ServeCmd.PersistentFlags().Int(key, common.MaxMessageSize, util.WrapString("The largest request or response body in bytes"))

	key = "read-chunk"
	ServeCmd.PersistentFlags().Int(key, common.DefaultReadChunkSize, util.WrapString("Bytes read from a connection per readable event"))

	key = "socket-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("The size of the socket write buffer of accepted connections (in KB, 0 = OS default)"))

	key = "socket-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("The size of the socket read buffer of accepted connections (in KB, 0 = OS default)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, util.WrapString("Whether to enable TCP_NODELAY on accepted connections (tcp only)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("The keepalive interval of accepted connections (in seconds, tcp only)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, util.WrapString("The linger time of accepted connections (in seconds, tcp only, negative keeps the OS default)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Transport.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.MaxMessageSize = viper.GetInt("max-message-size")
	serveCmdConfig.ReadChunkSize = viper.GetInt("read-chunk")
	serveCmdConfig.Transport.WriteBufferSize = viper.GetInt("socket-write-buffer") * 1024
	serveCmdConfig.Transport.ReadBufferSize = viper.GetInt("socket-read-buffer") * 1024
	serveCmdConfig.Transport.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.Transport.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	serveCmdConfig.Transport.TCPLingerSec = viper.GetInt("tcp-linger")

	if _, err := common.ParseLogLevel(serveCmdConfig.LogLevel); err != nil {
		return err
	}
	if serveCmdConfig.MaxMessageSize <= 0 || serveCmdConfig.MaxMessageSize > common.MaxMessageSize {
		return errors.New("max-message-size must be between 1 and 32 MiB")
	}
	if serveCmdConfig.ReadChunkSize <= 0 {
		return errors.New("read-chunk must be positive")
	}

	return nil
}

// run starts the zKV server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	t, err := util.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(serveCmdConfig, t, keyspace.NewKeySpace())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(serv.Serve)

	// stop the event loop on a signal or when another goroutine failed
	g.Go(func() error {
		<-ctx.Done()
		return serv.Shutdown()
	})

	if serveCmdConfig.MetricsEndpoint != "" {
		metricsServer := newMetricsServer(serveCmdConfig.MetricsEndpoint)
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// newMetricsServer exposes all registered metrics in the Prometheus text format
func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
