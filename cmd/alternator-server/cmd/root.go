package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/radio-alternator/internal/config"
	"github.com/oshokin/radio-alternator/internal/service/server"
	"github.com/oshokin/radio-alternator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides log_level from the configuration file.
	logLevel string
	// autostart begins alternating without waiting for a start call.
	autostart bool

	// rootCmd represents the base command for running the alternator server.
	rootCmd = &cobra.Command{
		Use:   "alternator-server [listen-address]",
		Short: "Run the burst/scan alternator behind a gRPC control server.",
		Long: `Starts the gRPC server that owns the radio alternator.

Once started, the alternator repeatedly runs a transmit burst followed by a passive scan,
invoking the configured burst and scan commands at the edges of each window.
Only the port from server_addr is used for listening (e.g., :7100).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:7100).
On SIGINT or SIGTERM the worker is stopped and drained before the server exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				LogLevel:      logLevel,
				Autostart:     autostart,
			})
		},
	}
)

// Execute runs the alternator-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "minimum log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&autostart, "autostart", "a", false, "start alternating immediately")
}
