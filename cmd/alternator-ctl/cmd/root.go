package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/radio-alternator/internal/config"
	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
	"github.com/oshokin/radio-alternator/internal/service/client"
	"github.com/oshokin/radio-alternator/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from the configuration file.
	serverAddress string
	// logLevel overrides log_level from the configuration file.
	logLevel string
	// durations carries the start overrides.
	durations domain.Config
	// wait makes stop block until the worker has terminated.
	wait bool

	// rootCmd represents the base command of the control client.
	rootCmd = &cobra.Command{
		Use:   "alternator-ctl",
		Short: "Control a running alternator server.",
		Long: `Sends one control command to the alternator server and prints the resulting status.

The server address is taken from server_addr in the configuration file unless --server is given.`,
	}

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start alternating burst and scan windows.",
		Long: `Starts the alternator worker. A run that is already active is reported, not restarted.
--burst and --scan replace the server's window durations for this and later runs.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client.CommandStart)
		},
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Request the worker to stop after the current window.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client.CommandStop)
		},
	}

	pauseCmd = &cobra.Command{
		Use:   "pause",
		Short: "Toggle the pause request; resuming restarts from a burst.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client.CommandPause)
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the current alternator status.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client.CommandStatus)
		},
	}
)

// run executes one control command with the parsed flags.
func run(command string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		LogLevel:      logLevel,
		Command:       command,
		Durations:     durations,
		Wait:          wait,
	})
}

// Execute runs the alternator-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&serverAddress, "server", "s", "", "server address, overrides server_addr")
	flags.StringVarP(&logLevel, "log-level", "l", "", "minimum log level (debug, info, warn, error)")

	startCmd.Flags().DurationVar(&durations.BurstDuration, "burst", 0, "burst window duration (e.g. 300ms)")
	startCmd.Flags().DurationVar(&durations.ScanDuration, "scan", 0, "scan window duration (e.g. 700ms)")
	stopCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait until the worker has terminated")

	rootCmd.AddCommand(startCmd, stopCmd, pauseCmd, statusCmd)
}
