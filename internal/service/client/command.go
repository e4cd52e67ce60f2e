package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/radio-alternator/internal/config"
	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
	"github.com/oshokin/radio-alternator/internal/logger"
)

// Command names accepted by Run.
const (
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandPause  = "pause"
	CommandStatus = "status"
)

// DefaultPollInterval is the status polling interval used by stop --wait.
const DefaultPollInterval = 100 * time.Millisecond

// Options controls a single alternator-ctl invocation.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// LogLevel overrides the log_level setting when non-empty.
	LogLevel string
	// Command is one of the Command* names.
	Command string
	// Durations overrides the server's phase durations on start. Zero keeps them.
	Durations domain.Config
	// Wait makes stop block until the worker has terminated.
	Wait bool
	// PollInterval is the status polling interval while waiting.
	PollInterval time.Duration
}

// errUnknownCommand is returned for command names Run does not handle.
var errUnknownCommand = errors.New("unknown command")

// Run executes one control command against the alternator server and logs the resulting status.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alternator-ctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logLevel := cfg.LogLevel
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}

	if err = logger.SetLevelName(logLevel); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := DetectActor()
	if err != nil {
		// Anonymous calls are still accepted by the server.
		logger.WarnKV(ctx, "Failed to detect actor", "error", err)
	}

	client, err := Dial(ctx, serverAddress, WithCallTimeout(cfg.Timeout), WithActor(actor))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	return execute(ctx, client, opts)
}

// execute dispatches the command on an established client.
func execute(ctx context.Context, client *Client, opts *Options) error {
	var (
		status *domain.Status
		err    error
	)

	switch opts.Command {
	case CommandStart:
		var alreadyRunning bool

		status, alreadyRunning, err = client.Start(ctx, opts.Durations)
		if err == nil && alreadyRunning {
			logger.Info(ctx, "Alternator is already running")
		}
	case CommandStop:
		status, err = client.Stop(ctx)
		if err == nil && opts.Wait {
			status, err = waitStopped(ctx, client, opts.PollInterval)
		}
	case CommandPause:
		status, err = client.TogglePause(ctx)
	case CommandStatus:
		status, err = client.GetStatus(ctx)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, opts.Command)
	}

	if err != nil {
		return err
	}

	logStatus(ctx, status)

	return nil
}

// waitStopped polls the server until no worker is running.
func waitStopped(ctx context.Context, client *Client, interval time.Duration) (*domain.Status, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := client.GetStatus(ctx)
		if err != nil {
			return nil, err
		}

		if !status.Running {
			return status, nil
		}

		logger.DebugKV(ctx, "Waiting for alternator to stop", "phase", status.Phase.String())

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for stop: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// logStatus writes the status as one structured entry.
func logStatus(ctx context.Context, status *domain.Status) {
	if status == nil {
		return
	}

	fields := []any{
		"run_id", status.RunID,
		"running", status.Running,
		"paused", status.Paused,
		"stop_requested", status.StopRequested,
		"phase", status.Phase.String(),
		"cycles", status.Cycles,
		"burst_duration", status.Config.BurstDuration.String(),
		"scan_duration", status.Config.ScanDuration.String(),
	}

	if status.Phase.IsTimed() {
		fields = append(fields, "window", status.Config.Duration(status.Phase).String())
	}

	logger.InfoKV(ctx, "Alternator status", fields...)
}
