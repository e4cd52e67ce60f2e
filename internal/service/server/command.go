package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	api "github.com/oshokin/radio-alternator/internal/api/grpc/alternator"
	"github.com/oshokin/radio-alternator/internal/config"
	"github.com/oshokin/radio-alternator/internal/logger"
	"github.com/oshokin/radio-alternator/internal/metrics"
	core "github.com/oshokin/radio-alternator/internal/service/alternator"
	"github.com/oshokin/radio-alternator/internal/subsystem"
	"github.com/oshokin/radio-alternator/internal/version"
)

// Options controls the alternator-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// LogLevel overrides the log_level setting when non-empty.
	LogLevel string
	// Autostart starts alternating as soon as the server is listening.
	Autostart bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// metricsReadHeaderTimeout bounds slow clients of the metrics endpoint.
const metricsReadHeaderTimeout = 5 * time.Second

// Run starts the gRPC server and blocks until context is canceled or server stops.
// On cancellation the alternator is stopped and drained before the listeners close.
//
//nolint:funlen // Linear wiring of the process; splitting would scatter the shutdown order.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alternator-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logLevel := settings.LogLevel
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}

	if err = logger.SetLevelName(logLevel); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	if settings.ReapStale {
		reapStale(ctx, settings)
	}

	burst, err := subsystem.FromConfig("burst", settings.Burst)
	if err != nil {
		return fmt.Errorf("build burst subsystem: %w", err)
	}

	scan, err := subsystem.FromConfig("scan", settings.Scan)
	if err != nil {
		return fmt.Errorf("build scan subsystem: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	alt := core.New(burst, scan,
		core.WithConfig(settings.Durations()),
		core.WithObserver(metrics.NewRecorder(registry)),
	)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(actorInterceptor))
	api.RegisterAlternatorServiceServer(grpcServer, api.NewServer(alt))

	metricsServer, err := serveMetrics(ctx, settings.MetricsAddress, registry)
	if err != nil {
		// Serve never received lis, so Stop alone would leave it open.
		_ = lis.Close()

		return err
	}

	logger.InfoKV(ctx, "Alternator server listening",
		"listen_address", listenAddress,
		"metrics_address", settings.MetricsAddress,
		"version", version.Short(),
	)

	if opts.Autostart {
		if err = alt.Start(ctx, nil); err != nil {
			logger.ErrorKV(ctx, "Autostart failed", "error", err)
		}
	}

	// stopped is closed once Serve returns, done after the
	// shutdown sequence. Run returns only once the worker and both listeners
	// are gone, whichever side ended serving.
	var (
		stopped = make(chan struct{})
		done    = make(chan struct{})
	)

	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}

		shutdown(context.WithoutCancel(ctx), settings.Timeout, alt, grpcServer, metricsServer)
		close(done)
	}()

	serveErr := grpcServer.Serve(lis)
	close(stopped)

	<-done

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	logger.Info(ctx, "Alternator server stopped")

	return nil
}

// shutdown stops the worker, waits for it up to timeout and then closes the listeners.
func shutdown(
	ctx context.Context,
	timeout time.Duration,
	alt *core.Alternator,
	grpcServer *grpc.Server,
	metricsServer *http.Server,
) {
	logger.Info(ctx, "Stopping alternator")
	alt.Stop(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := alt.Wait(waitCtx); err != nil {
		logger.WarnKV(ctx, "Alternator did not stop in time", "timeout", timeout.String(), "error", err)
	}

	logger.Info(ctx, "Shutting down gRPC server")
	grpcServer.GracefulStop()

	if metricsServer == nil {
		return
	}

	if err := metricsServer.Shutdown(waitCtx); err != nil {
		logger.WarnKV(ctx, "Metrics server shutdown failed", "error", err)
	}
}

// serveMetrics starts the Prometheus endpoint when an address is configured.
// A nil server is returned when metrics are disabled.
func serveMetrics(ctx context.Context, address string, gatherer prometheus.Gatherer) (*http.Server, error) {
	if address == "" {
		return nil, nil //nolint:nilnil // Metrics are optional.
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen metrics on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics server failed", "error", err)
		}
	}()

	return srv, nil
}

// reapStale kills subsystem processes left behind by a previous server.
func reapStale(ctx context.Context, settings *config.Config) {
	names := subsystem.ExecutableNames(settings.Burst, settings.Scan)
	if len(names) == 0 {
		return
	}

	killed, err := subsystem.TerminateStale(ctx, names)
	if err != nil {
		logger.WarnKV(ctx, "Failed to terminate stale subsystem processes", "error", err)
	}

	if killed > 0 {
		logger.InfoKV(ctx, "Terminated stale subsystem processes", "count", killed)
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
