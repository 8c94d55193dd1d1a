// Package daemon runs the sentinel: once for cron style invocations, or on
// an interval in serve mode with the status API alongside.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/internal/api"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/version"
)

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logging.Info("Received signal: %v", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// RunOnce performs a single sentinel run. The returned error carries the
// process exit code for persistence failures; the outcome carries it
// otherwise.
func RunOnce() (sentinel.Outcome, error) {
	components, err := Build(time.Now())
	if err != nil {
		return sentinel.Outcome{}, err
	}

	ctx, cancel := SignalContext()
	defer cancel()

	out, err := components.Runner.RunOnce(ctx)
	writeTextfile(components.Metrics)
	return out, err
}

// Run starts serve mode: a run every interval, one at a time, plus the
// status API. It returns on SIGINT/SIGTERM, or with an exit error when a
// run hits an unusable state file.
func Run() error {
	logging.SetLevel(config.Global.LogLevel)
	logging.Info("Starting ceph-sentinel v%s", version.SentinelVersion)
	logging.RedirectStandardLog(logging.NewLevelWriter("WARN", "stdlog"))

	startTime := time.Now()
	components, err := Build(startTime)
	if err != nil {
		return err
	}

	var apiServer *api.Server
	if !config.Global.NoAPI {
		apiServer, err = api.NewServer(buildAPIConfig(components))
		if err != nil {
			return fmt.Errorf("failed to create API server: %w", err)
		}
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		logging.Info("Status API listening on http://%s", apiServer.Addr())
	}

	ctx, cancel := SignalContext()
	defer cancel()

	logging.Success("ceph-sentinel serving, a run every %s", config.Global.ServeInterval)

	loop := &serveLoop{
		interval: config.Global.ServeInterval,
		cycle:    components.Runner.RunOnce,
		after: func(sentinel.Outcome, error) {
			writeTextfile(components.Metrics)
		},
	}
	runErr := loop.run(ctx)

	logging.Info("Initiating graceful shutdown...")
	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Error shutting down API server: %v", err)
		}
	}

	logging.Success("ceph-sentinel stopped after %d run(s), up %s (%d tick(s) skipped)",
		loop.runs, time.Since(startTime).Round(time.Second), loop.skipped)
	return runErr
}
