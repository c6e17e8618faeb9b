// Package main boots the batch runner CLI, wiring configuration, logging,
// metrics and the Redis/MQTT pipeline adapters.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/domain"
	"github.com/ibs-source/batch/runner/golang/internal/logger"
	"github.com/ibs-source/batch/runner/golang/internal/metrics"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

var configPath string

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "runner",
		Short:         "Bounded parallel batch pipeline runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	root.AddCommand(newRelayCommand(), newMirrorCommand())

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// environment groups everything a pipeline command needs at startup.
type environment struct {
	cfg     *config.Config
	log     ports.Logger
	metrics *domain.Metrics
}

func setup() (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	return &environment{
		cfg:     cfg,
		log:     log.WithFields(ports.F("app", cfg.App.Name)),
		metrics: domain.NewMetrics(),
	}, nil
}

// runPipeline executes fn under a signal-aware context, with the optional
// Prometheus endpoint running for the duration of the pipeline.
func (e *environment) runPipeline(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if e.cfg.Metrics.Enabled {
		srv = metrics.NewServer(e.metrics, e.cfg.Metrics.Port)
		go func() {
			e.log.Info("metrics endpoint listening", ports.F("port", e.cfg.Metrics.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.log.Error("metrics server error", ports.F("error", err))
			}
		}()
	}

	err := fn(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.App.ShutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			e.log.Error("failed to shut down metrics server", ports.F("error", serr))
		}
	}

	snapshot := e.metrics.Snapshot()
	e.log.Info("pipeline finished",
		ports.F("items_read", snapshot.ItemsRead),
		ports.F("items_written", snapshot.ItemsWritten),
		ports.F("read_errors", snapshot.ReadErrors),
		ports.F("apply_errors", snapshot.ApplyErrors),
		ports.F("write_errors", snapshot.WriteErrors),
	)
	return err
}
