package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/vector-insight/internal/bootstrap"
	"github.com/kirillkom/vector-insight/internal/config"
	"github.com/kirillkom/vector-insight/internal/observability/logging"
)

const syncTimeout = 30 * time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(bootstrap.WorkerServiceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRefreshRequested(ctx, func(handlerCtx context.Context, jobID string) error {
		syncCtx, cancel := context.WithTimeout(handlerCtx, syncTimeout)
		defer cancel()

		started := time.Now()
		app.Metrics.StartSync()
		counts, err := app.SyncUC.SyncAll(syncCtx)
		app.Metrics.FinishSync(bootstrap.WorkerServiceName, time.Since(started), err)

		attrs := []any{"job_id", jobID, "duration_ms", float64(time.Since(started).Microseconds()) / 1000.0}
		for category, n := range counts {
			app.Metrics.SetIndexedRecords(bootstrap.WorkerServiceName, category.Collection(), n)
			attrs = append(attrs, category.Collection(), n)
		}
		if err != nil {
			slog.Error("index_sync_finished", append(attrs, "error", err)...)
			return err
		}
		slog.Info("index_sync_finished", attrs...)
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
