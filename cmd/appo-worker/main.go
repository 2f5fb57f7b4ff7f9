// Appo Worker — выполняет шаги run из очереди tasks.ready.
//
// Worker:
//   - получает task.ready с контекстом run из RabbitMQ
//   - выполняет шаг (appo.db, appo.apm, appo.mepm)
//   - публикует task.completed с результатом и обновлённым контекстом
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Appo/internal/config"
	"github.com/shaiso/Appo/internal/mq"
	"github.com/shaiso/Appo/internal/repo"
	"github.com/shaiso/Appo/internal/tasks"
	"github.com/shaiso/Appo/internal/telemetry"
	"github.com/shaiso/Appo/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting appo-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.SetupTracing(cfg.Tracing.Exporter, "appo-worker")
	if err != nil {
		logger.Error("failed to setup tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.Migrate(pool); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Без очереди worker'у нечего делать.
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Registry:  cfg.TaskRegistry(repo.NewRegistry(pool)),
		Runner:    tasks.NewRunner(tasks.RunnerConfig{Logger: logger}),
		Publisher: mq.NewPublisher(mqConn, logger),
		Conn:      mqConn,
		Prefetch:  cfg.Worker.Prefetch,
		Logger:    logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			http.Error(w, "rabbitmq disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Worker.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := w.Run(ctx); err != nil {
		logger.Error("worker failed", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("appo-worker stopped")
}

