// Appo Janitor — удаляет завершённые задачи правил старше TTL.
//
// Несколько экземпляров безопасны: чистит держатель pg_advisory_lock.
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
	"github.com/shaiso/Appo/internal/janitor"
	"github.com/shaiso/Appo/internal/repo"
	"github.com/shaiso/Appo/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting appo-janitor")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	j, err := janitor.New(janitor.Config{
		Cleaner:  repo.NewRuleTaskRepo(pool),
		Locker:   repo.NewAdvisoryLock(pool, janitor.LockKey),
		Schedule: cfg.Janitor.Schedule,
		TTL:      cfg.Janitor.RuleTaskTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to create janitor", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("JANITOR_PORT"); v != "" {
		port = ":" + v
	}
	server := &http.Server{Addr: port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := j.Run(ctx); err != nil {
		logger.Error("janitor failed", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}
