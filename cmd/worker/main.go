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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/book-library/internal/bootstrap"
	"github.com/kirillkom/book-library/internal/config"
	"github.com/kirillkom/book-library/internal/observability/logging"
)

const serviceName = "book-library-worker"

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	err = run(ctx, app)
	app.Close()
	if err != nil {
		slog.Error("worker_stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *bootstrap.App) error {
	metricsServer := &http.Server{
		Addr:              ":" + app.Config.WorkerMetricsPort,
		Handler:           app.WorkerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		slog.Info("worker_subscribed", "subject", app.Config.NATSSubject, "queue_group", app.Config.NATSQueueGroup)
		return app.Queue.SubscribeBookIngested(groupCtx, handleBook(app))
	})
	return group.Wait()
}

func handleBook(app *bootstrap.App) func(context.Context, string) error {
	processTimeout := time.Duration(app.Config.WorkerProcessTimeoutSeconds) * time.Second
	return func(ctx context.Context, bookID string) error {
		processCtx, cancel := context.WithTimeout(ctx, processTimeout)
		defer cancel()

		if book, err := app.Books.GetByID(processCtx, bookID); err == nil {
			app.WorkerMetrics.ObserveQueueLag(time.Since(book.CreatedAt))
		}

		app.WorkerMetrics.StartBook()
		started := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, bookID)
		app.WorkerMetrics.FinishBook(time.Since(started), err)
		return err
	}
}
