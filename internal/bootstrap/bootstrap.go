package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/book-library/internal/config"
	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
	"github.com/kirillkom/book-library/internal/core/usecase"
	"github.com/kirillkom/book-library/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/book-library/internal/infrastructure/extractor/bookmeta"
	"github.com/kirillkom/book-library/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/book-library/internal/infrastructure/queue/nats"
	"github.com/kirillkom/book-library/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/book-library/internal/infrastructure/resilience"
	"github.com/kirillkom/book-library/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/book-library/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Books ports.BookRepository

	IngestUC  ports.BookIngestor
	ProcessUC ports.BookProcessor
	PreviewUC ports.CatalogPreviewer
	LibraryUC ports.LibraryService

	HTTPMetrics   *metrics.HTTPServerMetrics
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	books := postgres.NewBookRepository(db)
	reading := postgres.NewReadingRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	workerMetrics := metrics.NewWorkerMetrics(service)
	resilienceMetrics := metrics.NewResilienceMetrics(service, httpMetrics.Registerer(), workerMetrics.Registerer())
	executor := resilience.NewExecutor(resilienceConfig(cfg), resilience.WithObserver(resilienceMetrics))

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		HandlerTimeout:     time.Duration(cfg.WorkerProcessTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            time.Duration(cfg.OllamaTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})
	categorizer := usecase.NewSemanticCategorizer(ollama.NewEmbedder(ollamaClient), categories, usecase.CategorizerOptions{
		MinConfidence: cfg.CategoryMinConfidence,
		Separator:     cfg.CategoryJoinSeparator,
	})
	if err := warmup(ctx, categorizer); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	extractor := bookmeta.NewExtractor()

	return &App{
		Config: cfg,
		Queue:  queue,
		Books:  books,

		IngestUC:  usecase.NewIngestBookUseCase(books, storage, queue, cfg.MaxUploadBytes),
		ProcessUC: usecase.NewProcessBookUseCase(books, storage, extractor, categorizer, workerMetrics),
		PreviewUC: usecase.NewCatalogPreviewUseCase(extractor, categorizer),
		LibraryUC: usecase.NewLibraryUseCase(books, reading, xlsx.NewExporter(), categories),

		HTTPMetrics:   httpMetrics,
		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// warmup fails startup on a bad category set but tolerates an unreachable model;
// the categorizer retries lazily on the first book.
func warmup(ctx context.Context, categorizer *usecase.SemanticCategorizer) error {
	err := categorizer.Warmup(ctx)
	switch {
	case err == nil:
		slog.Info("categorizer_ready",
			"categories", len(categorizer.Categories()),
			"min_confidence", categorizer.MinConfidence(),
		)
		return nil
	case domain.IsKind(err, domain.ErrMisconfigured):
		return fmt.Errorf("categorizer warmup: %w", err)
	default:
		slog.Warn("categorizer_warmup_deferred", "error", err)
		return nil
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    cfg.ResilienceRetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.ResilienceRetryInitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.ResilienceRetryMaxBackoffMS) * time.Millisecond,
		RetryMultiplier:     2,

		BreakerEnabled:          cfg.ResilienceBreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.ResilienceBreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.ResilienceBreakerOpenTimeoutMS) * time.Millisecond,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.ResilienceBreakerHalfOpenMaxCalls, 0)),
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
