package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/kirillkom/book-library/internal/bootstrap"
	"github.com/kirillkom/book-library/internal/config"
	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
	"github.com/kirillkom/book-library/internal/observability/metrics"
)

type booksStub struct {
	ports.BookRepository
}

func (booksStub) GetByID(_ context.Context, id string) (*domain.Book, error) {
	return &domain.Book{ID: id, CreatedAt: time.Now()}, nil
}

type processorFunc func(ctx context.Context, bookID string) error

func (f processorFunc) ProcessByID(ctx context.Context, bookID string) error {
	return f(ctx, bookID)
}

func TestHandleBookReturnsFailureWithoutLogging(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	processErr := errors.New("embed book: connection refused")
	app := &bootstrap.App{
		Config: config.Config{WorkerProcessTimeoutSeconds: 5},
		Books:  booksStub{},
		ProcessUC: processorFunc(func(ctx context.Context, bookID string) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatalf("expected process deadline")
			}
			return processErr
		}),
		WorkerMetrics: metrics.NewWorkerMetrics(serviceName),
	}

	err := handleBook(app)(context.Background(), "book-1")
	if !errors.Is(err, processErr) {
		t.Fatalf("expected process error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("failure is logged by the queue dispatcher, got %q", buf.String())
	}
}
