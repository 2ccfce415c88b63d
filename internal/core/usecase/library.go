package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
)

const (
	defaultListLimit   = 20
	maxListLimit       = 200
	searchResultsLimit = 10
	exportBatchLimit   = 10000
)

type LibraryUseCase struct {
	books      ports.BookRepository
	reading    ports.ReadingRepository
	exporter   ports.CatalogExporter
	categories []domain.CategoryDefinition
	now        func() time.Time
}

func NewLibraryUseCase(
	books ports.BookRepository,
	reading ports.ReadingRepository,
	exporter ports.CatalogExporter,
	categories []domain.CategoryDefinition,
) *LibraryUseCase {
	defined := make([]domain.CategoryDefinition, len(categories))
	copy(defined, categories)
	return &LibraryUseCase{
		books:      books,
		reading:    reading,
		exporter:   exporter,
		categories: defined,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *LibraryUseCase) Categories() []domain.CategoryDefinition {
	out := make([]domain.CategoryDefinition, len(uc.categories))
	copy(out, uc.categories)
	return out
}

func (uc *LibraryUseCase) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get book", errors.New("book id is required"))
	}
	return uc.books.GetByID(ctx, id)
}

func (uc *LibraryUseCase) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Book, error) {
	if category != "" && !uc.isKnownCategory(category) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list books", fmt.Errorf("unknown category %q", category))
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	books, err := uc.books.ListByCategory(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (uc *LibraryUseCase) Search(ctx context.Context, query string) ([]domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search books", errors.New("query is required"))
	}
	books, err := uc.books.Search(ctx, query, searchResultsLimit)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

func (uc *LibraryUseCase) RandomBook(ctx context.Context, category string) (*domain.Book, error) {
	if category != "" && !uc.isKnownCategory(category) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "random book", fmt.Errorf("unknown category %q", category))
	}
	return uc.books.RandomBook(ctx, category)
}

func (uc *LibraryUseCase) Recategorize(ctx context.Context, id, category string) (*domain.Book, error) {
	category = strings.TrimSpace(category)
	if !uc.isKnownCategory(category) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "recategorize", fmt.Errorf("unknown category %q", category))
	}
	if err := uc.books.UpdateCategory(ctx, id, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return uc.books.GetByID(ctx, id)
}

func (uc *LibraryUseCase) SetReadingStatus(
	ctx context.Context,
	userID, bookID string,
	status domain.ReadingStatus,
) (*domain.ReadingEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "set reading status", errors.New("user id is required"))
	}
	if !status.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "set reading status", fmt.Errorf("unknown status %q", status))
	}
	if _, err := uc.books.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	entry := &domain.ReadingEntry{
		BookID: bookID,
		UserID: userID,
		Status: status,
	}
	now := uc.now()
	switch status {
	case domain.ReadingInProgress:
		entry.StartedAt = &now
	case domain.ReadingFinished:
		entry.FinishedAt = &now
	}

	if err := uc.reading.SetStatus(ctx, entry); err != nil {
		return nil, fmt.Errorf("save reading status: %w", err)
	}
	return entry, nil
}

func (uc *LibraryUseCase) ListReading(ctx context.Context, userID string, status domain.ReadingStatus) ([]domain.Book, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list reading", errors.New("user id is required"))
	}
	if status == "" {
		status = domain.ReadingInProgress
	}
	if !status.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list reading", fmt.Errorf("unknown status %q", status))
	}
	books, err := uc.reading.ListBooksByStatus(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list reading: %w", err)
	}
	return books, nil
}

func (uc *LibraryUseCase) Stats(ctx context.Context, userID string) (*domain.LibraryStats, error) {
	byCategory, err := uc.books.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	stats := &domain.LibraryStats{ByCategory: byCategory}
	for _, n := range byCategory {
		stats.Total += n
	}

	if strings.TrimSpace(userID) == "" {
		return stats, nil
	}
	byReading, err := uc.reading.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count by reading status: %w", err)
	}
	stats.ByReading = byReading
	return stats, nil
}

func (uc *LibraryUseCase) ExportCatalog(ctx context.Context, w io.Writer) error {
	books, err := uc.books.ListByCategory(ctx, "", exportBatchLimit)
	if err != nil {
		return fmt.Errorf("list books for export: %w", err)
	}
	if err := uc.exporter.WriteCatalog(w, books); err != nil {
		return fmt.Errorf("write catalog export: %w", err)
	}
	return nil
}

func (uc *LibraryUseCase) isKnownCategory(category string) bool {
	if category == domain.CategoryUncategorized {
		return true
	}
	for _, c := range uc.categories {
		if c.Name == category {
			return true
		}
	}
	return false
}
