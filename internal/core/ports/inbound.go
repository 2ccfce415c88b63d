package ports

import (
	"context"
	"io"

	"github.com/kirillkom/book-library/internal/core/domain"
)

// BookIngestor is the inbound contract for book upload orchestration.
type BookIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Book, error)
}

// BookProcessor is the inbound contract for asynchronous cataloging.
type BookProcessor interface {
	ProcessByID(ctx context.Context, bookID string) error
}

// CatalogPreviewer catalogs a file without persisting anything.
type CatalogPreviewer interface {
	Preview(ctx context.Context, filename string, data []byte) (domain.CatalogEntry, error)
}

// LibraryService is the inbound read/update model for the catalog.
type LibraryService interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]domain.Book, error)
	Search(ctx context.Context, query string) ([]domain.Book, error)
	RandomBook(ctx context.Context, category string) (*domain.Book, error)
	Recategorize(ctx context.Context, id, category string) (*domain.Book, error)
	SetReadingStatus(ctx context.Context, userID, bookID string, status domain.ReadingStatus) (*domain.ReadingEntry, error)
	ListReading(ctx context.Context, userID string, status domain.ReadingStatus) ([]domain.Book, error)
	Stats(ctx context.Context, userID string) (*domain.LibraryStats, error)
	Categories() []domain.CategoryDefinition
	ExportCatalog(ctx context.Context, w io.Writer) error
}
