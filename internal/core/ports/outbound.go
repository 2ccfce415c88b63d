package ports

import (
	"context"
	"io"

	"github.com/kirillkom/book-library/internal/core/domain"
)

// BookRepository persists and reads catalog records.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	// FindByChecksum returns ErrBookNotFound when no record holds these bytes.
	FindByChecksum(ctx context.Context, checksum string) (*domain.Book, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookStatus, errMessage string) error
	SaveCatalogEntry(ctx context.Context, id string, entry domain.CatalogEntry) error
	UpdateCategory(ctx context.Context, id, category string) error
	ListByCategory(ctx context.Context, category string, limit int) ([]domain.Book, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Book, error)
	RandomBook(ctx context.Context, category string) (*domain.Book, error)
	Delete(ctx context.Context, id string) error
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// ReadingRepository persists per-user reading progress.
type ReadingRepository interface {
	SetStatus(ctx context.Context, entry *domain.ReadingEntry) error
	ListBooksByStatus(ctx context.Context, userID string, status domain.ReadingStatus) ([]domain.Book, error)
	CountByStatus(ctx context.Context, userID string) (map[domain.ReadingStatus]int, error)
}

// ObjectStorage stores uploaded book files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishBookIngested(ctx context.Context, bookID string) error
	SubscribeBookIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// MetadataExtractor recovers bibliographic facts from raw bytes. It never fails.
type MetadataExtractor interface {
	Extract(data []byte, filename string) domain.ExtractedMetadata
}

// FormatParser reads container-level metadata of one file format.
// ok is false when nothing could be recovered.
type FormatParser interface {
	Parse(data []byte) (fields domain.ParsedFields, ok bool)
}

// Categorizer assigns one of the configured categories to a title/author pair.
// A blank title/author pair yields Uncategorized with confidence 0.
type Categorizer interface {
	Categorize(ctx context.Context, title, author string) (domain.CategoryAssignment, error)
}

// Embedder builds vectors for category descriptions and book text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CatalogExporter renders the catalog into a downloadable document.
type CatalogExporter interface {
	WriteCatalog(w io.Writer, books []domain.Book) error
}

// CatalogObserver is notified after a book has been cataloged.
type CatalogObserver interface {
	ObserveCataloged(book *domain.Book)
}
