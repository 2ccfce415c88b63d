package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
)

type ProcessBookUseCase struct {
	repo        ports.BookRepository
	storage     ports.ObjectStorage
	extractor   ports.MetadataExtractor
	categorizer ports.Categorizer
	observer    ports.CatalogObserver
}

func NewProcessBookUseCase(
	repo ports.BookRepository,
	storage ports.ObjectStorage,
	extractor ports.MetadataExtractor,
	categorizer ports.Categorizer,
	observer ports.CatalogObserver,
) *ProcessBookUseCase {
	return &ProcessBookUseCase{
		repo:        repo,
		storage:     storage,
		extractor:   extractor,
		categorizer: categorizer,
		observer:    observer,
	}
}

func (uc *ProcessBookUseCase) ProcessByID(ctx context.Context, bookID string) error {
	if err := uc.markStatus(ctx, bookID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	book, entry, err := uc.processPipeline(ctx, bookID)
	if err != nil {
		if failErr := uc.markFailed(ctx, bookID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.persistCatalogEntry(ctx, book.ID, entry); err != nil {
		if failErr := uc.markFailed(ctx, bookID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, bookID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	applyCatalogEntry(book, entry)
	book.Status = domain.StatusReady
	slog.Info("book_cataloged",
		"book_id", book.ID,
		"format", entry.Metadata.Format,
		"category", entry.Assignment.Category,
		"confidence", entry.Assignment.Confidence,
	)
	if uc.observer != nil {
		uc.observer.ObserveCataloged(book)
	}
	return nil
}

func (uc *ProcessBookUseCase) processPipeline(ctx context.Context, bookID string) (*domain.Book, domain.CatalogEntry, error) {
	book, err := uc.loadBook(ctx, bookID)
	if err != nil {
		return nil, domain.CatalogEntry{}, err
	}

	data, err := uc.readFile(ctx, book)
	if err != nil {
		return nil, domain.CatalogEntry{}, err
	}

	entry, err := catalog(ctx, uc.extractor, uc.categorizer, domain.RawDocument{Data: data, Filename: book.Filename})
	if err != nil {
		return nil, domain.CatalogEntry{}, err
	}
	return book, entry, nil
}

// catalog runs extraction and categorization for one file. When no title can
// be recovered at all, the untouched original filename becomes the title.
func catalog(
	ctx context.Context,
	extractor ports.MetadataExtractor,
	categorizer ports.Categorizer,
	doc domain.RawDocument,
) (domain.CatalogEntry, error) {
	meta := extractor.Extract(doc.Data, doc.Filename)
	if meta.Title == "" {
		meta.Title = doc.Filename
	}

	assignment, err := categorizer.Categorize(ctx, meta.Title, meta.Author)
	if err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("categorize book: %w", err)
	}
	return domain.CatalogEntry{Metadata: meta, Assignment: assignment}, nil
}

func (uc *ProcessBookUseCase) loadBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := uc.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("fetch book by id: %w", err)
	}
	return book, nil
}

func (uc *ProcessBookUseCase) readFile(ctx context.Context, book *domain.Book) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, book.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return data, nil
}

func (uc *ProcessBookUseCase) persistCatalogEntry(ctx context.Context, bookID string, entry domain.CatalogEntry) error {
	if err := uc.repo.SaveCatalogEntry(ctx, bookID, entry); err != nil {
		return fmt.Errorf("save catalog entry: %w", err)
	}
	return nil
}

func (uc *ProcessBookUseCase) markStatus(ctx context.Context, bookID string, status domain.BookStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, bookID, status, errMessage)
}

func (uc *ProcessBookUseCase) markFailed(ctx context.Context, bookID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, bookID, domain.StatusFailed, processErr.Error())
}

func applyCatalogEntry(book *domain.Book, entry domain.CatalogEntry) {
	book.Title = entry.Metadata.Title
	book.Author = entry.Metadata.Author
	book.PageCount = entry.Metadata.PageCount
	book.Format = entry.Metadata.Format
	book.Category = entry.Assignment.Category
	book.Confidence = entry.Assignment.Confidence
}
