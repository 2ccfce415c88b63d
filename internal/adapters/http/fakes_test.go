package httpadapter

import (
	"context"
	"errors"
	"io"

	"github.com/kirillkom/book-library/internal/config"
	"github.com/kirillkom/book-library/internal/core/domain"
)

type ingestFake struct {
	err      error
	filename string
	body     string
}

func (f *ingestFake) Upload(_ context.Context, filename string, body io.Reader) (*domain.Book, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.filename = filename
	f.body = string(raw)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Book{ID: "b-1", Filename: filename, FileSize: int64(len(raw)), Status: domain.StatusUploaded}, nil
}

type libraryFake struct {
	err error

	lastCategory string
	lastLimit    int
	lastQuery    string
	lastUserID   string
	lastStatus   domain.ReadingStatus
	lastBookID   string
}

func (f *libraryFake) GetByID(_ context.Context, id string) (*domain.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Book{ID: id, Title: "Dune", Category: "Fiction", Status: domain.StatusReady}, nil
}

func (f *libraryFake) ListByCategory(_ context.Context, category string, limit int) ([]domain.Book, error) {
	f.lastCategory = category
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Book{{ID: "b-1", Category: category}}, nil
}

func (f *libraryFake) Search(_ context.Context, query string) ([]domain.Book, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Book{{ID: "b-1", Title: "Dune"}, {ID: "b-2", Title: "Dune Messiah"}}, nil
}

func (f *libraryFake) RandomBook(_ context.Context, category string) (*domain.Book, error) {
	f.lastCategory = category
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Book{ID: "b-7", Category: category}, nil
}

func (f *libraryFake) Recategorize(_ context.Context, id, category string) (*domain.Book, error) {
	f.lastBookID = id
	f.lastCategory = category
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Book{ID: id, Category: category, Confidence: 0.2}, nil
}

func (f *libraryFake) SetReadingStatus(_ context.Context, userID, bookID string, status domain.ReadingStatus) (*domain.ReadingEntry, error) {
	f.lastUserID = userID
	f.lastBookID = bookID
	f.lastStatus = status
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ReadingEntry{UserID: userID, BookID: bookID, Status: status}, nil
}

func (f *libraryFake) ListReading(_ context.Context, userID string, status domain.ReadingStatus) ([]domain.Book, error) {
	f.lastUserID = userID
	f.lastStatus = status
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Book{{ID: "b-1"}}, nil
}

func (f *libraryFake) Stats(_ context.Context, userID string) (*domain.LibraryStats, error) {
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.LibraryStats{Total: 2, ByCategory: map[string]int{"Fiction": 2}}, nil
}

func (f *libraryFake) Categories() []domain.CategoryDefinition {
	return config.DefaultCategories()
}

func (f *libraryFake) ExportCatalog(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK\x03\x04"))
	return err
}

type previewFake struct {
	err      error
	filename string
	size     int
}

func (f *previewFake) Preview(_ context.Context, filename string, data []byte) (domain.CatalogEntry, error) {
	f.filename = filename
	f.size = len(data)
	if f.err != nil {
		return domain.CatalogEntry{}, f.err
	}
	return domain.CatalogEntry{
		Metadata:   domain.ExtractedMetadata{Title: "Foundation", Author: "Asimov", Format: "epub"},
		Assignment: domain.CategoryAssignment{Category: "Fiction", Confidence: 0.64},
	}, nil
}

var errBoom = errors.New("boom")
