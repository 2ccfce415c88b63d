package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/book-library/internal/core/domain"
)

type bookRepoFake struct {
	mu        sync.Mutex
	books     map[string]*domain.Book
	statuses  []domain.BookStatus
	errMsg    string
	createErr error
	saveErr   error
	listLimit int
	listCat   string
	searchQ   string
	searchLim int
}

func newBookRepoFake(books ...domain.Book) *bookRepoFake {
	f := &bookRepoFake{books: map[string]*domain.Book{}}
	for i := range books {
		b := books[i]
		f.books[b.ID] = &b
	}
	return f
}

func (f *bookRepoFake) Create(_ context.Context, book *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copyBook := *book
	f.books[book.ID] = &copyBook
	return nil
}

func (f *bookRepoFake) GetByID(_ context.Context, id string) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrBookNotFound, "get book", errors.New(id))
	}
	copyBook := *b
	return &copyBook, nil
}

func (f *bookRepoFake) FindByChecksum(_ context.Context, checksum string) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.Checksum == checksum {
			copyBook := *b
			return &copyBook, nil
		}
	}
	return nil, domain.WrapError(domain.ErrBookNotFound, "find by checksum", errors.New(checksum))
}

func (f *bookRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[id]; !ok {
		return domain.WrapError(domain.ErrBookNotFound, "delete", errors.New(id))
	}
	delete(f.books, id)
	return nil
}

func (f *bookRepoFake) UpdateStatus(_ context.Context, id string, status domain.BookStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return domain.WrapError(domain.ErrBookNotFound, "update status", errors.New(id))
	}
	b.Status = status
	b.Error = errMessage
	f.statuses = append(f.statuses, status)
	f.errMsg = errMessage
	return nil
}

func (f *bookRepoFake) SaveCatalogEntry(_ context.Context, id string, entry domain.CatalogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	b, ok := f.books[id]
	if !ok {
		return domain.WrapError(domain.ErrBookNotFound, "save catalog entry", errors.New(id))
	}
	applyCatalogEntry(b, entry)
	return nil
}

func (f *bookRepoFake) UpdateCategory(_ context.Context, id, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return domain.WrapError(domain.ErrBookNotFound, "update category", errors.New(id))
	}
	b.Category = category
	return nil
}

func (f *bookRepoFake) ListByCategory(_ context.Context, category string, limit int) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCat = category
	f.listLimit = limit
	out := make([]domain.Book, 0, len(f.books))
	for _, b := range f.sorted() {
		if category != "" && b.Category != category {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *bookRepoFake) Search(_ context.Context, query string, limit int) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQ = query
	f.searchLim = limit
	q := strings.ToLower(query)
	var out []domain.Book
	for _, b := range f.sorted() {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *bookRepoFake) RandomBook(_ context.Context, category string) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.sorted() {
		if category == "" || b.Category == category {
			return &b, nil
		}
	}
	return nil, domain.WrapError(domain.ErrBookNotFound, "random book", errors.New("library is empty"))
}

func (f *bookRepoFake) CountByCategory(context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, b := range f.books {
		out[b.Category]++
	}
	return out, nil
}

func (f *bookRepoFake) sorted() []domain.Book {
	out := make([]domain.Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	openErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = raw
	f.mu.Unlock()
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishBookIngested(_ context.Context, bookID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, bookID)
	return nil
}

func (f *queueFake) SubscribeBookIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type extractorFake struct {
	meta     domain.ExtractedMetadata
	filename string
	data     []byte
}

func (f *extractorFake) Extract(data []byte, filename string) domain.ExtractedMetadata {
	f.filename = filename
	f.data = data
	return f.meta
}

type categorizerFake struct {
	assignment domain.CategoryAssignment
	err        error
	title      string
	author     string
}

func (f *categorizerFake) Categorize(_ context.Context, title, author string) (domain.CategoryAssignment, error) {
	f.title = title
	f.author = author
	if f.err != nil {
		return domain.CategoryAssignment{}, f.err
	}
	return f.assignment, nil
}

type observerFake struct {
	books []domain.Book
}

func (f *observerFake) ObserveCataloged(book *domain.Book) {
	f.books = append(f.books, *book)
}
