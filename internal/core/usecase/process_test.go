package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/book-library/internal/core/domain"
)

func newProcessFixture(t *testing.T, filename string, data []byte) (*bookRepoFake, *storageFake) {
	t.Helper()
	repo := newBookRepoFake(domain.Book{
		ID:          "book-1",
		Filename:    filename,
		StoragePath: "book-1_" + filename,
		Status:      domain.StatusUploaded,
	})
	storage := newStorageFake()
	storage.objects["book-1_"+filename] = data
	return repo, storage
}

func TestProcessByIDSuccess(t *testing.T) {
	repo, storage := newProcessFixture(t, "dune.pdf", []byte("%PDF"))
	extractor := &extractorFake{meta: domain.ExtractedMetadata{Title: "Dune", Author: "Frank Herbert", PageCount: 412, Format: "pdf"}}
	categorizer := &categorizerFake{assignment: domain.CategoryAssignment{Category: "Fiction", Confidence: 0.71}}
	observer := &observerFake{}
	uc := NewProcessBookUseCase(repo, storage, extractor, categorizer, observer)

	if err := uc.ProcessByID(context.Background(), "book-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	book := repo.books["book-1"]
	if book.Status != domain.StatusReady {
		t.Fatalf("expected ready status, got %s", book.Status)
	}
	if got := repo.statuses; len(got) != 2 || got[0] != domain.StatusProcessing || got[1] != domain.StatusReady {
		t.Fatalf("unexpected status transitions %v", got)
	}
	if book.Title != "Dune" || book.Author != "Frank Herbert" || book.PageCount != 412 || book.Format != "pdf" {
		t.Fatalf("unexpected metadata %+v", book)
	}
	if book.Category != "Fiction" || book.Confidence != 0.71 {
		t.Fatalf("unexpected assignment %s/%v", book.Category, book.Confidence)
	}
	if extractor.filename != "dune.pdf" || string(extractor.data) != "%PDF" {
		t.Fatalf("extractor got %q / %q", extractor.filename, extractor.data)
	}
	if categorizer.title != "Dune" || categorizer.author != "Frank Herbert" {
		t.Fatalf("categorizer got %q / %q", categorizer.title, categorizer.author)
	}
	if len(observer.books) != 1 || observer.books[0].Category != "Fiction" || observer.books[0].Status != domain.StatusReady {
		t.Fatalf("unexpected observer calls %+v", observer.books)
	}
}

func TestProcessByIDSubstitutesFilenameForEmptyTitle(t *testing.T) {
	repo, storage := newProcessFixture(t, "scan_0001.djvu", []byte("x"))
	extractor := &extractorFake{meta: domain.ExtractedMetadata{Format: "djvu"}}
	categorizer := &categorizerFake{assignment: domain.CategoryAssignment{Category: domain.CategoryUncategorized, Confidence: 0.12}}
	uc := NewProcessBookUseCase(repo, storage, extractor, categorizer, nil)

	if err := uc.ProcessByID(context.Background(), "book-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if got := repo.books["book-1"].Title; got != "scan_0001.djvu" {
		t.Fatalf("expected original filename as title, got %q", got)
	}
	if categorizer.title != "scan_0001.djvu" {
		t.Fatalf("expected categorizer to receive substituted title, got %q", categorizer.title)
	}
}

func TestProcessByIDMarksFailedOnCategorizerError(t *testing.T) {
	repo, storage := newProcessFixture(t, "dune.pdf", []byte("%PDF"))
	extractor := &extractorFake{meta: domain.ExtractedMetadata{Title: "Dune", Format: "pdf"}}
	categorizer := &categorizerFake{err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("ollama down"))}
	observer := &observerFake{}
	uc := NewProcessBookUseCase(repo, storage, extractor, categorizer, observer)

	err := uc.ProcessByID(context.Background(), "book-1")
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	book := repo.books["book-1"]
	if book.Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", book.Status)
	}
	if !strings.Contains(book.Error, "categorize book") {
		t.Fatalf("expected failure reason to be recorded, got %q", book.Error)
	}
	if len(observer.books) != 0 {
		t.Fatalf("observer must not be notified on failure")
	}
}

func TestProcessByIDMarksFailedOnStorageError(t *testing.T) {
	repo, storage := newProcessFixture(t, "dune.pdf", []byte("%PDF"))
	storage.openErr = errors.New("no such file")
	uc := NewProcessBookUseCase(repo, storage, &extractorFake{}, &categorizerFake{}, nil)

	err := uc.ProcessByID(context.Background(), "book-1")
	if err == nil || !strings.Contains(err.Error(), "open stored file") {
		t.Fatalf("expected storage error, got %v", err)
	}
	if repo.books["book-1"].Status != domain.StatusFailed {
		t.Fatalf("expected failed status")
	}
}

func TestProcessByIDMarksFailedOnSaveError(t *testing.T) {
	repo, storage := newProcessFixture(t, "dune.pdf", []byte("%PDF"))
	repo.saveErr = errors.New("db down")
	extractor := &extractorFake{meta: domain.ExtractedMetadata{Title: "Dune"}}
	categorizer := &categorizerFake{assignment: domain.CategoryAssignment{Category: "Fiction", Confidence: 0.5}}
	uc := NewProcessBookUseCase(repo, storage, extractor, categorizer, nil)

	err := uc.ProcessByID(context.Background(), "book-1")
	if err == nil || !strings.Contains(err.Error(), "save catalog entry") {
		t.Fatalf("expected save error, got %v", err)
	}
	if repo.books["book-1"].Status != domain.StatusFailed {
		t.Fatalf("expected failed status")
	}
}

func TestProcessByIDUnknownBook(t *testing.T) {
	uc := NewProcessBookUseCase(newBookRepoFake(), newStorageFake(), &extractorFake{}, &categorizerFake{}, nil)

	err := uc.ProcessByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}
