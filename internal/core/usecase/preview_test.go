package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/book-library/internal/core/domain"
)

func TestPreviewReturnsCatalogEntryWithoutPersisting(t *testing.T) {
	extractor := &extractorFake{meta: domain.ExtractedMetadata{Title: "Clean Code", Author: "Robert C. Martin", Format: "epub"}}
	categorizer := &categorizerFake{assignment: domain.CategoryAssignment{Category: "Technical", Confidence: 0.66}}
	uc := NewCatalogPreviewUseCase(extractor, categorizer)

	entry, err := uc.Preview(context.Background(), "clean-code.epub", []byte("zip"))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if entry.Metadata.Title != "Clean Code" || entry.Assignment.Category != "Technical" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if categorizer.author != "Robert C. Martin" {
		t.Fatalf("unexpected categorizer author %q", categorizer.author)
	}
}

func TestPreviewFallsBackToFilename(t *testing.T) {
	categorizer := &categorizerFake{assignment: domain.CategoryAssignment{Category: domain.CategoryUncategorized}}
	uc := NewCatalogPreviewUseCase(&extractorFake{}, categorizer)

	entry, err := uc.Preview(context.Background(), "README", nil)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if entry.Metadata.Title != "README" {
		t.Fatalf("expected filename title, got %q", entry.Metadata.Title)
	}
}

func TestPreviewRequiresFilename(t *testing.T) {
	uc := NewCatalogPreviewUseCase(&extractorFake{}, &categorizerFake{})

	if _, err := uc.Preview(context.Background(), "", []byte("x")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
