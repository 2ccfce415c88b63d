package usecase

import (
	"context"
	"errors"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
)

// CatalogPreviewUseCase catalogs a file synchronously without storing it.
type CatalogPreviewUseCase struct {
	extractor   ports.MetadataExtractor
	categorizer ports.Categorizer
}

func NewCatalogPreviewUseCase(extractor ports.MetadataExtractor, categorizer ports.Categorizer) *CatalogPreviewUseCase {
	return &CatalogPreviewUseCase{
		extractor:   extractor,
		categorizer: categorizer,
	}
}

func (uc *CatalogPreviewUseCase) Preview(ctx context.Context, filename string, data []byte) (domain.CatalogEntry, error) {
	if filename == "" {
		return domain.CatalogEntry{}, domain.WrapError(domain.ErrInvalidInput, "preview", errors.New("filename is required"))
	}
	return catalog(ctx, uc.extractor, uc.categorizer, domain.RawDocument{Data: data, Filename: filename})
}
