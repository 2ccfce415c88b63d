package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
)

// SupportedFormats lists the extensions accepted for upload.
var SupportedFormats = []string{"pdf", "epub", "mobi", "azw3", "fb2"}

const DefaultMaxUploadBytes int64 = 100 << 20

type IngestBookUseCase struct {
	repo     ports.BookRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	maxBytes int64
}

func NewIngestBookUseCase(
	repo ports.BookRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	maxBytes int64,
) *IngestBookUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &IngestBookUseCase{
		repo:     repo,
		storage:  storage,
		queue:    queue,
		maxBytes: maxBytes,
	}
}

func (uc *IngestBookUseCase) Upload(ctx context.Context, filename string, body io.Reader) (*domain.Book, error) {
	if !isSupportedFormat(filename) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"upload",
			fmt.Errorf("unsupported format %q, expected one of %s", filename, strings.Join(SupportedFormats, ", ")),
		)
	}

	data, err := io.ReadAll(io.LimitReader(body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("empty file"))
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	if err := uc.releaseChecksum(ctx, checksum); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	book := &domain.Book{
		ID:          id,
		Filename:    filename,
		Checksum:    checksum,
		StoragePath: storageKey,
		FileSize:    int64(len(data)),
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book record: %w", err)
	}

	if err := uc.queue.PublishBookIngested(ctx, book.ID); err != nil {
		// Nothing will ever process this record; failing it lets the same bytes be uploaded again.
		markErr := uc.repo.UpdateStatus(context.WithoutCancel(ctx), book.ID, domain.StatusFailed, err.Error())
		if markErr != nil {
			return nil, fmt.Errorf("publish ingestion event: %w; mark failed status: %v", err, markErr)
		}
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return book, nil
}

// releaseChecksum rejects bytes that are already cataloged or in flight. A
// failed earlier attempt does not count: its record and file are removed so
// the new upload takes its place.
func (uc *IngestBookUseCase) releaseChecksum(ctx context.Context, checksum string) error {
	existing, err := uc.repo.FindByChecksum(ctx, checksum)
	switch {
	case domain.IsKind(err, domain.ErrBookNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check duplicate: %w", err)
	case existing.Status != domain.StatusFailed:
		return domain.WrapError(domain.ErrDuplicate, "upload", fmt.Errorf("checksum %s already cataloged as %s", checksum, existing.ID))
	}

	if err := uc.repo.Delete(ctx, existing.ID); err != nil && !domain.IsKind(err, domain.ErrBookNotFound) {
		return fmt.Errorf("remove failed attempt: %w", err)
	}
	if err := uc.storage.Delete(ctx, existing.StoragePath); err != nil {
		slog.Warn("stale_upload_not_removed", "book_id", existing.ID, "storage_path", existing.StoragePath, "error", err)
	}
	slog.Info("failed_upload_replaced", "book_id", existing.ID, "checksum", checksum)
	return nil
}

func isSupportedFormat(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, format := range SupportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "book.bin"
	}
	return base
}
