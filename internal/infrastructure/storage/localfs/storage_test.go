package localfs

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kirillkom/book-library/internal/core/domain"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "id_dune.pdf", strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := storage.Open(context.Background(), "id_dune.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "%PDF-1.4" {
		t.Fatalf("unexpected content %q", raw)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := storage.Open(context.Background(), "missing.epub"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../escape.pdf", "nested/key.pdf", ".hidden"} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("Save(%q): expected ErrInvalidInput, got %v", key, err)
		}
	}
}

func TestDeleteRemovesFileAndToleratesMissing(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := storage.Save(context.Background(), "id_dune.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := storage.Delete(context.Background(), "id_dune.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := storage.Open(context.Background(), "id_dune.pdf"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected deleted file to be gone, got %v", err)
	}
	if err := storage.Delete(context.Background(), "id_dune.pdf"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if err := storage.Delete(context.Background(), "../escape.pdf"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
