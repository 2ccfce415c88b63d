package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/usecase"
	"github.com/kirillkom/book-library/internal/infrastructure/extractor/bookmeta"
)

const (
	userIDHeader      = "X-User-Id"
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxJSONBodyBytes  = 64 << 10
)

func (rt *Router) maxUploadBytes() int64 {
	if rt.cfg.MaxUploadBytes > 0 {
		return rt.cfg.MaxUploadBytes
	}
	return usecase.DefaultMaxUploadBytes
}

func (rt *Router) uploadBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes()+multipartOverhead)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		rt.recordUpload("", "rejected", 0)
		writeMultipartError(w, err)
		return
	}
	defer file.Close()

	book, err := rt.ingest.Upload(r.Context(), fileHeader.Filename, file)
	format := bookmeta.FormatOf(fileHeader.Filename)
	if err != nil {
		rt.recordUpload(format, uploadOutcome(err), 0)
		writeDomainError(w, r, err)
		return
	}

	rt.recordUpload(format, "accepted", book.FileSize)
	writeJSON(w, http.StatusAccepted, book)
}

func uploadOutcome(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrDuplicate):
		return "duplicate"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "rejected"
	default:
		return "error"
	}
}

func (rt *Router) recordUpload(format, outcome string, size int64) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, format, outcome, size)
	}
}

func (rt *Router) getBookByID(w http.ResponseWriter, r *http.Request) {
	book, err := rt.library.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (rt *Router) listBooks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	books, err := rt.library.ListByCategory(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books, "count": len(books)})
}

func (rt *Router) searchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := rt.library.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books, "count": len(books)})
}

func (rt *Router) randomBook(w http.ResponseWriter, r *http.Request) {
	book, err := rt.library.RandomBook(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (rt *Router) recategorizeBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	book, err := rt.library.Recategorize(r.Context(), r.PathValue("id"), req.Category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (rt *Router) exportCatalog(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := rt.library.ExportCatalog(r.Context(), &buf); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":     rt.library.Categories(),
		"fallback":       domain.CategoryUncategorized,
		"min_confidence": rt.cfg.CategoryMinConfidence,
	})
}

func (rt *Router) previewCatalog(w http.ResponseWriter, r *http.Request) {
	limit := rt.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeMultipartError(w, err)
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeMultipartError(w, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("read preview file: %w", err))
		return
	}
	if int64(len(data)) > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("file exceeds %d bytes", limit)})
		return
	}

	entry, err := rt.previewer.Preview(r.Context(), fileHeader.Filename, data)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPreview(serviceName, entry.Assignment.Category, entry.Assignment.IsFallback())
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeMultipartError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		msg := "invalid json"
		if errors.As(err, &syntaxErr) {
			msg = fmt.Sprintf("invalid json at offset %d", syntaxErr.Offset)
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return false
	}
	return true
}
