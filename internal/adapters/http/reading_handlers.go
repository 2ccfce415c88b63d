package httpadapter

import (
	"net/http"
	"strings"

	"github.com/kirillkom/book-library/internal/core/domain"
)

func (rt *Router) setReadingStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.ReadingStatus `json:"status"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	entry, err := rt.library.SetReadingStatus(r.Context(), userIDFromRequest(r), r.PathValue("id"), req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) listReading(w http.ResponseWriter, r *http.Request) {
	status := domain.ReadingStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	books, err := rt.library.ListReading(r.Context(), userIDFromRequest(r), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books, "count": len(books)})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.library.Stats(r.Context(), userIDFromRequest(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func userIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}
