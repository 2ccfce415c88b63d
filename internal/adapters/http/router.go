package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kirillkom/book-library/internal/config"
	"github.com/kirillkom/book-library/internal/core/ports"
	"github.com/kirillkom/book-library/internal/observability/metrics"
)

const serviceName = "book-library-api"

type Router struct {
	cfg       config.Config
	ingest    ports.BookIngestor
	library   ports.LibraryService
	previewer ports.CatalogPreviewer
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.BookIngestor,
	library ports.LibraryService,
	previewer ports.CatalogPreviewer,
) *Router {
	return &Router{
		cfg:       cfg,
		ingest:    ingest,
		library:   library,
		previewer: previewer,
	}
}

// WithMetrics enables /metrics and request instrumentation.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/books", rt.uploadBook)
	mux.HandleFunc("GET /v1/books", rt.listBooks)
	mux.HandleFunc("GET /v1/books/search", rt.searchBooks)
	mux.HandleFunc("GET /v1/books/random", rt.randomBook)
	mux.HandleFunc("GET /v1/books/export.xlsx", rt.exportCatalog)
	mux.HandleFunc("GET /v1/books/{id}", rt.getBookByID)
	mux.HandleFunc("PUT /v1/books/{id}/category", rt.recategorizeBook)
	mux.HandleFunc("PUT /v1/books/{id}/status", rt.setReadingStatus)

	mux.HandleFunc("GET /v1/reading", rt.listReading)
	mux.HandleFunc("GET /v1/stats", rt.stats)
	mux.HandleFunc("GET /v1/categories", rt.categories)
	mux.HandleFunc("POST /v1/catalog/preview", rt.previewCatalog)

	var handler http.Handler = mux
	handler = backpressureMiddleware(
		handler,
		rt.cfg.APIBackpressureMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
		rt.onRejected("backpressure"),
	)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onRejected("rate_limit"))
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) onRejected(reason string) func() {
	return func() {
		if rt.metrics != nil {
			rt.metrics.RecordRejected(serviceName, reason)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
