package http

import (
	"context"
	"net/http"
	"time"
)

// NewRouter assembles the full route table. The ping func backs /readyz and
// is nil-safe for handler tests that run without a database.
func NewRouter(books *BookHandler, scans *ScanHandler, ping func(context.Context) error) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Handle("/scan", MethodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(scans.Process),
	}))
	router.Handle("/scan/confirm", MethodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(scans.Confirm),
	}))
	router.Handle("/scan/validate-file", MethodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(scans.ValidateFile),
	}))
	router.Handle("/scan/errors/", MethodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(scans.ErrorInfo),
	}))

	router.Handle("/books", MethodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(books.List),
	}))
	router.HandleFunc("/books/", books.ByISBN)

	return router
}
