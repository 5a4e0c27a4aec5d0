package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookshelf/internal/book"
	"bookshelf/internal/isbn"
	"bookshelf/internal/scan"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type BookHandler struct {
	repo book.Repository
	svc  *scan.Service
}

func NewBookHandler(repo book.Repository, svc *scan.Service) *BookHandler {
	return &BookHandler{repo: repo, svc: svc}
}

// List handles GET /books with search and pagination.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := book.Query{
		Q:      r.URL.Query().Get("q"),
		Sort:   r.URL.Query().Get("sort"),
		Desc:   r.URL.Query().Get("desc") == "true",
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	books, total, err := h.repo.List(r.Context(), query)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list books", nil)
		return
	}

	meta := map[string]interface{}{
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	}
	JSONSuccess(w, books, meta)
}

// ByISBN dispatches /books/{isbn} and /books/{isbn}/refresh.
func (h *BookHandler) ByISBN(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/books/")
	rawISBN, action, _ := strings.Cut(rest, "/")
	if rawISBN == "" {
		JSONError(w, http.StatusNotFound, "not_found", "Book not found", nil)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.get(w, r, rawISBN)
	case action == "refresh" && r.Method == http.MethodPost:
		h.refresh(w, r, rawISBN)
	case action != "" && action != "refresh":
		JSONError(w, http.StatusNotFound, "not_found", "Book not found", nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *BookHandler) get(w http.ResponseWriter, r *http.Request, rawISBN string) {
	normalized, err := isbn.Normalize(rawISBN)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_isbn", "Not a valid ISBN", nil)
		return
	}

	b, err := h.repo.GetByISBN(r.Context(), normalized)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "not_found", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load book", nil)
		return
	}

	JSONSuccess(w, b, nil)
}

func (h *BookHandler) refresh(w http.ResponseWriter, r *http.Request, rawISBN string) {
	b, err := h.svc.Refresh(r.Context(), rawISBN)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "not_found", "Book not found", nil)
			return
		}
		var scanErr *scan.ScanError
		if errors.As(err, &scanErr) {
			// A failed lookup leaves the stored record untouched; the error
			// envelope tells the client the refresh itself did not happen.
			writeScanError(w, statusForScanError(scanErr), scanErr)
			return
		}
		JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to refresh book", nil)
		return
	}

	JSONSuccess(w, b, nil)
}
