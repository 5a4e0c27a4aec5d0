package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/scan"
)

type stubMetadata struct {
	md  googlebooks.Metadata
	err error
}

func (s *stubMetadata) Lookup(ctx context.Context, isbn13 string) (googlebooks.Metadata, error) {
	return s.md, s.err
}

func newScanServer(t *testing.T, md *stubMetadata, repo book.Repository) *http.ServeMux {
	t.Helper()
	svc := scan.NewService(md, repo)
	return NewRouter(NewBookHandler(repo, svc), NewScanHandler(svc), nil)
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScanProcessMetadataFetched(t *testing.T) {
	md := &stubMetadata{md: googlebooks.Metadata{Title: "Intro to Algorithms", Authors: []string{"Cormen"}}}
	router := newScanServer(t, md, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan", map[string]string{"scanned_text": "9780306406157", "scan_type": "camera"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool         `json:"success"`
		Data    scanResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "metadata_fetched", resp.Data.Status)
	require.NotNil(t, resp.Data.Book)
	assert.Equal(t, "9780306406157", resp.Data.Book.ISBN)
	assert.Equal(t, "Intro to Algorithms", resp.Data.Book.Title)
}

func TestScanProcessInvalidISBN(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan", map[string]string{"scanned_text": "1234567890123"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp scanErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, scan.ErrValidation, resp.Error.Type)
	assert.NotEmpty(t, resp.Error.UserMessage)
	assert.NotEmpty(t, resp.Error.SuggestedAction)
	assert.True(t, resp.Error.ShowManualEntry)
}

func TestScanProcessDuplicate(t *testing.T) {
	repo := book.NewMemoryRepo()
	existing := book.Book{ISBN: "9780306406157", Title: "Already Here"}
	require.NoError(t, repo.Create(context.Background(), &existing))

	router := newScanServer(t, &stubMetadata{}, repo)
	w := postJSON(t, router, "/scan", map[string]string{"scanned_text": "9780306406157"})

	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Success bool         `json:"success"`
		Data    scanResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "duplicate", resp.Data.Status)
	require.NotNil(t, resp.Data.Existing)
	assert.Equal(t, "Already Here", resp.Data.Existing.Title)
}

func TestScanProcessMetadataUnavailable(t *testing.T) {
	md := &stubMetadata{err: &googlebooks.APIError{Kind: googlebooks.KindTimeout}}
	router := newScanServer(t, md, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan", map[string]string{"scanned_text": "9780306406157"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data scanResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "metadata_unavailable", resp.Data.Status)
	require.NotNil(t, resp.Data.Book)
	assert.Equal(t, "9780306406157", resp.Data.Book.ISBN)
	assert.Empty(t, resp.Data.Book.Title)
	assert.NotEmpty(t, resp.Data.Warning)
	assert.True(t, resp.Data.RetryLater)
}

func TestScanProcessClientErrorReport(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())

	noManualEntry := false
	w := postJSON(t, router, "/scan", map[string]interface{}{
		"error_data": scan.ClientReport{
			ErrorType:       "camera_permission_error",
			Severity:        "medium",
			ErrorMessage:    "Camera access was blocked",
			ShowManualEntry: &noManualEntry,
		},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp scanErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, scan.ErrCameraPermission, resp.Error.Type)
	assert.Equal(t, scan.SeverityMedium, resp.Error.Severity)
	assert.Equal(t, "Camera access was blocked", resp.Error.UserMessage)
	assert.True(t, resp.Error.ShowRetry)
	assert.True(t, resp.Error.ShowFileFallback)
	assert.False(t, resp.Error.ShowManualEntry)
}

func TestScanProcessClientErrorReportDefaults(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan", map[string]interface{}{
		"error_data": map[string]string{},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp scanErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, scan.ErrUnknown, resp.Error.Type)
	assert.Equal(t, scan.SeverityMedium, resp.Error.Severity)
	assert.Equal(t, "An error occurred", resp.Error.UserMessage)
	assert.Equal(t, "Please try again", resp.Error.SuggestedAction)
	assert.True(t, resp.Error.ShowRetry)
	assert.True(t, resp.Error.ShowFileFallback)
	assert.True(t, resp.Error.ShowManualEntry)
}

func TestScanProcessScannedTextWinsOverErrorData(t *testing.T) {
	md := &stubMetadata{md: googlebooks.Metadata{Title: "Still Looked Up"}}
	router := newScanServer(t, md, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan", map[string]interface{}{
		"scanned_text": "9780306406157",
		"error_data":   scan.ClientReport{ErrorType: "network_error"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data scanResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "metadata_fetched", resp.Data.Status)
}

func TestScanProcessRejectsBadRequests(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan", map[string]string{"scan_type": "camera"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/scan", map[string]string{"scanned_text": "9780306406157", "scan_type": "telepathy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/scan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanConfirmPersistsDraft(t *testing.T) {
	repo := book.NewMemoryRepo()
	router := newScanServer(t, &stubMetadata{}, repo)

	w := postJSON(t, router, "/scan/confirm", scan.Draft{ISBN: "9780306406157", Title: "Kept"})

	require.Equal(t, http.StatusCreated, w.Code)
	saved, err := repo.GetByISBN(context.Background(), "9780306406157")
	require.NoError(t, err)
	assert.Equal(t, "Kept", saved.Title)
}

func TestScanConfirmDuplicateConflict(t *testing.T) {
	repo := book.NewMemoryRepo()
	existing := book.Book{ISBN: "9780306406157"}
	require.NoError(t, repo.Create(context.Background(), &existing))

	router := newScanServer(t, &stubMetadata{}, repo)
	w := postJSON(t, router, "/scan/confirm", scan.Draft{ISBN: "9780306406157"})

	require.Equal(t, http.StatusConflict, w.Code)
	var resp scanErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, scan.ErrDuplicateBook, resp.Error.Type)
	assert.False(t, resp.Error.ShowManualEntry)
}

func TestScanConfirmRequiresISBN(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())
	w := postJSON(t, router, "/scan/confirm", scan.Draft{Title: "No ISBN"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateFileEndpoint(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())

	w := postJSON(t, router, "/scan/validate-file", validateFileRequest{
		Name: "barcode.jpg", ContentType: "image/jpeg", Size: 1 << 20,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/scan/validate-file", validateFileRequest{
		Name: "big.jpg", ContentType: "image/jpeg", Size: 12 << 20,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp scanErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, scan.ErrFileSize, resp.Error.Type)

	w = postJSON(t, router, "/scan/validate-file", validateFileRequest{
		Name: "mid.jpg", ContentType: "image/jpeg", Size: 8 << 20, Constrained: true,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorInfoEndpoint(t *testing.T) {
	router := newScanServer(t, &stubMetadata{}, book.NewMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/scan/errors/camera_permission_error", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data scan.ScanError `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, scan.ErrCameraPermission, resp.Data.Type)
	assert.True(t, resp.Data.ShowFileFallback)

	req = httptest.NewRequest(http.MethodGet, "/scan/errors/made_up_error", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
