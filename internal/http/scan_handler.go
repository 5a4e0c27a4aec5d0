package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"bookshelf/internal/book"
	"bookshelf/internal/scan"
)

type ScanHandler struct {
	svc *scan.Service
}

func NewScanHandler(svc *scan.Service) *ScanHandler {
	return &ScanHandler{svc: svc}
}

type scanRequest struct {
	ScannedText string             `json:"scanned_text" validate:"required,max=64"`
	ScanType    string             `json:"scan_type" validate:"omitempty,oneof=camera file"`
	ErrorData   *scan.ClientReport `json:"error_data"`
}

type scanResponse struct {
	Status     string      `json:"status"`
	Book       *scan.Draft `json:"book,omitempty"`
	Existing   *book.Book  `json:"existing,omitempty"`
	Warning    string      `json:"warning,omitempty"`
	RetryLater bool        `json:"retry_later,omitempty"`
}

// scanErrorResponse carries the structured scan error envelope the UI
// renders directly.
type scanErrorResponse struct {
	Success bool            `json:"success"`
	Error   *scan.ScanError `json:"error"`
}

func writeScanError(w http.ResponseWriter, statusCode int, scanErr *scan.ScanError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(scanErrorResponse{Success: false, Error: scanErr})
}

func statusForScanError(scanErr *scan.ScanError) int {
	switch scanErr.Type {
	case scan.ErrValidation, scan.ErrFileFormat, scan.ErrFileSize:
		return http.StatusBadRequest
	case scan.ErrDuplicateBook:
		return http.StatusConflict
	case scan.ErrAPI, scan.ErrNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Process handles POST /scan: one scanned string in, one outcome out.
func (h *ScanHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	// Capture-layer failures arrive with error_data and no scanned text. The
	// server logs them and echoes the rendered payload back for display.
	if req.ErrorData != nil && strings.TrimSpace(req.ScannedText) == "" {
		scanErr := req.ErrorData.ScanError()
		log.Printf("event=client_scan_error error_type=%s severity=%s message=%q",
			scanErr.Type, scanErr.Severity, scanErr.UserMessage)
		writeScanError(w, http.StatusBadRequest, scanErr)
		return
	}

	if validationErrors := ValidateStruct(req); validationErrors != nil {
		details := make([]ErrorDetail, 0, len(validationErrors))
		for _, ve := range validationErrors {
			details = append(details, ErrorDetail{Field: ve.Field, Message: ve.Message})
		}
		JSONError(w, http.StatusBadRequest, "invalid_request", "Validation failed", details)
		return
	}

	outcome := h.svc.Process(r.Context(), req.ScannedText)
	switch outcome.Kind {
	case scan.OutcomeMetadataFetched:
		JSONSuccess(w, scanResponse{Status: string(outcome.Kind), Book: outcome.Draft}, nil)
	case scan.OutcomeMetadataUnavailable:
		JSONSuccess(w, scanResponse{
			Status:     string(outcome.Kind),
			Book:       outcome.Draft,
			Warning:    outcome.Warning,
			RetryLater: outcome.RetryLater,
		}, nil)
	case scan.OutcomeDuplicate:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(SuccessResponse{
			Success: false,
			Data:    scanResponse{Status: string(outcome.Kind), Existing: outcome.Existing},
		})
	default:
		scanErr := outcome.Err
		if scanErr == nil {
			scanErr = scan.NewScanError(scan.ErrUnknown, scan.SeverityHigh, "unclassified outcome")
		}
		writeScanError(w, statusForScanError(scanErr), scanErr)
	}
}

// Confirm handles POST /scan/confirm: persists a reviewed draft.
func (h *ScanHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var draft scan.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}
	if draft.ISBN == "" {
		JSONError(w, http.StatusBadRequest, "invalid_request", "isbn is required", nil)
		return
	}

	saved, err := h.svc.Confirm(r.Context(), draft)
	if err != nil {
		var scanErr *scan.ScanError
		if errors.As(err, &scanErr) {
			writeScanError(w, statusForScanError(scanErr), scanErr)
			return
		}
		JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to save book", nil)
		return
	}

	JSONSuccessCreated(w, saved)
}

type validateFileRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size" validate:"gte=0"`
	Constrained bool   `json:"constrained"`
}

// ValidateFile handles POST /scan/validate-file: pre-flight checks for the
// file fallback path, no decoding involved.
func (h *ScanHandler) ValidateFile(w http.ResponseWriter, r *http.Request) {
	var req validateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	info := scan.FileInfo{Name: req.Name, ContentType: req.ContentType, Size: req.Size}
	if scanErr := scan.ValidateFile(info, req.Constrained); scanErr != nil {
		writeScanError(w, statusForScanError(scanErr), scanErr)
		return
	}

	JSONSuccess(w, map[string]bool{"valid": true}, nil)
}

// ErrorInfo handles GET /scan/errors/{type}: canned messaging and recovery
// options for one error class.
func (h *ScanHandler) ErrorInfo(w http.ResponseWriter, r *http.Request) {
	errType := strings.TrimPrefix(r.URL.Path, "/scan/errors/")
	if errType == "" || strings.Contains(errType, "/") {
		JSONError(w, http.StatusNotFound, "not_found", "Unknown error type", nil)
		return
	}

	desc, ok := scan.DescribeErrorType(scan.ErrorType(errType))
	if !ok {
		JSONError(w, http.StatusNotFound, "not_found", "Unknown error type", nil)
		return
	}

	JSONSuccess(w, desc, nil)
}
