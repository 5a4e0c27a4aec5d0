package scan

// ErrorType enumerates the scanning failure classes surfaced to the UI.
type ErrorType string

const (
	ErrValidation        ErrorType = "validation_error"
	ErrCameraPermission  ErrorType = "camera_permission_error"
	ErrCameraNotFound    ErrorType = "camera_not_found_error"
	ErrCameraUnsupported ErrorType = "camera_not_supported_error"
	ErrInsecureContext   ErrorType = "insecure_context_error"
	ErrNetwork           ErrorType = "network_error"
	ErrAPI               ErrorType = "api_error"
	ErrDatabase          ErrorType = "database_error"
	ErrBarcodeDetection  ErrorType = "barcode_detection_error"
	ErrFileFormat        ErrorType = "file_format_error"
	ErrFileSize          ErrorType = "file_size_error"
	ErrDuplicateBook     ErrorType = "duplicate_error"
	ErrUnknown           ErrorType = "unknown_error"
)

// Severity grades how disruptive an error is to the scanning workflow.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ScanError is the structured error surfaced to the rendering layer. Every
// error presents at least one actionable path forward.
type ScanError struct {
	Type             ErrorType `json:"error_type"`
	Severity         Severity  `json:"severity"`
	Message          string    `json:"-"` // technical, log only
	UserMessage      string    `json:"error_message"`
	SuggestedAction  string    `json:"suggested_action"`
	ShowRetry        bool      `json:"show_retry"`
	ShowFileFallback bool      `json:"show_file_fallback"`
	ShowManualEntry  bool      `json:"show_manual_entry"`
	TechnicalDetails string    `json:"-"`
}

func (e *ScanError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.UserMessage
}

// CanContinue reports whether the user can keep scanning after this error.
func (e *ScanError) CanContinue() bool {
	return e.Severity == SeverityLow || e.Severity == SeverityMedium
}

var userMessages = map[ErrorType]string{
	ErrValidation:        "The scanned barcode is not a valid ISBN.",
	ErrCameraPermission:  "Camera access is required to scan barcodes. Please allow camera access and try again.",
	ErrCameraNotFound:    "No camera was found on this device.",
	ErrCameraUnsupported: "Camera scanning is not supported in this environment.",
	ErrInsecureContext:   "Camera scanning requires a secure connection.",
	ErrNetwork:           "Unable to connect to the book information service. Please check your internet connection.",
	ErrAPI:               "The book information service is temporarily unavailable.",
	ErrDatabase:          "Unable to save the book to your collection. Please try again.",
	ErrBarcodeDetection:  "Could not detect a barcode in the image. Please try a clearer image or better lighting.",
	ErrFileFormat:        "Please select a valid image file (JPEG, PNG, or WebP).",
	ErrFileSize:          "The image file is too large.",
	ErrDuplicateBook:     "This book is already in your collection.",
	ErrUnknown:           "An unexpected error occurred while scanning.",
}

var suggestedActions = map[ErrorType]string{
	ErrValidation:        "Please scan a valid book barcode or enter the ISBN manually.",
	ErrCameraPermission:  "Allow camera access in your settings, or use the file upload option.",
	ErrCameraNotFound:    "Use the file upload option to scan an image of the barcode.",
	ErrCameraUnsupported: "Use the file upload option or enter the ISBN manually.",
	ErrInsecureContext:   "Reconnect over a secure connection, or use the file upload option.",
	ErrNetwork:           "Check your internet connection and try again, or enter the ISBN manually.",
	ErrAPI:               "Try again in a few minutes, or enter the ISBN manually for basic book information.",
	ErrDatabase:          "Try again in a moment. If the problem persists, please contact support.",
	ErrBarcodeDetection:  "Ensure good lighting and hold the barcode steady, or try uploading a clearer image.",
	ErrFileFormat:        "Select a JPEG, PNG, or WebP image file.",
	ErrFileSize:          "Reduce the image size or select a different image.",
	ErrDuplicateBook:     "This book is already in your collection. You can view it in your book list.",
	ErrUnknown:           "Please try again or contact support if the problem persists.",
}

// Option mutates a ScanError under construction.
type Option func(*ScanError)

func WithRetry() Option          { return func(e *ScanError) { e.ShowRetry = true } }
func WithFileFallback() Option   { return func(e *ScanError) { e.ShowFileFallback = true } }
func WithoutManualEntry() Option { return func(e *ScanError) { e.ShowManualEntry = false } }
func WithUserMessage(m string) Option {
	return func(e *ScanError) { e.UserMessage = m }
}
func WithDetails(d string) Option {
	return func(e *ScanError) { e.TechnicalDetails = d }
}

// NewScanError builds a structured error with default user messaging and
// suggested action for the type. Manual entry is offered by default.
func NewScanError(errType ErrorType, severity Severity, message string, opts ...Option) *ScanError {
	e := &ScanError{
		Type:            errType,
		Severity:        severity,
		Message:         message,
		UserMessage:     userMessages[errType],
		SuggestedAction: suggestedActions[errType],
		ShowManualEntry: true,
	}
	if e.UserMessage == "" {
		e.UserMessage = "An error occurred: " + message
	}
	if e.SuggestedAction == "" {
		e.SuggestedAction = "Please try again or contact support."
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClientReport is a scan error captured on the client side and forwarded
// for server-side logging and rendering. Pointer booleans distinguish
// omitted recovery flags from an explicit false.
type ClientReport struct {
	ErrorType        string `json:"error_type"`
	Severity         string `json:"severity"`
	ErrorMessage     string `json:"error_message"`
	SuggestedAction  string `json:"suggested_action"`
	ShowRetry        *bool  `json:"show_retry"`
	ShowFileFallback *bool  `json:"show_file_fallback"`
	ShowManualEntry  *bool  `json:"show_manual_entry"`
}

// ScanError renders the report as a structured error payload. Anything the
// client left out takes a permissive default: unknown type, medium severity,
// every recovery option offered.
func (r *ClientReport) ScanError() *ScanError {
	e := &ScanError{
		Type:             ErrorType(r.ErrorType),
		Severity:         Severity(r.Severity),
		UserMessage:      r.ErrorMessage,
		SuggestedAction:  r.SuggestedAction,
		ShowRetry:        true,
		ShowFileFallback: true,
		ShowManualEntry:  true,
	}
	if e.Type == "" {
		e.Type = ErrUnknown
	}
	if e.Severity == "" {
		e.Severity = SeverityMedium
	}
	if e.UserMessage == "" {
		e.UserMessage = "An error occurred"
	}
	if e.SuggestedAction == "" {
		e.SuggestedAction = "Please try again"
	}
	if r.ShowRetry != nil {
		e.ShowRetry = *r.ShowRetry
	}
	if r.ShowFileFallback != nil {
		e.ShowFileFallback = *r.ShowFileFallback
	}
	if r.ShowManualEntry != nil {
		e.ShowManualEntry = *r.ShowManualEntry
	}
	e.Message = "client-reported " + string(e.Type)
	return e
}

// DescribeErrorType returns the canned messaging for an error type, or false
// when the type is unknown. Backs the error-info endpoint.
func DescribeErrorType(t ErrorType) (*ScanError, bool) {
	if _, ok := userMessages[t]; !ok {
		return nil, false
	}
	switch t {
	case ErrCameraPermission, ErrCameraNotFound, ErrCameraUnsupported, ErrInsecureContext:
		return NewScanError(t, SeverityMedium, string(t), WithFileFallback()), true
	case ErrNetwork, ErrAPI:
		return NewScanError(t, SeverityMedium, string(t), WithRetry()), true
	case ErrDatabase:
		return NewScanError(t, SeverityHigh, string(t), WithRetry()), true
	case ErrDuplicateBook:
		return NewScanError(t, SeverityLow, string(t), WithoutManualEntry()), true
	default:
		return NewScanError(t, SeverityLow, string(t), WithRetry()), true
	}
}
