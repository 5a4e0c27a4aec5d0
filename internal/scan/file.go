package scan

import "fmt"

// File size caps for uploaded barcode images. Constrained (mobile-classified)
// devices get the lower cap.
const (
	MaxFileSize            = 10 << 20
	MaxFileSizeConstrained = 5 << 20
)

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// FileInfo describes an uploaded file before any decode attempt.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`
}

// ValidateFile checks an uploaded file's shape before the decoder runs.
// Violations short-circuit with a typed error and never reach the decoder.
func ValidateFile(f FileInfo, constrained bool) *ScanError {
	if f.ContentType == "" && f.Size == 0 {
		return NewScanError(ErrFileFormat, SeverityLow,
			"no file data provided",
			WithRetry())
	}

	if !acceptedImageTypes[f.ContentType] {
		return NewScanError(ErrFileFormat, SeverityLow,
			fmt.Sprintf("invalid file type: %s", f.ContentType),
			WithRetry(),
			WithDetails(fmt.Sprintf("received type %q, expected JPEG, PNG, or WebP", f.ContentType)))
	}

	maxSize := int64(MaxFileSize)
	if constrained {
		maxSize = MaxFileSizeConstrained
	}
	if f.Size > maxSize {
		return NewScanError(ErrFileSize, SeverityLow,
			fmt.Sprintf("file too large: %d bytes (max %d)", f.Size, maxSize),
			WithRetry(),
			WithUserMessage(fmt.Sprintf(
				"File size too large (%dMB). Please select an image smaller than %dMB.",
				f.Size>>20, maxSize>>20)),
			WithDetails(fmt.Sprintf("file size %d bytes, max allowed %d bytes", f.Size, maxSize)))
	}

	return nil
}
