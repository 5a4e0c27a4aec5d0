// Package scan orchestrates the barcode-to-book pipeline: ISBN validation,
// duplicate checking, metadata lookup, and confirmed saves.
package scan

import (
	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"
)

// OutcomeKind tags the result of processing one scanned string.
type OutcomeKind string

const (
	OutcomeInvalidFormat       OutcomeKind = "invalid_format"
	OutcomeDuplicate           OutcomeKind = "duplicate"
	OutcomeMetadataFetched     OutcomeKind = "metadata_fetched"
	OutcomeMetadataUnavailable OutcomeKind = "metadata_unavailable"
	OutcomeSystemError         OutcomeKind = "system_error"
)

// Draft is an unsaved candidate book record pending user confirmation.
type Draft struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
}

// Outcome is the transient result of one scan-to-confirm interaction. It is
// owned by the processing call that produced it and the render that consumes
// it; nothing is shared across requests.
type Outcome struct {
	Kind OutcomeKind

	// Draft is set for MetadataFetched and MetadataUnavailable.
	Draft *Draft
	// Existing is set for Duplicate.
	Existing *book.Book
	// Err is set for InvalidFormat and SystemError. For SystemError it
	// carries a safe message only; the fault detail goes to the log.
	Err *ScanError
	// Warning explains degraded metadata on MetadataUnavailable.
	Warning string
	// RetryLater hints that a later re-scan may fetch better data.
	RetryLater bool
}

func invalidFormatOutcome(scanErr *ScanError) Outcome {
	return Outcome{Kind: OutcomeInvalidFormat, Err: scanErr}
}

func duplicateOutcome(existing book.Book) Outcome {
	return Outcome{Kind: OutcomeDuplicate, Existing: &existing}
}

func metadataFetchedOutcome(draft Draft) Outcome {
	return Outcome{Kind: OutcomeMetadataFetched, Draft: &draft}
}

func metadataUnavailableOutcome(draft Draft, warning string, retryLater bool) Outcome {
	return Outcome{
		Kind:       OutcomeMetadataUnavailable,
		Draft:      &draft,
		Warning:    warning,
		RetryLater: retryLater,
	}
}

func systemErrorOutcome(scanErr *ScanError) Outcome {
	return Outcome{Kind: OutcomeSystemError, Err: scanErr}
}

// draftFromMetadata maps client metadata onto a draft for the given ISBN.
func draftFromMetadata(isbn13 string, md googlebooks.Metadata) Draft {
	d := Draft{
		ISBN:         isbn13,
		Title:        md.Title,
		Authors:      md.Authors,
		Publisher:    md.Publisher,
		Description:  md.Description,
		ThumbnailURL: md.ThumbnailURL,
		CoverURL:     md.CoverURL,
	}
	if md.PublishedDate != nil {
		d.PublishedDate = md.PublishedDate.Format("2006-01-02")
	}
	return d
}
