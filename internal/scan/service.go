package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/isbn"
	"bookshelf/internal/platform/googlebooks"
)

// MetadataClient is the metadata lookup boundary consumed by the processor.
type MetadataClient interface {
	Lookup(ctx context.Context, isbn13 string) (googlebooks.Metadata, error)
}

// Service orchestrates Validator -> Store check -> Metadata Client for one
// scanned string and persists drafts on explicit confirmation.
type Service struct {
	metadata MetadataClient
	repo     book.Repository
}

func NewService(metadata MetadataClient, repo book.Repository) *Service {
	return &Service{metadata: metadata, repo: repo}
}

// Process runs the scan pipeline for one raw scanned string. It never
// returns a hard failure for metadata problems: a valid, non-duplicate ISBN
// always yields a saveable draft.
func (s *Service) Process(ctx context.Context, rawScanText string) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("scan: panic processing scanned text: %v", rec)
			outcome = systemErrorOutcome(NewScanError(ErrUnknown, SeverityHigh,
				"internal fault while processing scan",
				WithRetry()))
		}
	}()

	// Step 1: validate. Invalid input returns immediately, no network or
	// store call.
	normalized, err := isbn.Normalize(rawScanText)
	if err != nil {
		var invalid *isbn.InvalidError
		if errors.As(err, &invalid) {
			log.Printf("scan: invalid ISBN scanned: reason=%s", invalid.Reason)
			return invalidFormatOutcome(NewScanError(ErrValidation, SeverityLow,
				err.Error(),
				WithRetry(),
				WithUserMessage("The scanned barcode is not a valid ISBN: "+err.Error()),
				WithDetails(string(invalid.Reason))))
		}
		return invalidFormatOutcome(NewScanError(ErrValidation, SeverityLow, err.Error(), WithRetry()))
	}

	// Step 2: duplicate pre-check. No network call for known books.
	existing, err := s.repo.GetByISBN(ctx, normalized)
	if err == nil {
		log.Printf("scan: duplicate ISBN %s", normalized)
		return duplicateOutcome(existing)
	}
	if !errors.Is(err, book.ErrNotFound) {
		log.Printf("scan: store lookup failed for %s: %v", normalized, err)
		return systemErrorOutcome(NewScanError(ErrDatabase, SeverityHigh,
			"store lookup failed",
			WithRetry()))
	}

	// Step 3: metadata lookup. Failures degrade to a bare-ISBN draft so the
	// user is never blocked on the API.
	md, err := s.metadata.Lookup(ctx, normalized)
	if err != nil {
		warning, retryLater := describeLookupFailure(normalized, err)
		return metadataUnavailableOutcome(Draft{ISBN: normalized}, warning, retryLater)
	}

	return metadataFetchedOutcome(draftFromMetadata(normalized, md))
}

func describeLookupFailure(isbn13 string, err error) (warning string, retryLater bool) {
	if errors.Is(err, googlebooks.ErrNotFound) {
		log.Printf("scan: no metadata for %s", isbn13)
		return "No book information was found for this ISBN. A basic record can still be saved.", false
	}
	var apiErr *googlebooks.APIError
	if errors.As(err, &apiErr) {
		log.Printf("scan: metadata lookup failed for %s: kind=%s err=%v", isbn13, apiErr.Kind, apiErr.Err)
		if apiErr.Transient() {
			return "The book information service is temporarily unavailable. A basic record can be saved now and refreshed later.", true
		}
		return "Book information could not be retrieved. A basic record can still be saved.", false
	}
	log.Printf("scan: metadata lookup failed for %s: %v", isbn13, err)
	return "Book information could not be retrieved. A basic record can still be saved.", false
}

// Confirm persists a draft after explicit user action. Uniqueness is
// re-checked at save time via the store's constraint; the pre-check in
// Process is advisory only.
func (s *Service) Confirm(ctx context.Context, draft Draft) (book.Book, error) {
	normalized, err := isbn.Normalize(draft.ISBN)
	if err != nil {
		return book.Book{}, NewScanError(ErrValidation, SeverityLow, err.Error(), WithRetry())
	}

	b := book.Book{
		ISBN:          normalized,
		Title:         draft.Title,
		Authors:       draft.Authors,
		Publisher:     draft.Publisher,
		PublishedDate: parseDraftDate(draft.PublishedDate),
		Description:   draft.Description,
		ThumbnailURL:  draft.ThumbnailURL,
		CoverURL:      draft.CoverURL,
	}

	if err := s.repo.Create(ctx, &b); err != nil {
		if errors.Is(err, book.ErrDuplicate) {
			return book.Book{}, NewScanError(ErrDuplicateBook, SeverityLow,
				fmt.Sprintf("book with ISBN %s already exists", normalized),
				WithoutManualEntry())
		}
		log.Printf("scan: confirm save failed for %s: %v", normalized, err)
		return book.Book{}, NewScanError(ErrDatabase, SeverityHigh,
			"failed to save book",
			WithRetry())
	}

	log.Printf("scan: saved book %s %q", b.ISBN, b.Title)
	return b, nil
}

// Refresh re-fetches metadata for an existing record and updates it. Lookup
// failures leave the stored record untouched.
func (s *Service) Refresh(ctx context.Context, rawISBN string) (book.Book, error) {
	normalized, err := isbn.Normalize(rawISBN)
	if err != nil {
		return book.Book{}, NewScanError(ErrValidation, SeverityLow, err.Error())
	}

	b, err := s.repo.GetByISBN(ctx, normalized)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return book.Book{}, book.ErrNotFound
		}
		return book.Book{}, NewScanError(ErrDatabase, SeverityHigh, "store lookup failed", WithRetry())
	}

	md, err := s.metadata.Lookup(ctx, normalized)
	if err != nil {
		warning, _ := describeLookupFailure(normalized, err)
		return b, NewScanError(ErrAPI, SeverityMedium, warning,
			WithRetry(),
			WithUserMessage(warning))
	}

	b.Title = md.Title
	b.Authors = md.Authors
	b.Publisher = md.Publisher
	b.PublishedDate = md.PublishedDate
	b.Description = md.Description
	b.ThumbnailURL = md.ThumbnailURL
	b.CoverURL = md.CoverURL

	if err := s.repo.Update(ctx, &b); err != nil {
		log.Printf("scan: refresh update failed for %s: %v", normalized, err)
		return book.Book{}, NewScanError(ErrDatabase, SeverityHigh, "failed to update book", WithRetry())
	}

	log.Printf("scan: refreshed metadata for %s", normalized)
	return b, nil
}

func parseDraftDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
