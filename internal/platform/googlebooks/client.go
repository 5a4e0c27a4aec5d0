// Package googlebooks queries the Google Books volumes API for book metadata.
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the API has no volume for the ISBN.
var ErrNotFound = errors.New("googlebooks: no matching volumes")

// ErrorKind classifies API failures for the caller's retry decision.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindMalformed   ErrorKind = "malformed_response"
	KindUnreachable ErrorKind = "unreachable"
)

// APIError is a classified Google Books API failure.
type APIError struct {
	Kind ErrorKind
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("googlebooks: %s: %v", e.Kind, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Transient reports whether retrying later may succeed.
func (e *APIError) Transient() bool {
	return e.Kind == KindTimeout || e.Kind == KindRateLimited
}

// Metadata carries the extracted volume fields. Any subset may be absent.
type Metadata struct {
	Title         string
	Authors       []string
	Publisher     string
	PublishedDate *time.Time
	Description   string
	ThumbnailURL  string
	CoverURL      string
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
}

func NewClient(userAgent string, rps int, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    "https://www.googleapis.com/books/v1",
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// volumesResponse matches the volumes?q=isbn: search response.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Publisher     string   `json:"publisher"`
			PublishedDate string   `json:"publishedDate"`
			Description   string   `json:"description"`
			ImageLinks    struct {
				Thumbnail string `json:"thumbnail"`
				Small     string `json:"small"`
				Medium    string `json:"medium"`
				Large     string `json:"large"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Lookup fetches metadata for a normalized ISBN-13. It returns ErrNotFound
// when the API reports zero matching items and *APIError for request
// failures. Missing fields never fail the lookup.
func (c *Client) Lookup(ctx context.Context, isbn13 string) (Metadata, error) {
	u := fmt.Sprintf("%s/volumes?q=%s&maxResults=1&printType=books",
		c.baseURL, url.QueryEscape("isbn:"+isbn13))

	var res volumesResponse
	if err := c.get(ctx, u, &res); err != nil {
		return Metadata{}, err
	}

	if res.TotalItems == 0 || len(res.Items) == 0 {
		return Metadata{}, ErrNotFound
	}

	info := res.Items[0].VolumeInfo
	md := Metadata{
		Title:         info.Title,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: parsePublishedDate(info.PublishedDate),
		Description:   info.Description,
		ThumbnailURL:  info.ImageLinks.Thumbnail,
	}

	// Prefer the highest-resolution cover available.
	switch {
	case info.ImageLinks.Large != "":
		md.CoverURL = info.ImageLinks.Large
	case info.ImageLinks.Medium != "":
		md.CoverURL = info.ImageLinks.Medium
	case info.ImageLinks.Small != "":
		md.CoverURL = info.ImageLinks.Small
	default:
		md.CoverURL = info.ImageLinks.Thumbnail
	}

	return md, nil
}

// parsePublishedDate accepts YYYY, YYYY-MM, or YYYY-MM-DD. Anything else
// maps to nil rather than failing the lookup.
func parsePublishedDate(s string) *time.Time {
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

func (c *Client) get(ctx context.Context, url string, target interface{}) error {
	var lastErr *APIError
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &APIError{Kind: KindTimeout, Err: ctx.Err()}
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Kind: KindTimeout, Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &APIError{Kind: KindUnreachable, Err: err}
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = classifyTransport(err)
			if !lastErr.Transient() && lastErr.Kind != KindUnreachable {
				return lastErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			decodeErr := json.NewDecoder(resp.Body).Decode(target)
			resp.Body.Close()
			if decodeErr != nil {
				return &APIError{Kind: KindMalformed, Err: decodeErr}
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = &APIError{Kind: KindRateLimited, Err: fmt.Errorf("status %d", resp.StatusCode)}
			continue
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = &APIError{Kind: KindUnreachable, Err: fmt.Errorf("status %d", resp.StatusCode)}
			continue
		default:
			resp.Body.Close()
			return &APIError{Kind: KindMalformed, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
	}
	return lastErr
}

func classifyTransport(err error) *APIError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Err: err}
	}
	return &APIError{Kind: KindUnreachable, Err: err}
}
