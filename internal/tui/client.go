package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/scan"
)

// Client talks to the catalog server's scan and book endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type scanResult struct {
	Status     string      `json:"status"`
	Book       *scan.Draft `json:"book,omitempty"`
	Existing   *book.Book  `json:"existing,omitempty"`
	Warning    string      `json:"warning,omitempty"`
	RetryLater bool        `json:"retry_later,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *scan.ScanError `json:"error"`
}

// ProcessScan submits a scanned string and maps the server's reply onto an
// outcome the controller understands.
func (c *Client) ProcessScan(ctx context.Context, text, source string) (scan.Outcome, error) {
	payload := map[string]string{"scanned_text": text, "scan_type": source}
	env, err := c.post(ctx, "/scan", payload)
	if err != nil {
		return scan.Outcome{}, err
	}

	if env.Error != nil {
		kind := scan.OutcomeSystemError
		if env.Error.Type == scan.ErrValidation {
			kind = scan.OutcomeInvalidFormat
		}
		return scan.Outcome{Kind: kind, Err: env.Error}, nil
	}

	var result scanResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return scan.Outcome{}, fmt.Errorf("decode scan response: %w", err)
	}
	return scan.Outcome{
		Kind:       scan.OutcomeKind(result.Status),
		Draft:      result.Book,
		Existing:   result.Existing,
		Warning:    result.Warning,
		RetryLater: result.RetryLater,
	}, nil
}

// Confirm persists a reviewed draft. A structured scan error comes back as
// the second return; transport faults as the third.
func (c *Client) Confirm(ctx context.Context, draft scan.Draft) (*book.Book, *scan.ScanError, error) {
	env, err := c.post(ctx, "/scan/confirm", draft)
	if err != nil {
		return nil, nil, err
	}
	if env.Error != nil {
		return nil, env.Error, nil
	}

	var saved book.Book
	if err := json.Unmarshal(env.Data, &saved); err != nil {
		return nil, nil, fmt.Errorf("decode confirm response: %w", err)
	}
	return &saved, nil, nil
}

// ListBooks fetches a page of the collection, optionally filtered.
func (c *Client) ListBooks(ctx context.Context, query string) ([]book.Book, error) {
	url := c.baseURL + "/books?page_size=100"
	if query != "" {
		url += "&q=" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("list books: status %d", resp.StatusCode)
	}

	var books []book.Book
	if err := json.Unmarshal(env.Data, &books); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return books, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}
