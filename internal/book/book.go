package book

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrDuplicate is returned when a book with the same ISBN already exists.
// The store's unique constraint is the final authority; callers must not
// assume an earlier existence check still holds.
var ErrDuplicate = errors.New("book already exists")

// Book represents a cataloged book keyed by its normalized ISBN-13.
type Book struct {
	ISBN          string     `json:"isbn"`
	Title         string     `json:"title,omitempty"`
	Authors       []string   `json:"authors,omitempty"`
	Publisher     string     `json:"publisher,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	Description   string     `json:"description,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	CoverURL      string     `json:"cover_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AuthorsDisplay returns the authors as a comma-separated string.
func (b Book) AuthorsDisplay() string {
	return strings.Join(b.Authors, ", ")
}

// Query defines filters and pagination for listing books.
type Query struct {
	Q      string
	Sort   string
	Desc   bool
	Limit  int
	Offset int
}
