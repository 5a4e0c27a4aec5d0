package book

import (
	"context"
)

// Repository defines the contract for book data storage.
type Repository interface {
	// Create inserts a new book. Returns ErrDuplicate if a record with the
	// same normalized ISBN already exists.
	Create(ctx context.Context, b *Book) error
	// GetByISBN returns a book by its normalized ISBN-13.
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	// Exists reports whether a book with the given ISBN is stored.
	Exists(ctx context.Context, isbn string) (bool, error)
	// List returns books matching the query plus the total match count.
	List(ctx context.Context, q Query) ([]Book, int, error)
	// Update replaces the metadata fields of an existing record and bumps
	// its updated timestamp. Returns ErrNotFound for unknown ISBNs.
	Update(ctx context.Context, b *Book) error
	// Count returns the number of stored books.
	Count(ctx context.Context) (int, error)
}
