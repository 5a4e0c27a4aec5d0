package book

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository used by tests. It enforces the same
// uniqueness guarantee as the Postgres unique constraint.
type MemoryRepo struct {
	mu    sync.Mutex
	books map[string]Book
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{books: make(map[string]Book)}
}

func (r *MemoryRepo) Create(_ context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[b.ISBN]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.books[b.ISBN] = *b
	return nil
}

func (r *MemoryRepo) GetByISBN(_ context.Context, isbn string) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[isbn]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) Exists(_ context.Context, isbn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.books[isbn]
	return ok, nil
}

func (r *MemoryRepo) List(_ context.Context, q Query) ([]Book, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Book
	needle := strings.ToLower(q.Q)
	for _, b := range r.books {
		if needle != "" &&
			!strings.Contains(strings.ToLower(b.ISBN), needle) &&
			!strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.Publisher), needle) &&
			!strings.Contains(strings.ToLower(b.Description), needle) {
			continue
		}
		matched = append(matched, b)
	}

	switch q.Sort {
	case "title":
		sort.Slice(matched, func(i, j int) bool {
			if q.Desc {
				return matched[i].Title > matched[j].Title
			}
			return matched[i].Title < matched[j].Title
		})
	default:
		// Newest first, matching the collection view.
		sort.Slice(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}

	total := len(matched)
	if q.Offset >= total {
		return nil, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepo) Update(_ context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.books[b.ISBN]
	if !ok {
		return ErrNotFound
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	r.books[b.ISBN] = *b
	return nil
}

func (r *MemoryRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books), nil
}
