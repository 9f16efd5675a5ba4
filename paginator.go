package gfx

import (
	"context"
	"iter"
)

// DefaultBatchSize is used by Batches when no size is given.
const DefaultBatchSize = 256

// Paginator windows a result sequence by offset and limit.
type Paginator struct {
	Offset int
	// Limit is the maximum number of items returned, 0 for no limit.
	Limit int
}

// NewPaginator creates a new paginator. Negative values are treated as zero.
func NewPaginator(offset, limit int) Paginator {
	return Paginator{
		Offset: max(offset, 0),
		Limit:  max(limit, 0),
	}
}

// Page returns the window of items selected by the paginator.
func Page[T any](p Paginator, items []T) []T {
	if p.Offset >= len(items) {
		return nil
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// Batches returns an iterator that streams items in batches of at most size elements.
// It stops early if the context is cancelled.
func Batches[T any](ctx context.Context, items []T, size int) iter.Seq2[[]T, error] {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return func(yield func([]T, error) bool) {
		for offset := 0; offset < len(items); offset += size {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			end := min(offset+size, len(items))
			if !yield(items[offset:end], nil) {
				return
			}
		}
	}
}
