package scroll

import "context"

// Batch is one page of entries from a Source
type Batch[T any] struct {
	Items []T
	Done  bool // no entries exist past this batch
}

// Source feeds entries to the engine in batches. Offsets are counted from
// the first entry the source produced.
type Source[T any] interface {
	Fetch(ctx context.Context, offset, limit int) (Batch[T], error)
}

// SliceSource serves a fixed slice as a Source
type SliceSource[T any] []T

// Fetch returns up to limit entries starting at offset
func (s SliceSource[T]) Fetch(ctx context.Context, offset, limit int) (Batch[T], error) {
	if err := ctx.Err(); err != nil {
		return Batch[T]{}, err
	}
	if offset >= len(s) {
		return Batch[T]{Done: true}, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	items := make([]T, end-offset)
	copy(items, s[offset:end])
	return Batch[T]{Items: items, Done: end == len(s)}, nil
}
