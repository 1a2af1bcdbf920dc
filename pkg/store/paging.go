package store

import (
	"context"
)

// DefaultPageSize is the number of rows requested per page.
const DefaultPageSize = 1000

// maxInArgs bounds the number of ids sent in a single IN (...) list.
const maxInArgs = 200

// PageFunc fetches one page of rows at the given offset.
type PageFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// PageObserver is notified after every page request.
type PageObserver interface {
	ObservePage(source string, rows int, err error)
}

// FetchAll requests pages sequentially until a page comes back shorter than
// pageSize. When a page fails, paging stops and the rows gathered so far are
// returned together with the error.
func FetchAll[T any](ctx context.Context, pageSize int, fetch PageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var all []T
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return all, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// chunk splits ids into slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	return append(out, ids)
}

// dedupe drops empty and repeated ids while keeping order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func anys(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
