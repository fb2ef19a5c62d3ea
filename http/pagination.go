package http

import "context"

// PageFetcher fetches one page of items. It returns the items, whether
// more pages remain, and any error.
type PageFetcher[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// PageIterator lazily iterates over paginated API results.
type PageIterator[T any] struct {
	fetch  PageFetcher[T]
	page   int
	buffer []T
	done   bool
	err    error
}

// NewPageIterator creates an iterator with the given fetch function.
func NewPageIterator[T any](fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{fetch: fetch}
}

// Next returns the next item. When iteration completes it returns
// (zero, false, nil).
func (p *PageIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	if p.err != nil {
		return zero, false, p.err
	}

	// A backend may answer an empty page while reporting more remain;
	// keep fetching until something arrives or the pages run out.
	for len(p.buffer) == 0 && !p.done {
		items, hasMore, err := p.fetch(ctx, p.page)
		if err != nil {
			p.err = err
			return zero, false, err
		}
		p.buffer = items
		p.done = !hasMore
		p.page++
	}

	if len(p.buffer) == 0 {
		return zero, false, nil
	}

	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	return item, true, nil
}

// All collects the remaining items, fetching every page.
func (p *PageIterator[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for {
		item, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, item)
	}
}
