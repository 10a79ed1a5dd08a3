// Package pager implements offset-windowed incremental loading with
// exhaustion tracking, shared by overview lists and message history.
package pager

import (
	"context"
	"sync"
)

// FetchFunc loads one page of at most limit items starting at offset.
type FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// ApplyFunc merges a successfully fetched page into the target state.
type ApplyFunc[T any] func(page []T)

// Pager tracks offset, exhaustion and in-flight state for one list.
// "Has more" is inferred from page-size equality: a page shorter than
// the requested limit means exhaustion. At an exact page-size boundary
// this costs one harmless trailing empty fetch.
type Pager[T any] struct {
	mu        sync.Mutex
	fetch     FetchFunc[T]
	apply     ApplyFunc[T]
	limit     int
	offset    int
	exhausted bool
	inFlight  bool
}

// New creates a pager over fetch, delivering pages to apply.
func New[T any](limit int, fetch FetchFunc[T], apply ApplyFunc[T]) *Pager[T] {
	if limit <= 0 {
		limit = 50
	}
	return &Pager[T]{fetch: fetch, apply: apply, limit: limit}
}

// LoadMore fetches and applies the next page. It is a no-op while a
// fetch is in flight or after exhaustion. On failure the offset is left
// unchanged and exhaustion is not set, so a retry is possible.
// Returns the number of items applied.
func (p *Pager[T]) LoadMore(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.inFlight || p.exhausted {
		p.mu.Unlock()
		return 0, nil
	}
	p.inFlight = true
	limit, offset := p.limit, p.offset
	p.mu.Unlock()

	page, err := p.fetch(ctx, limit, offset)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if err != nil {
		return 0, err
	}

	if p.apply != nil && len(page) > 0 {
		p.apply(page)
	}
	p.offset += len(page)
	p.exhausted = len(page) < limit
	return len(page), nil
}

// HasMore reports whether another LoadMore may yield data.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.exhausted
}

// Offset returns the current window offset.
func (p *Pager[T]) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Reset rewinds the pager to the start with exhaustion cleared, e.g.
// when the target list is switched or force-refreshed.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	p.offset = 0
	p.exhausted = false
	p.mu.Unlock()
}
