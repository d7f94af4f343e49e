package pager

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the number of rows shown per page unless configured otherwise.
const DefaultPageSize = 50

// ErrInvalidPageSize is returned by New for non-positive page sizes.
var ErrInvalidPageSize = errors.New("page size must be greater than zero")

// Page is a read-only view of the current window.
type Page[T any] struct {
	Rows        []T  `json:"rows"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	PageSize    int  `json:"page_size"`
	HasPrev     bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// Pager tracks the current page over a loaded row list.
type Pager[T any] struct {
	rows     []T
	pageSize int
	current  int
}

// New returns an empty pager with the given page size.
func New[T any](pageSize int) (*Pager[T], error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}
	return &Pager[T]{pageSize: pageSize, current: 1}, nil
}

// MustNew is like New but panics on an invalid page size.
func MustNew[T any](pageSize int) *Pager[T] {
	p, err := New[T](pageSize)
	if err != nil {
		panic(err)
	}
	return p
}

// NewDefault returns an empty pager with DefaultPageSize.
func NewDefault[T any]() *Pager[T] {
	return MustNew[T](DefaultPageSize)
}

// Load replaces the row list and resets to the first page. The pager keeps a
// reference to rows; callers must not mutate the slice afterwards.
func (p *Pager[T]) Load(rows []T) {
	p.rows = rows
	p.current = 1
}

// Next advances one page. It reports false and does nothing on the last page.
func (p *Pager[T]) Next() bool {
	if p.current >= p.TotalPages() {
		return false
	}
	p.current++
	return true
}

// Prev goes back one page. It reports false and does nothing on the first page.
func (p *Pager[T]) Prev() bool {
	if p.current <= 1 {
		return false
	}
	p.current--
	return true
}

// First moves to page 1.
func (p *Pager[T]) First() bool {
	return p.GoTo(1)
}

// Last moves to the final page.
func (p *Pager[T]) Last() bool {
	return p.GoTo(p.TotalPages())
}

// GoTo moves to page n, clamped to [1, max(TotalPages, 1)]. It reports whether
// the current page changed.
func (p *Pager[T]) GoTo(n int) bool {
	n = max(1, min(n, p.TotalPages()))
	if n == p.current {
		return false
	}
	p.current = n
	return true
}

// CurrentPage returns the 1-based current page.
func (p *Pager[T]) CurrentPage() int { return p.current }

// PageSize returns the fixed page size.
func (p *Pager[T]) PageSize() int { return p.pageSize }

// Len returns the number of loaded rows.
func (p *Pager[T]) Len() int { return len(p.rows) }

// TotalPages returns ceil(Len / PageSize); 0 when nothing is loaded.
func (p *Pager[T]) TotalPages() int {
	return (len(p.rows) + p.pageSize - 1) / p.pageSize
}

// Offset returns the absolute index of the first visible row.
func (p *Pager[T]) Offset() int {
	return (p.current - 1) * p.pageSize
}

// Visible returns the current window and its counters.
func (p *Pager[T]) Visible() Page[T] {
	total := p.TotalPages()
	start := min(p.Offset(), len(p.rows))
	end := min(start+p.pageSize, len(p.rows))

	return Page[T]{
		Rows:        p.rows[start:end:end],
		CurrentPage: p.current,
		TotalPages:  total,
		TotalItems:  len(p.rows),
		PageSize:    p.pageSize,
		HasPrev:     p.current > 1,
		HasNext:     p.current < total,
	}
}
